package monitor

import (
	"fmt"
	"regexp"
	"strings"
)

var leadingClock = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*[<>]`)

type boundKind int

const (
	unbounded boundKind = iota
	numeric
	raw
)

// Bound is a timing constraint attached to one observed action: none, a
// number of time units on a clock, or a ready-made UPPAAL expression.
type Bound struct {
	kind   boundKind
	value  int
	clock  string
	expr   string
	strict bool
}

// Unbounded places no constraint.
func Unbounded() Bound {
	return Bound{}
}

// Numeric bounds clock by value.
func Numeric(value int, clock string) Bound {
	return Bound{kind: numeric, value: value, clock: clock}
}

// Raw uses expr verbatim, e.g. "gclk>=20". The identifier compared first
// in expr is taken as its clock and declared by the monitor.
func Raw(expr string) Bound {
	b := Bound{kind: raw, expr: expr}
	if m := leadingClock.FindStringSubmatch(expr); m != nil {
		b.clock = m[1]
	}
	return b
}

func (b Bound) IsUnbounded() bool {
	return b.kind == unbounded
}

// Clock is the clock the bound constrains, or "" for none.
func (b Bound) Clock() string {
	return b.clock
}

// Complement makes the bound strict: a lower bound becomes clock>value and
// an upper bound clock<value.
func (b Bound) Complement() Bound {
	c := b
	c.strict = true
	if b.kind == raw {
		c.expr = strings.NewReplacer(">=", ">", "<=", "<").Replace(b.expr)
	}
	return c
}

// Guard renders b as a lower bound.
func (b Bound) Guard() string {
	return b.render(">=", ">")
}

// Invariant renders b as an upper bound.
func (b Bound) Invariant() string {
	return b.render("<=", "<")
}

func (b Bound) render(op, strictOp string) string {
	switch b.kind {
	case numeric:
		if b.strict {
			op = strictOp
		}
		return fmt.Sprintf("%s%s%d", b.clock, op, b.value)
	case raw:
		return b.expr
	default:
		return ""
	}
}

func (b Bound) String() string {
	switch b.kind {
	case numeric:
		return fmt.Sprintf("%s:%d", b.clock, b.value)
	case raw:
		return b.expr
	default:
		return "-"
	}
}
