package trace

import (
	"fmt"
	"strings"
)

// ClockConstraint is one difference-bound fact of a zone: Left - Right < Bound
// when Strict, Left - Right ≤ Bound otherwise.
type ClockConstraint struct {
	Left   string
	Right  string
	Strict bool
	Bound  int
}

func (c ClockConstraint) String() string {
	sign := "≤"
	if c.Strict {
		sign = "<"
	}
	return fmt.Sprintf("%s - %s %s %d", c.Left, c.Right, sign, c.Bound)
}

// ClockZone holds the constraints printed for one state, in source order.
// Duplicates are kept as they appear.
type ClockZone []ClockConstraint

func (z ClockZone) String() string {
	parts := make([]string, len(z))
	for i, c := range z {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, "; ") + "]"
}

func (z ClockZone) clone() ClockZone {
	if z == nil {
		return nil
	}
	return append(ClockZone(nil), z...)
}

// GlobalVariables is the variable snapshot of one state. Names[i] holds
// Values[i].
type GlobalVariables struct {
	Names  []string
	Values []string
}

// Lookup returns the value recorded for name.
func (g GlobalVariables) Lookup(name string) (string, bool) {
	for i, n := range g.Names {
		if n == name {
			return g.Values[i], true
		}
	}
	return "", false
}

func (g GlobalVariables) String() string {
	parts := make([]string, len(g.Names))
	for i := range g.Names {
		parts[i] = g.Names[i] + "=" + g.Values[i]
	}
	return "[" + strings.Join(parts, "; ") + "]"
}

func (g GlobalVariables) clone() GlobalVariables {
	return GlobalVariables{
		Names:  cloneStrings(g.Names),
		Values: cloneStrings(g.Values),
	}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
