package monitor

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultClock is the clock declared by monitors built from numeric bounds
// when the caller does not name one.
const DefaultClock = "monitor_clk"

// TimedAction is an action expected between Lower and Upper.
type TimedAction struct {
	Action string
	Lower  Bound
	Upper  Bound
}

type TimedActions []TimedAction

// Untimed turns an action sequence into timed actions without bounds.
func Untimed(actions ...string) TimedActions {
	out := make(TimedActions, len(actions))
	for i, a := range actions {
		out[i] = TimedAction{Action: a}
	}
	return out
}

// Timed pairs every action with numeric bounds on clock. A negative bound
// means none.
func Timed(clock string, actions []string, lower, upper []int) (TimedActions, error) {
	if len(lower) != len(actions) || len(upper) != len(actions) {
		return nil, fmt.Errorf("timed actions: %d actions with %d lower and %d upper bounds", len(actions), len(lower), len(upper))
	}
	if clock == "" {
		clock = DefaultClock
	}
	out := make(TimedActions, len(actions))
	for i, a := range actions {
		out[i] = TimedAction{Action: a, Lower: numericOrNone(lower[i], clock), Upper: numericOrNone(upper[i], clock)}
	}
	return out, nil
}

func numericOrNone(v int, clock string) Bound {
	if v < 0 {
		return Unbounded()
	}
	return Numeric(v, clock)
}

func (ta TimedActions) Actions() []string {
	out := make([]string, len(ta))
	for i, a := range ta {
		out[i] = a.Action
	}
	return out
}

// IsPattern reports whether no action carries a bound.
func (ta TimedActions) IsPattern() bool {
	for _, a := range ta {
		if !a.Lower.IsUnbounded() || !a.Upper.IsUnbounded() {
			return false
		}
	}
	return true
}

// clocks lists the clocks of all bounds in first-use order.
func (ta TimedActions) clocks() []string {
	var out []string
	for _, a := range ta {
		for _, c := range []string{a.Lower.Clock(), a.Upper.Clock()} {
			if c != "" && !slices.Contains(out, c) {
				out = append(out, c)
			}
		}
	}
	return out
}

func (ta TimedActions) declaration() string {
	clocks := ta.clocks()
	if len(clocks) == 0 {
		return ""
	}
	return "clock " + strings.Join(clocks, ", ") + ";"
}
