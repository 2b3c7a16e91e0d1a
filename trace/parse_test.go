package trace

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Jack0Chan/PyUPPAAL/internal/test"
)

func TestParsePedestrian(t *testing.T) {
	raw := test.ArchiveFile(t, "traces.txtar", "pedestrian.txt")
	tr, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	wantStates := [][]string{
		{"Cars.Idle", "TrafficLights.cRed_pGreen", "LV1Pedestrian2.Idle"},
		{"Cars.Idle", "TrafficLights._id8", "LV1Pedestrian2.CheckTL"},
	}
	if diff := cmp.Diff(wantStates, tr.States()); diff != "" {
		t.Errorf("States() mismatch (-want +got):\n%s", diff)
	}

	vars := GlobalVariables{Names: []string{"Cars.tCCrssMax"}, Values: []string{"4"}}
	if diff := cmp.Diff([]GlobalVariables{vars, vars}, tr.GlobalVariables()); diff != "" {
		t.Errorf("GlobalVariables() mismatch (-want +got):\n%s", diff)
	}

	zone := ClockZone{
		{Left: "t(0)", Right: "tTL", Bound: 0},
		{Left: "tTL", Right: "t(0)", Bound: 55},
	}
	if diff := cmp.Diff([]ClockZone{zone, zone}, tr.ClockZones()); diff != "" {
		t.Errorf("ClockZones() mismatch (-want +got):\n%s", diff)
	}

	wantTransitions := []Transition{{
		Sync:         "pWantCrss",
		HasSync:      true,
		StartProcess: "LV1Pedestrian2",
		EndProcesses: []string{"TrafficLights"},
		Edges: []ProcessEdge{
			{Start: "LV1Pedestrian2.Idle", End: "LV1Pedestrian2.CheckTL", Guard: "1", Sync: "pWantCrss!", Update: "1"},
			{Start: "TrafficLights.cRed_pGreen", End: "TrafficLights._id8", Guard: "1", Sync: "pWantCrss?", Update: "1"},
		},
	}}
	if diff := cmp.Diff(wantTransitions, tr.Transitions()); diff != "" {
		t.Errorf("Transitions() mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"pWantCrss"}, tr.Actions()); diff != "" {
		t.Errorf("Actions() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseInternalAndSelect(t *testing.T) {
	tr, err := Parse(test.ArchiveFile(t, "traces.txtar", "crossing.txt"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	transitions := tr.Transitions()
	if len(transitions) != 4 {
		t.Fatalf("len(Transitions()) = %d, want 4", len(transitions))
	}

	internal := transitions[1]
	if action, ok := internal.Action(); ok {
		t.Errorf("internal transition has action %q", action)
	}
	if diff := cmp.Diff([]string{"TrafficLights"}, internal.EndProcesses); diff != "" {
		t.Errorf("internal EndProcesses mismatch (-want +got):\n%s", diff)
	}
	if !internal.Edges[0].HasGuard() {
		t.Errorf("internal edge guard %q not reported", internal.Edges[0].Guard)
	}

	if got := transitions[3].Edges[0].End; got != "Cars.Crossing" {
		t.Errorf("select list not stripped: end = %q", got)
	}
	if got := tr.ClockZones()[3][0]; got != (ClockConstraint{Left: "t(0)", Right: "tTL", Bound: -2}) {
		t.Errorf("negative bound parsed as %+v", got)
	}
	if got := tr.ClockZones()[2][1]; !got.Strict {
		t.Errorf("strict constraint parsed as %+v", got)
	}
	if got, want := tr.Len(), 3; got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
}

func TestParseSingleState(t *testing.T) {
	tr, err := Parse(test.ArchiveFile(t, "traces.txtar", "single.txt"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(tr.States()) != 1 || len(tr.Transitions()) != 0 {
		t.Errorf("got %d states and %d transitions, want 1 and 0", len(tr.States()), len(tr.Transitions()))
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		file string
		line int
	}{
		{file: "empty.txt", line: 0},
		{file: "bad-bound.txt", line: 1},
		{file: "no-right-clock.txt", line: 1},
		{file: "consecutive-states.txt", line: 2},
		{file: "transition-first.txt", line: 1},
		{file: "trailing-transition.txt", line: 2},
		{file: "consecutive-transitions.txt", line: 3},
		{file: "no-labels.txt", line: 2},
		{file: "two-senders.txt", line: 2},
		{file: "lonely-receiver.txt", line: 2},
	}
	files := test.ReadArchive(t, "malformed.txtar")

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			_, err := Parse(files[tt.file])
			var malformed *MalformedTraceError
			if !errors.As(err, &malformed) {
				t.Fatalf("Parse() error = %v, want *MalformedTraceError", err)
			}
			if malformed.Line != tt.line {
				t.Errorf("Line = %d, want %d (%v)", malformed.Line, tt.line, err)
			}
		})
	}
}

func TestNewIsLazy(t *testing.T) {
	tr := New("State: P.init t(0)-c<=x")
	if tr.Raw() == "" {
		t.Fatal("Raw() is empty")
	}
	if got := tr.States(); len(got) != 0 {
		t.Errorf("States() of malformed trace = %v, want empty", got)
	}
	var malformed *MalformedTraceError
	if !errors.As(tr.Err(), &malformed) {
		t.Errorf("Err() = %v, want *MalformedTraceError", tr.Err())
	}
}
