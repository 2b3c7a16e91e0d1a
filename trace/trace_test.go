package trace

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Jack0Chan/PyUPPAAL/internal/test"
)

func mustParse(t *testing.T, file string) *SimTrace {
	t.Helper()
	tr, err := Parse(test.ArchiveFile(t, "traces.txtar", file))
	if err != nil {
		t.Fatalf("Parse(%s) error = %v", file, err)
	}
	return tr
}

func TestString(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		focus  []string
		golden string
	}{
		{name: "full trace", file: "pedestrian.txt", golden: "pedestrian.golden"},
		{name: "filtered", file: "crossing.txt", focus: []string{"pWantCrss", "cCrss"}, golden: "crossing-filtered.golden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := mustParse(t, tt.file).FilterByActions(tt.focus)
			want := test.ArchiveFile(t, "traces.txtar", tt.golden)
			if diff := cmp.Diff(want, tr.String()); diff != "" {
				t.Errorf("String() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderingRoundTrip(t *testing.T) {
	for _, file := range []string{"pedestrian.txt", "crossing.txt", "single.txt"} {
		t.Run(file, func(t *testing.T) {
			tr := mustParse(t, file)
			n := len(tr.Transitions())
			rebuilt := tr.Slice(0, n)
			if n == 0 {
				rebuilt = fromParsed(parsed{
					states: tr.States(),
					vars:   tr.GlobalVariables(),
					zones:  tr.ClockZones(),
				})
			}
			if diff := cmp.Diff(tr.String(), rebuilt.String()); diff != "" {
				t.Errorf("rendering changed after rebuild (-want +got):\n%s", diff)
			}
			if !tr.Equal(mustParse(t, file)) {
				t.Error("two parses of the same text are not Equal")
			}
		})
	}
}

func TestLengthInvariant(t *testing.T) {
	tr := mustParse(t, "crossing.txt")
	views := map[string]*SimTrace{
		"parsed":   tr,
		"slice":    tr.Slice(1, 3),
		"at":       tr.At(2),
		"select":   tr.Select(3, 0, 0, 9),
		"filtered": tr.FilterByActions([]string{"pCrss"}),
		"none":     tr.FilterByActions([]string{}),
	}
	for name, v := range views {
		states, zones, vars, transitions := len(v.States()), len(v.ClockZones()), len(v.GlobalVariables()), len(v.Transitions())
		if zones != states || vars != states {
			t.Errorf("%s: %d states, %d zones, %d variable snapshots", name, states, zones, vars)
		}
		if states != 0 && transitions != states-1 {
			t.Errorf("%s: %d states but %d transitions", name, states, transitions)
		}
		if states == 0 && transitions != 0 {
			t.Errorf("%s: no states but %d transitions", name, transitions)
		}
	}
}

func TestFilterByActions(t *testing.T) {
	tr := mustParse(t, "crossing.txt")
	tests := []struct {
		name  string
		focus []string
		want  []string
	}{
		{name: "nil focus", focus: nil, want: []string{"pWantCrss", "pCrss", "cCrss"}},
		{name: "empty focus", focus: []string{}, want: nil},
		{name: "subset", focus: []string{"cCrss", "pWantCrss"}, want: []string{"pWantCrss", "cCrss"}},
		{name: "unknown action", focus: []string{"reset"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tr.FilterByActions(tt.focus).Actions()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Actions() mismatch (-want +got):\n%s", diff)
			}
			if !isSubsequence(got, tr.Actions()) {
				t.Errorf("%v is not a subsequence of %v", got, tr.Actions())
			}
			for _, a := range got {
				if tt.focus != nil && !slices.Contains(tt.focus, a) {
					t.Errorf("action %q outside focus %v", a, tt.focus)
				}
			}
		})
	}

	if tr.FilterByActions(nil) != tr {
		t.Error("FilterByActions(nil) did not return the receiver")
	}
}

func isSubsequence(sub, seq []string) bool {
	i := 0
	for _, s := range seq {
		if i < len(sub) && sub[i] == s {
			i++
		}
	}
	return i == len(sub)
}

func TestSlicesAreIndependent(t *testing.T) {
	parent := mustParse(t, "crossing.txt")
	early := parent.Slice(0, 3)
	before := early.String()

	states := early.States()
	states[0][0] = "Mutated.loc"
	transitions := early.Transitions()
	transitions[0].EndProcesses[0] = "Mutated"

	_ = parent.FilterByActions([]string{"pCrss"})
	_ = parent.TrimTransitions(Substitutions{"LV1Pedestrian2": {"pWantCrss": "want"}})

	if diff := cmp.Diff(before, early.String()); diff != "" {
		t.Errorf("derived trace changed (-want +got):\n%s", diff)
	}
	if got := parent.States()[0][0]; got != "Cars.Idle" {
		t.Errorf("parent state changed to %q", got)
	}
}

func TestSlicePanicsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Slice(0, 10) did not panic")
		}
	}()
	mustParse(t, "pedestrian.txt").Slice(0, 10)
}

func TestTrimTransitions(t *testing.T) {
	tr := mustParse(t, "crossing.txt")
	subs := Substitutions{
		"LV1Pedestrian2": {"pWantCrss": "wantCrossing", "pCrss": "crossing"},
		"Cars":           {"pWantCrss": "unused"},
	}
	got := tr.TrimTransitions(subs).Actions()
	want := []string{"wantCrossing", "crossing", "cCrss"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Actions() after trim mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"pWantCrss", "pCrss", "cCrss"}, tr.Actions()); diff != "" {
		t.Errorf("source trace changed (-want +got):\n%s", diff)
	}
}

func TestSave(t *testing.T) {
	tr := mustParse(t, "pedestrian.txt")
	dir := t.TempDir()

	rendered := filepath.Join(dir, "trace.txt")
	if err := tr.Save(rendered); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	raw := filepath.Join(dir, "trace.raw")
	if err := tr.SaveRaw(raw); err != nil {
		t.Fatalf("SaveRaw() error = %v", err)
	}

	b, err := os.ReadFile(rendered)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(tr.String(), string(b)); diff != "" {
		t.Errorf("saved rendering mismatch (-want +got):\n%s", diff)
	}
	loaded, err := Load(raw)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !loaded.Equal(tr) {
		t.Error("trace loaded from raw file differs")
	}
}
