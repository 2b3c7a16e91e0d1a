package pyuppaal

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	internaltest "github.com/Jack0Chan/PyUPPAAL/internal/test"
	"github.com/Jack0Chan/PyUPPAAL/trace"
)

func TestWriteTrace(t *testing.T) {
	pedestrian, err := trace.Parse(internaltest.ArchiveFile(t, "traces.txtar", "pedestrian.txt"))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name  string
		trace *trace.SimTrace
		want  string
	}{
		{
			name:  "one transition",
			trace: pedestrian,
			want: "Path (length = 1):\n" +
				"  [0] Cars.Idle TrafficLights.cRed_pGreen LV1Pedestrian2.Idle\n" +
				"   pWantCrss: LV1Pedestrian2 -> [TrafficLights]\n" +
				"  [1] Cars.Idle TrafficLights._id8 LV1Pedestrian2.CheckTL\n",
		},
		{name: "no trace", want: "No trace.\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			WriteTrace(&buf, tt.trace)
			if diff := cmp.Diff(tt.want, buf.String()); diff != "" {
				t.Errorf("WriteTrace() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWritePatternsEmpty(t *testing.T) {
	var buf bytes.Buffer
	WritePatterns(&buf, nil)
	if got, want := buf.String(), "No patterns found.\n"; got != want {
		t.Errorf("WritePatterns() = %q, want %q", got, want)
	}

	summary := SummarizePatterns(PatternQuery{}, nil, 3)
	b, err := json.Marshal(summary)
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"patterns":[],"count":0,"capped":false,"execution_time_ms":3}`; string(b) != want {
		t.Errorf("json = %s, want %s", b, want)
	}
}

func TestResultStrings(t *testing.T) {
	tests := []struct {
		name             string
		result           interface{ String() string }
		checkContains    []string
		checkNotContains []string
	}{
		{
			name:          "diagnosable",
			result:        Diagnosability{Fault: "f", N: 3, Diagnosable: true},
			checkContains: []string{"Fault f is 3-diagnosable"},
		},
		{
			name:             "not diagnosable",
			result:           Diagnosability{Fault: "f", N: 2, Suffix: []string{"a", "b"}},
			checkContains:    []string{"NOT 2-diagnosable", "suffix a b"},
			checkNotContains: []string{"is 2-diagnosable"},
		},
		{
			name:             "tolerated",
			result:           Tolerance{Tolerated: true, Controls: []string{"c1"}, Confirmed: true},
			checkContains:    []string{"Fault can be tolerated", "[c1]"},
			checkNotContains: []string{"replay"},
		},
		{
			name:          "tolerated without replay",
			result:        Tolerance{Tolerated: true, Controls: []string{"c1"}},
			checkContains: []string{"Fault can be tolerated", "replay did not reach the target"},
		},
		{
			name:          "not tolerated",
			result:        Tolerance{},
			checkContains: []string{"Fault can NOT be tolerated"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.result.String()
			for _, s := range tt.checkContains {
				if !strings.Contains(got, s) {
					t.Errorf("String() = %q, want it to contain %q", got, s)
				}
			}
			for _, s := range tt.checkNotContains {
				if strings.Contains(got, s) {
					t.Errorf("String() = %q, want it not to contain %q", got, s)
				}
			}
		})
	}
}
