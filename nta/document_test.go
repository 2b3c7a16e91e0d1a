package nta

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Jack0Chan/PyUPPAAL/internal/test"
	"github.com/Jack0Chan/PyUPPAAL/trace"
)

func loadCrossing(t *testing.T) *Document {
	t.Helper()
	d, err := Load(test.FixturePath(t, "crossing.xml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return d
}

func monitorTemplate(floor int) Template {
	return Template{
		Name:        "Monitor1",
		Declaration: "clock monitor_clk;",
		Locations: []Location{
			{ID: floor, Pos: Point{0, 200}, Invariant: "monitor_clk<=3"},
			{ID: floor + 1, Pos: Point{300, 200}, Name: "pass"},
		},
		Init:  floor,
		Edges: []Edge{{Source: floor, Target: floor + 1, Guard: "monitor_clk>=1", Sync: "pCrss?"}},
	}
}

func TestLoad(t *testing.T) {
	d := loadCrossing(t)

	if diff := cmp.Diff([]string{"Cars", "TrafficLights", "Pedestrian"}, d.TemplateNames()); diff != "" {
		t.Errorf("TemplateNames() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"E<> LV1Pedestrian2.Crossing"}, d.Queries()); diff != "" {
		t.Errorf("Queries() mismatch (-want +got):\n%s", diff)
	}
	want := []string{"cCrss", "cGreen", "cRed", "cYellow", "pCrss", "pWantCrss"}
	if diff := cmp.Diff(want, d.BroadcastChannels()); diff != "" {
		t.Errorf("BroadcastChannels() mismatch (-want +got):\n%s", diff)
	}
	processes, err := d.SystemProcesses()
	if err != nil {
		t.Fatalf("SystemProcesses() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Cars", "TrafficLights", "LV1Pedestrian2"}, processes); diff != "" {
		t.Errorf("SystemProcesses() mismatch (-want +got):\n%s", diff)
	}
	if got, err := d.NextLocationID(); err != nil || got != 8 {
		t.Errorf("NextLocationID() = %d, %v, want 8", got, err)
	}
}

func TestTemplate(t *testing.T) {
	got, err := loadCrossing(t).Template("TrafficLights")
	if err != nil {
		t.Fatalf("Template() error = %v", err)
	}
	want := Template{
		Name: "TrafficLights",
		Locations: []Location{
			{ID: 2, Pos: Point{-119, -8}, Name: "cRed_pGreen", Invariant: "tTL <= 55"},
			{ID: 3, Pos: Point{85, -8}, Name: "cRed_pYellow"},
			{ID: 4, Pos: Point{-17, 68}, Committed: true},
		},
		Init: 2,
		Edges: []Edge{
			{Source: 2, Target: 4, Sync: "pWantCrss?"},
			{Source: 4, Target: 3, Guard: "tTL >= 55", Update: "tTL = 0"},
			{Source: 3, Target: 2, Sync: "cGreen!", Nails: []Point{{-17, -59}}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Template() mismatch (-want +got):\n%s", diff)
	}

	var docErr *ModelDocumentError
	if _, err := loadCrossing(t).Template("Nope"); !errors.As(err, &docErr) {
		t.Errorf("Template(Nope) error = %v, want *ModelDocumentError", err)
	}
}

func TestWithTemplate(t *testing.T) {
	d := loadCrossing(t)
	floor, err := d.NextLocationID()
	if err != nil {
		t.Fatal(err)
	}

	withMonitor, err := d.WithMonitor(monitorTemplate(floor))
	if err != nil {
		t.Fatalf("WithMonitor() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Cars", "TrafficLights", "Pedestrian"}, d.TemplateNames()); diff != "" {
		t.Errorf("receiver changed (-want +got):\n%s", diff)
	}
	if strings.Contains(d.System(), "Monitor1") {
		t.Errorf("receiver system changed: %q", d.System())
	}
	if !strings.Contains(withMonitor.System(), "system Monitor1, Cars, TrafficLights, LV1Pedestrian2;") {
		t.Errorf("System() = %q", withMonitor.System())
	}

	path := filepath.Join(t.TempDir(), "with-monitor.xml")
	if err := withMonitor.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got, err := reloaded.Template("Monitor1")
	if err != nil {
		t.Fatalf("Template() error = %v", err)
	}
	if diff := cmp.Diff(monitorTemplate(floor), got); diff != "" {
		t.Errorf("saved monitor mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(d.Declaration(), reloaded.Declaration()); diff != "" {
		t.Errorf("declaration changed by save (-want +got):\n%s", diff)
	}
	if names := reloaded.TemplateNames(); names[len(names)-1] != "Monitor1" {
		t.Errorf("monitor not placed after the model templates: %v", names)
	}

	again, err := withMonitor.WithSystemProcess("Monitor1")
	if err != nil {
		t.Fatal(err)
	}
	if again.System() != withMonitor.System() {
		t.Errorf("second WithSystemProcess changed system to %q", again.System())
	}
}

func TestWithTemplateReplacesSameName(t *testing.T) {
	d := loadCrossing(t)
	first, err := d.WithTemplate(monitorTemplate(8))
	if err != nil {
		t.Fatal(err)
	}
	second, err := first.WithTemplate(monitorTemplate(8))
	if err != nil {
		t.Fatalf("replacing a template with its own ids: %v", err)
	}
	if got := len(second.TemplateNames()); got != 4 {
		t.Errorf("got %d templates, want 4", got)
	}
}

func TestWithTemplateIDCollision(t *testing.T) {
	_, err := loadCrossing(t).WithTemplate(monitorTemplate(6))
	var collision *IDCollisionError
	if !errors.As(err, &collision) {
		t.Fatalf("WithTemplate() error = %v, want *IDCollisionError", err)
	}
	if diff := cmp.Diff([]int{6, 7}, collision.IDs); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	valid := monitorTemplate(0)
	tests := []struct {
		name   string
		mutate func(*Template)
	}{
		{name: "no name", mutate: func(t *Template) { t.Name = "" }},
		{name: "no locations", mutate: func(t *Template) { t.Locations = nil }},
		{name: "duplicate id", mutate: func(t *Template) { t.Locations[1].ID = 0 }},
		{name: "missing init", mutate: func(t *Template) { t.Init = 5 }},
		{name: "dangling edge", mutate: func(t *Template) { t.Edges[0].Target = 5 }},
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() of valid template = %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := monitorTemplate(0)
			tt.mutate(&tmpl)
			var docErr *ModelDocumentError
			if err := tmpl.Validate(); !errors.As(err, &docErr) {
				t.Errorf("Validate() = %v, want *ModelDocumentError", err)
			}
		})
	}
}

func TestWithQueries(t *testing.T) {
	d := loadCrossing(t)
	queries := []string{"E<> Monitor0.pass && !Monitor1.pass", "A[] not deadlock"}
	got := d.WithQueries(queries)
	if diff := cmp.Diff(queries, got.Queries()); diff != "" {
		t.Errorf("Queries() mismatch (-want +got):\n%s", diff)
	}
	reparsed, err := Parse(got.Bytes())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff(queries, reparsed.Queries()); diff != "" {
		t.Errorf("Queries() after reparse mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"E<> LV1Pedestrian2.Crossing"}, d.Queries()); diff != "" {
		t.Errorf("receiver queries changed (-want +got):\n%s", diff)
	}
}

func TestParameterSubstitutions(t *testing.T) {
	got, err := loadCrossing(t).ParameterSubstitutions()
	if err != nil {
		t.Fatalf("ParameterSubstitutions() error = %v", err)
	}
	want := trace.Substitutions{"LV1Pedestrian2": {"want": "pWantCrss", "cross": "pCrss"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParameterSubstitutions() mismatch (-want +got):\n%s", diff)
	}
}

func TestParameterSubstitutionsSharedLine(t *testing.T) {
	d, err := Parse([]byte(`<nta><template><name>P</name><parameter>chan &amp;c</parameter><location id="id0"/><init ref="id0"/></template>
<system>// two instances
A = P(a); B = P(b); /* C = P(c); */
system A, B;</system></nta>`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	got, err := d.ParameterSubstitutions()
	if err != nil {
		t.Fatalf("ParameterSubstitutions() error = %v", err)
	}
	want := trace.Substitutions{"A": {"c": "a"}, "B": {"c": "b"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParameterSubstitutions() mismatch (-want +got):\n%s", diff)
	}
}

func TestParameterSubstitutionsErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "no system",
			doc:  `<nta><template><name>P</name><location id="id0"/><init ref="id0"/></template></nta>`,
		},
		{
			name: "unknown template",
			doc:  `<nta><system>p = Q(a); system p;</system></nta>`,
		},
		{
			name: "argument count",
			doc: `<nta><template><name>P</name><parameter>chan &amp;a, chan &amp;b</parameter><location id="id0"/><init ref="id0"/></template>
<system>p = P(x);
system p;</system></nta>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse([]byte(tt.doc))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			var docErr *ModelDocumentError
			if _, err := d.ParameterSubstitutions(); !errors.As(err, &docErr) {
				t.Errorf("ParameterSubstitutions() error = %v, want *ModelDocumentError", err)
			}
		})
	}
}

func TestFormalParameters(t *testing.T) {
	tests := []struct {
		parameter string
		want      []string
	}{
		{parameter: "", want: nil},
		{parameter: "broadcast chan &want, broadcast chan &cross", want: []string{"want", "cross"}},
		{parameter: "const int id, int[0,3] &level, urgent chan & go", want: []string{"id", "level", "go"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, FormalParameters(tt.parameter)); diff != "" {
			t.Errorf("FormalParameters(%q) mismatch (-want +got):\n%s", tt.parameter, diff)
		}
	}
}

func TestProcesses(t *testing.T) {
	got, err := loadCrossing(t).Processes()
	if err != nil {
		t.Fatalf("Processes() error = %v", err)
	}
	want := []Process{
		{Name: "Cars", Template: "Cars", Sends: []string{"cCrss"}, Receives: []string{"pCrss"}},
		{Name: "TrafficLights", Template: "TrafficLights", Sends: []string{"cGreen"}, Receives: []string{"pWantCrss"}},
		{Name: "LV1Pedestrian2", Template: "Pedestrian", Sends: []string{"pWantCrss", "pCrss"}, Receives: []string{"cGreen"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Processes() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsOtherRoots(t *testing.T) {
	var docErr *ModelDocumentError
	if _, err := Parse([]byte(`<?xml version="1.0"?><model/>`)); !errors.As(err, &docErr) {
		t.Errorf("Parse() error = %v, want *ModelDocumentError", err)
	}
}
