package nta

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/Jack0Chan/PyUPPAAL/trace"
)

var (
	systemLine      = regexp.MustCompile(`(?m)^(\s*system\s+)([^;]*);`)
	instantiation   = regexp.MustCompile(`(?s)^\s*([A-Za-z_]\w*)\s*(?:\([^)]*\))?\s*=\s*([A-Za-z_]\w*)\s*\((.*)\)\s*$`)
	comment         = regexp.MustCompile(`(?s)//[^\n]*|/\*.*?\*/`)
	broadcastChan   = regexp.MustCompile(`broadcast\s+chan\s+([^;]*);`)
	systemSeparator = regexp.MustCompile(`[\s,<]+`)
)

// SystemProcesses returns the names listed by the system statement.
func (d *Document) SystemProcesses() ([]string, error) {
	m := systemLine.FindStringSubmatch(d.System())
	if m == nil {
		return nil, &ModelDocumentError{Element: "system", Reason: "no system statement"}
	}
	var names []string
	for _, name := range systemSeparator.Split(m[2], -1) {
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// WithSystemProcess returns a document whose system statement starts with
// name. The document is returned unchanged when name is already listed.
func (d *Document) WithSystemProcess(name string) (*Document, error) {
	processes, err := d.SystemProcesses()
	if err != nil {
		return nil, err
	}
	if slices.Contains(processes, name) {
		return d, nil
	}
	system := d.System()
	loc := systemLine.FindStringSubmatchIndex(system)
	// loc[3] ends the "system " keyword group.
	updated := system[:loc[3]] + name + ", " + system[loc[3]:]
	return d.WithSystem(updated), nil
}

// WithMonitor adds t and lists it in the system statement.
func (d *Document) WithMonitor(t Template) (*Document, error) {
	out, err := d.WithTemplate(t)
	if err != nil {
		return nil, err
	}
	return out.WithSystemProcess(t.Name)
}

// BroadcastChannels lists the broadcast channels of the global
// declarations, sorted and without array dimensions.
func (d *Document) BroadcastChannels() []string {
	var chans []string
	for _, m := range broadcastChan.FindAllStringSubmatch(d.Declaration(), -1) {
		for _, decl := range splitTopLevel(m[1]) {
			name, _, _ := strings.Cut(decl, "[")
			if name = strings.TrimSpace(name); name != "" {
				chans = append(chans, name)
			}
		}
	}
	slices.Sort(chans)
	return slices.Compact(chans)
}

// FormalParameters returns the parameter names of a template parameter list
// such as "broadcast chan &a, const int id".
func FormalParameters(parameter string) []string {
	var names []string
	for _, decl := range splitTopLevel(parameter) {
		fields := strings.Fields(decl)
		if len(fields) == 0 {
			continue
		}
		name := strings.TrimLeft(fields[len(fields)-1], "&")
		if name == "" && len(fields) > 1 {
			name = fields[len(fields)-2]
		}
		names = append(names, name)
	}
	return names
}

// Instance is one process instantiation of the system section.
type Instance struct {
	Name      string
	Template  string
	Arguments []string
}

func (d *Document) instances() []Instance {
	var out []Instance
	for _, stmt := range strings.Split(comment.ReplaceAllString(d.System(), ""), ";") {
		if m := instantiation.FindStringSubmatch(stmt); m != nil {
			out = append(out, Instance{Name: m[1], Template: m[2], Arguments: splitTopLevel(m[3])})
		}
	}
	return out
}

// ParameterSubstitutions maps every instantiated process to its formal to
// actual parameter bindings.
func (d *Document) ParameterSubstitutions() (trace.Substitutions, error) {
	if d.root.child("system") == nil {
		return nil, &ModelDocumentError{Element: "system", Reason: "document has no system section"}
	}
	subs := make(trace.Substitutions)
	for _, inst := range d.instances() {
		bindings, err := d.bindings(inst)
		if err != nil {
			return nil, err
		}
		subs[inst.Name] = bindings
	}
	return subs, nil
}

func (d *Document) bindings(inst Instance) (map[string]string, error) {
	t, err := d.Template(inst.Template)
	if err != nil {
		return nil, &ModelDocumentError{Element: "template " + inst.Template, Reason: fmt.Sprintf("instantiated by %s but not declared", inst.Name)}
	}
	formals := FormalParameters(t.Parameter)
	if len(formals) != len(inst.Arguments) {
		return nil, &ModelDocumentError{
			Element: "system",
			Reason:  fmt.Sprintf("%s passes %d arguments to %s, which takes %d", inst.Name, len(inst.Arguments), inst.Template, len(formals)),
		}
	}
	bindings := make(map[string]string, len(formals))
	for i, f := range formals {
		bindings[f] = inst.Arguments[i]
	}
	return bindings, nil
}

// Process is a running process of the system with the channels it sends
// and receives on, named as bound at instantiation.
type Process struct {
	Name     string
	Template string
	Sends    []string
	Receives []string
}

// Processes resolves the system statement into processes.
func (d *Document) Processes() ([]Process, error) {
	names, err := d.SystemProcesses()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]Instance)
	for _, inst := range d.instances() {
		byName[inst.Name] = inst
	}

	var out []Process
	for _, name := range names {
		inst, ok := byName[name]
		var bindings map[string]string
		if ok {
			if bindings, err = d.bindings(inst); err != nil {
				return nil, err
			}
		} else {
			inst = Instance{Name: name, Template: name}
		}
		t, err := d.Template(inst.Template)
		if err != nil {
			return nil, err
		}
		p := Process{Name: name, Template: inst.Template}
		for _, e := range t.Edges {
			sync := strings.TrimSpace(e.Sync)
			if sync == "" {
				continue
			}
			channel := sync[:len(sync)-1]
			if actual, ok := bindings[channel]; ok {
				channel = actual
			}
			switch sync[len(sync)-1] {
			case '!':
				if !slices.Contains(p.Sends, channel) {
					p.Sends = append(p.Sends, channel)
				}
			case '?':
				if !slices.Contains(p.Receives, channel) {
					p.Receives = append(p.Receives, channel)
				}
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// splitTopLevel splits s on commas that are not nested in brackets or
// parentheses and trims the parts.
func splitTopLevel(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}
