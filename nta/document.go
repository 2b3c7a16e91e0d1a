// Package nta reads and writes UPPAAL network-of-timed-automata documents.
//
// A Document is immutable: every With method returns a new Document and
// leaves the receiver untouched, so one loaded model can back any number of
// concurrent analyses.
package nta

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

const defaultHeader = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE nta PUBLIC '-//Uppaal Team//DTD Flat System 1.1//EN' 'http://www.it.uu.se/research/group/darts/uppaal/flat-1_2.dtd'>`

type Document struct {
	header string
	root   *node
}

// Load reads the model document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model %s: %w", path, err)
	}
	return d, nil
}

// Parse decodes a model document.
func Parse(data []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var header []string
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, &ModelDocumentError{Element: "nta", Reason: "document has no root element"}
		}
		if err != nil {
			return nil, err
		}
		switch tok := tok.(type) {
		case xml.ProcInst:
			header = append(header, fmt.Sprintf("<?%s %s?>", tok.Target, tok.Inst))
		case xml.Directive:
			header = append(header, fmt.Sprintf("<!%s>", tok))
		case xml.StartElement:
			root := &node{}
			if err := dec.DecodeElement(root, &tok); err != nil {
				return nil, err
			}
			if root.name() != "nta" {
				return nil, &ModelDocumentError{Element: "nta", Reason: fmt.Sprintf("root element is <%s>", root.name())}
			}
			root.normalize()
			h := strings.Join(header, "\n")
			if h == "" {
				h = defaultHeader
			}
			return &Document{header: h, root: root}, nil
		}
	}
}

// Bytes serialises the document.
func (d *Document) Bytes() []byte {
	var b strings.Builder
	b.WriteString(d.header)
	b.WriteString("\n")
	d.root.write(&b, 0)
	return []byte(b.String())
}

// Save writes the document to path.
func (d *Document) Save(path string) error {
	if err := os.WriteFile(path, d.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to save model %s: %w", path, err)
	}
	return nil
}

func (d *Document) clone() *Document {
	return &Document{header: d.header, root: d.root.clone()}
}

func (d *Document) Declaration() string {
	return d.root.childText("declaration")
}

func (d *Document) System() string {
	return d.root.childText("system")
}

// Queries returns the formulas of the query section.
func (d *Document) Queries() []string {
	qs := d.root.child("queries")
	if qs == nil {
		return nil
	}
	var out []string
	for _, q := range qs.children("query") {
		out = append(out, q.childText("formula"))
	}
	return out
}

func (d *Document) templateNodes() []*node {
	return d.root.children("template")
}

func (d *Document) TemplateNames() []string {
	var names []string
	for _, t := range d.templateNodes() {
		names = append(names, strings.TrimSpace(t.childText("name")))
	}
	return names
}

// Template returns the template called name.
func (d *Document) Template(name string) (Template, error) {
	for _, n := range d.templateNodes() {
		if strings.TrimSpace(n.childText("name")) == name {
			return templateFromNode(n)
		}
	}
	return Template{}, &ModelDocumentError{Element: "template " + name, Reason: "no such template"}
}

func (d *Document) locationIDs(skip string) (map[int]string, error) {
	ids := make(map[int]string)
	for _, n := range d.templateNodes() {
		name := strings.TrimSpace(n.childText("name"))
		if name == skip {
			continue
		}
		for _, c := range n.Children {
			if c.name() != "location" && c.name() != "branchpoint" {
				continue
			}
			id, err := parseLocationRef(c.attr("id"))
			if err != nil {
				return nil, err
			}
			ids[id] = name
		}
	}
	return ids, nil
}

// MaxLocationID is the largest location id used by any template, or -1 for
// a document without locations.
func (d *Document) MaxLocationID() (int, error) {
	ids, err := d.locationIDs("")
	if err != nil {
		return 0, err
	}
	maxID := -1
	for id := range ids {
		maxID = max(maxID, id)
	}
	return maxID, nil
}

// NextLocationID is the id floor for new templates.
func (d *Document) NextLocationID() (int, error) {
	maxID, err := d.MaxLocationID()
	if err != nil {
		return 0, err
	}
	return maxID + 1, nil
}

// WithTemplate returns a document holding t. A template with the same name
// is replaced; otherwise t follows the last template. Ids of t must not be
// used by any other template.
func (d *Document) WithTemplate(t Template) (*Document, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	used, err := d.locationIDs(t.Name)
	if err != nil {
		return nil, err
	}
	var collisions []int
	for _, id := range t.IDs() {
		if _, ok := used[id]; ok {
			collisions = append(collisions, id)
		}
	}
	if len(collisions) > 0 {
		return nil, &IDCollisionError{Template: t.Name, IDs: collisions}
	}

	out := d.clone()
	tn := t.node()
	children := out.root.Children
	for i, c := range children {
		if c.name() == "template" && strings.TrimSpace(c.childText("name")) == t.Name {
			children[i] = tn
			return out, nil
		}
	}
	at := 0
	for i, c := range children {
		if c.name() == "template" || c.name() == "declaration" {
			at = i + 1
		}
	}
	out.root.Children = slices.Insert(children, at, tn)
	return out, nil
}

// WithoutTemplate returns a document without the template called name.
func (d *Document) WithoutTemplate(name string) *Document {
	out := d.clone()
	out.root.Children = slices.DeleteFunc(out.root.Children, func(c *node) bool {
		return c.name() == "template" && strings.TrimSpace(c.childText("name")) == name
	})
	return out
}

// WithQueries replaces the query section.
func (d *Document) WithQueries(queries []string) *Document {
	out := d.clone()
	out.root.Children = slices.DeleteFunc(out.root.Children, func(c *node) bool {
		return c.name() == "queries"
	})
	qs := newNode("queries", "")
	for _, q := range queries {
		qs.append(newNode("query", "").append(newNode("formula", q), newNode("comment", "")))
	}
	out.root.append(qs)
	return out
}

// WithDeclaration replaces the global declarations.
func (d *Document) WithDeclaration(text string) *Document {
	return d.withSection("declaration", text, 0)
}

// WithSystem replaces the system section.
func (d *Document) WithSystem(text string) *Document {
	at := len(d.root.Children)
	for i, c := range d.root.Children {
		if c.name() == "queries" {
			at = i
			break
		}
	}
	return d.withSection("system", text, at)
}

func (d *Document) withSection(name, text string, at int) *Document {
	out := d.clone()
	if c := out.root.child(name); c != nil {
		c.Text = text
		return out
	}
	out.root.Children = slices.Insert(out.root.Children, at, newNode(name, text))
	return out
}
