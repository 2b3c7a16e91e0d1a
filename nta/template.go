package nta

import (
	"fmt"
	"strconv"
	"strings"
)

type Point struct {
	X, Y int
}

// Location is a location of a template. Pos only matters for drawing the
// template in the UPPAAL editor.
type Location struct {
	ID          int
	Pos         Point
	Name        string
	Invariant   string
	Committed   bool
	Urgent      bool
	Branchpoint bool
}

// Edge is a transition of a template. Empty labels are omitted.
type Edge struct {
	Source int
	Target int
	Select string
	Guard  string
	Sync   string
	Update string
	Nails  []Point
}

// Template is one automaton of a network.
type Template struct {
	Name        string
	Parameter   string
	Declaration string
	Locations   []Location
	Init        int
	Edges       []Edge
}

// Location returns the location with the given id.
func (t Template) Location(id int) (Location, bool) {
	for _, l := range t.Locations {
		if l.ID == id {
			return l, true
		}
	}
	return Location{}, false
}

// LocationByName returns the first location named name.
func (t Template) LocationByName(name string) (Location, bool) {
	for _, l := range t.Locations {
		if l.Name == name {
			return l, true
		}
	}
	return Location{}, false
}

// IDs returns the location ids of t in declaration order.
func (t Template) IDs() []int {
	ids := make([]int, len(t.Locations))
	for i, l := range t.Locations {
		ids[i] = l.ID
	}
	return ids
}

// Validate checks that location ids are unique and that the initial
// location and every edge end refer to locations of t.
func (t Template) Validate() error {
	element := "template " + t.Name
	if t.Name == "" {
		return &ModelDocumentError{Element: "template", Reason: "template has no name"}
	}
	if len(t.Locations) == 0 {
		return &ModelDocumentError{Element: element, Reason: "template has no locations"}
	}
	seen := make(map[int]bool, len(t.Locations))
	for _, l := range t.Locations {
		if seen[l.ID] {
			return &ModelDocumentError{Element: element, Reason: fmt.Sprintf("duplicate location id%d", l.ID)}
		}
		seen[l.ID] = true
	}
	if !seen[t.Init] {
		return &ModelDocumentError{Element: element, Reason: fmt.Sprintf("initial location id%d is not a location", t.Init)}
	}
	for i, e := range t.Edges {
		if !seen[e.Source] || !seen[e.Target] {
			return &ModelDocumentError{Element: element, Reason: fmt.Sprintf("edge %d (id%d -> id%d) refers to a missing location", i, e.Source, e.Target)}
		}
	}
	return nil
}

func locationRef(id int) string {
	return "id" + strconv.Itoa(id)
}

func parseLocationRef(ref string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(ref, "id"))
	if err != nil || !strings.HasPrefix(ref, "id") {
		return 0, &ModelDocumentError{Element: "location", Reason: fmt.Sprintf("malformed location reference %q", ref)}
	}
	return id, nil
}

func pointAttrs(p Point) []string {
	return []string{"x", strconv.Itoa(p.X), "y", strconv.Itoa(p.Y)}
}

func labelNode(kind, text string, p Point) *node {
	return newNode("label", text, append([]string{"kind", kind}, pointAttrs(p)...)...)
}

func (t Template) node() *node {
	n := newNode("template", "")
	n.append(newNode("name", t.Name))
	if t.Parameter != "" {
		n.append(newNode("parameter", t.Parameter))
	}
	if t.Declaration != "" {
		n.append(newNode("declaration", t.Declaration))
	}

	positions := make(map[int]Point, len(t.Locations))
	for _, l := range t.Locations {
		positions[l.ID] = l.Pos
		if l.Branchpoint {
			n.append(newNode("branchpoint", "", append([]string{"id", locationRef(l.ID)}, pointAttrs(l.Pos)...)...))
			continue
		}
		loc := newNode("location", "", append([]string{"id", locationRef(l.ID)}, pointAttrs(l.Pos)...)...)
		if l.Name != "" {
			loc.append(newNode("name", l.Name, pointAttrs(Point{l.Pos.X - 10, l.Pos.Y - 34})...))
		}
		if l.Invariant != "" {
			loc.append(labelNode("invariant", l.Invariant, Point{l.Pos.X - 10, l.Pos.Y + 17}))
		}
		if l.Urgent {
			loc.append(newNode("urgent", ""))
		}
		if l.Committed {
			loc.append(newNode("committed", ""))
		}
		n.append(loc)
	}
	n.append(newNode("init", "", "ref", locationRef(t.Init)))

	for _, e := range t.Edges {
		src, dst := positions[e.Source], positions[e.Target]
		mid := Point{(src.X + dst.X) / 2, (src.Y + dst.Y) / 2}
		tr := newNode("transition", "")
		tr.append(newNode("source", "", "ref", locationRef(e.Source)))
		tr.append(newNode("target", "", "ref", locationRef(e.Target)))
		labels := []struct {
			kind, text string
			dy         int
		}{
			{"select", e.Select, -51},
			{"guard", e.Guard, -34},
			{"synchronisation", e.Sync, -17},
			{"assignment", e.Update, 0},
		}
		for _, l := range labels {
			if l.text != "" {
				tr.append(labelNode(l.kind, l.text, Point{mid.X + 18, mid.Y + l.dy}))
			}
		}
		for _, p := range e.Nails {
			tr.append(newNode("nail", "", pointAttrs(p)...))
		}
		n.append(tr)
	}
	return n
}

func templateFromNode(n *node) (Template, error) {
	t := Template{
		Name:        strings.TrimSpace(n.childText("name")),
		Parameter:   n.childText("parameter"),
		Declaration: n.childText("declaration"),
	}
	for _, c := range n.Children {
		if c.name() != "location" && c.name() != "branchpoint" {
			continue
		}
		id, err := parseLocationRef(c.attr("id"))
		if err != nil {
			return Template{}, err
		}
		l := Location{
			ID:          id,
			Pos:         parsePoint(c),
			Name:        strings.TrimSpace(c.childText("name")),
			Committed:   c.child("committed") != nil,
			Urgent:      c.child("urgent") != nil,
			Branchpoint: c.name() == "branchpoint",
		}
		for _, label := range c.children("label") {
			if label.attr("kind") == "invariant" {
				l.Invariant = label.Text
			}
		}
		t.Locations = append(t.Locations, l)
	}
	if init := n.child("init"); init != nil {
		id, err := parseLocationRef(init.attr("ref"))
		if err != nil {
			return Template{}, err
		}
		t.Init = id
	}
	for _, c := range n.children("transition") {
		e, err := edgeFromNode(c)
		if err != nil {
			return Template{}, err
		}
		t.Edges = append(t.Edges, e)
	}
	return t, nil
}

func edgeFromNode(n *node) (Edge, error) {
	var (
		e   Edge
		err error
	)
	if e.Source, err = parseLocationRef(n.child("source").attrOrEmpty("ref")); err != nil {
		return Edge{}, err
	}
	if e.Target, err = parseLocationRef(n.child("target").attrOrEmpty("ref")); err != nil {
		return Edge{}, err
	}
	for _, label := range n.children("label") {
		switch label.attr("kind") {
		case "select":
			e.Select = label.Text
		case "guard":
			e.Guard = label.Text
		case "synchronisation":
			e.Sync = label.Text
		case "assignment":
			e.Update = label.Text
		}
	}
	for _, nail := range n.children("nail") {
		e.Nails = append(e.Nails, parsePoint(nail))
	}
	return e, nil
}

// attrOrEmpty tolerates a missing element so callers report the malformed
// reference instead of panicking.
func (n *node) attrOrEmpty(name string) string {
	if n == nil {
		return ""
	}
	return n.attr(name)
}

func parsePoint(n *node) Point {
	x, _ := strconv.Atoi(n.attr("x"))
	y, _ := strconv.Atoi(n.attr("y"))
	return Point{x, y}
}
