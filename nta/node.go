package nta

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// node is a generic XML element. Documents keep every element they were
// loaded with, so content this package does not interpret is saved back
// unchanged.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []*node    `xml:",any"`
}

func newNode(name, text string, attrs ...string) *node {
	n := &node{XMLName: xml.Name{Local: name}, Text: text}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Local: attrs[i]}, Value: attrs[i+1]})
	}
	return n
}

func (n *node) name() string {
	return n.XMLName.Local
}

func (n *node) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n *node) child(name string) *node {
	for _, c := range n.Children {
		if c.name() == name {
			return c
		}
	}
	return nil
}

func (n *node) children(name string) []*node {
	var out []*node
	for _, c := range n.Children {
		if c.name() == name {
			out = append(out, c)
		}
	}
	return out
}

func (n *node) childText(name string) string {
	if c := n.child(name); c != nil {
		return c.Text
	}
	return ""
}

func (n *node) append(children ...*node) *node {
	n.Children = append(n.Children, children...)
	return n
}

// normalize drops the indentation text of container elements.
func (n *node) normalize() {
	if len(n.Children) > 0 && strings.TrimSpace(n.Text) == "" {
		n.Text = ""
	}
	for _, c := range n.Children {
		c.normalize()
	}
}

func (n *node) clone() *node {
	c := &node{XMLName: n.XMLName, Text: n.Text}
	if n.Attrs != nil {
		c.Attrs = append([]xml.Attr(nil), n.Attrs...)
	}
	if n.Children != nil {
		c.Children = make([]*node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.clone()
		}
	}
	return c
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// write serialises n the way UPPAAL lays out its files: one element per
// line, tab indentation, text content kept verbatim apart from escaping.
func (n *node) write(b *strings.Builder, depth int) {
	indent := strings.Repeat("\t", depth)
	b.WriteString(indent)
	b.WriteString("<" + n.name())
	for _, a := range n.Attrs {
		fmt.Fprintf(b, ` %s="%s"`, a.Name.Local, attrEscaper.Replace(a.Value))
	}
	switch {
	case len(n.Children) == 0 && n.Text == "":
		b.WriteString("/>\n")
	case len(n.Children) == 0:
		b.WriteString(">" + textEscaper.Replace(n.Text) + "</" + n.name() + ">\n")
	default:
		b.WriteString(">")
		if n.Text != "" {
			b.WriteString(textEscaper.Replace(n.Text))
		}
		b.WriteString("\n")
		for _, c := range n.Children {
			c.write(b, depth+1)
		}
		b.WriteString(indent + "</" + n.name() + ">\n")
	}
}
