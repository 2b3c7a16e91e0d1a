// Package mermaid renders the communication structure of a network of
// timed automata as a Mermaid flowchart.
package mermaid

import (
	"fmt"
	"io"
	"strings"

	"github.com/Jack0Chan/PyUPPAAL/nta"
)

type options struct {
	exclude  []string
	separate bool
	fenced   bool
}

// Option configures RenderCommunicationGraph.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) {
	f(o)
}

// WithoutProcesses leaves the named processes and their flows out.
func WithoutProcesses(names ...string) Option {
	return optionFunc(func(o *options) {
		o.exclude = append(o.exclude, names...)
	})
}

// WithSeparateEdges draws one edge per channel instead of one per pair of
// processes.
func WithSeparateEdges() Option {
	return optionFunc(func(o *options) {
		o.separate = true
	})
}

// WithMarkdownFence wraps the diagram in a ```mermaid code block.
func WithMarkdownFence() Option {
	return optionFunc(func(o *options) {
		o.fenced = true
	})
}

// RenderCommunicationGraph writes a Mermaid `graph TD` definition with an
// edge from each process to each process that receives what it sends,
// labelled with the channels. Processes without any edge are drawn as
// lone nodes.
//
// Example:
//
//	processes, err := doc.Processes()
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := mermaid.RenderCommunicationGraph(processes, os.Stdout); err != nil {
//		log.Fatal(err)
//	}
func RenderCommunicationGraph(processes []nta.Process, writer io.Writer, opts ...Option) error {
	o := &options{}
	for _, opt := range opts {
		opt.apply(o)
	}
	g := analyze(processes).without(o.exclude...)

	var sb strings.Builder
	if o.fenced {
		sb.WriteString("```mermaid\n")
	}
	sb.WriteString("graph TD\n")
	if o.separate {
		for _, f := range g.flows {
			writeEdge(&sb, f.from, f.channel, f.to)
		}
	} else {
		for _, l := range g.links() {
			writeEdge(&sb, l.from, strings.Join(l.channels, ","), l.to)
		}
	}
	for _, p := range g.isolated() {
		sb.WriteString(p + "\n")
	}
	if o.fenced {
		sb.WriteString("```\n")
	}

	_, err := writer.Write([]byte(sb.String()))

	return err
}

func writeEdge(sb *strings.Builder, from, label, to string) {
	sb.WriteString(fmt.Sprintf("%s--%s-->%s\n", from, label, to))
}
