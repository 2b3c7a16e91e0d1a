package mermaid

import (
	"slices"

	"github.com/Jack0Chan/PyUPPAAL/nta"
)

type communicationGraph struct {
	participants []string
	flows        []flow
}

// flow is one channel over which from can reach to.
type flow struct {
	from    string
	to      string
	channel string
}

// link groups the channels of all flows between one pair of processes.
type link struct {
	from     string
	to       string
	channels []string
}

// analyze connects every sender of a channel to every other process that
// receives on it, in the order of the system statement.
func analyze(processes []nta.Process) communicationGraph {
	g := communicationGraph{participants: make([]string, 0, len(processes))}
	for _, p := range processes {
		g.participants = append(g.participants, p.Name)
	}
	for _, sender := range processes {
		for _, channel := range sender.Sends {
			for _, receiver := range processes {
				if receiver.Name == sender.Name || !slices.Contains(receiver.Receives, channel) {
					continue
				}
				g.flows = append(g.flows, flow{from: sender.Name, to: receiver.Name, channel: channel})
			}
		}
	}
	return g
}

// without drops the flows from or to any of names.
func (g communicationGraph) without(names ...string) communicationGraph {
	out := communicationGraph{}
	for _, p := range g.participants {
		if !slices.Contains(names, p) {
			out.participants = append(out.participants, p)
		}
	}
	for _, f := range g.flows {
		if !slices.Contains(names, f.from) && !slices.Contains(names, f.to) {
			out.flows = append(out.flows, f)
		}
	}
	return out
}

// isolated lists the participants that take part in no flow.
func (g communicationGraph) isolated() []string {
	var out []string
	for _, p := range g.participants {
		linked := slices.ContainsFunc(g.flows, func(f flow) bool { return f.from == p || f.to == p })
		if !linked {
			out = append(out, p)
		}
	}
	return out
}

// links merges flows between the same pair of processes. Pairs keep the
// order of their first flow; channels are sorted.
func (g communicationGraph) links() []link {
	var out []link
	index := make(map[[2]string]int)
	for _, f := range g.flows {
		key := [2]string{f.from, f.to}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, link{from: f.from, to: f.to})
		}
		out[i].channels = append(out[i].channels, f.channel)
	}
	for i := range out {
		slices.Sort(out[i].channels)
		out[i].channels = slices.Compact(out[i].channels)
	}
	return out
}
