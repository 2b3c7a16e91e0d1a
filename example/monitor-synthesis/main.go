package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/Jack0Chan/PyUPPAAL/monitor"
	"github.com/Jack0Chan/PyUPPAAL/nta"
	"github.com/Jack0Chan/PyUPPAAL/pattern"
)

//go:embed pedestrian.xml
var pedestrianModel []byte

const reachCrossing = "E<> LV1Pedestrian2.Crossing"

// forbidPattern adds a monitor that passes on the runs whose broadcast
// actions start with actions, and strengthens the query so those runs no
// longer count as witnesses.
func forbidPattern(actions []string) (*nta.Document, error) {
	doc, err := nta.Parse(pedestrianModel)
	if err != nil {
		return nil, err
	}
	floor, err := doc.NextLocationID()
	if err != nil {
		return nil, err
	}
	m := monitor.Observer("Monitor1", monitor.Untimed(actions...), doc.BroadcastChannels(), floor,
		monitor.ObserverOptions{Strict: true, AllPattern: true})
	doc, err = doc.WithMonitor(m)
	if err != nil {
		return nil, err
	}
	return doc.WithQueries([]string{pattern.Strengthen(reachCrossing, []string{m.Name})}), nil
}

func main() {
	doc, err := forbidPattern([]string{"pWantCrss", "pCrss"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	_, _ = os.Stdout.Write(doc.Bytes())
}
