package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	pyuppaal "github.com/Jack0Chan/PyUPPAAL"
	"github.com/Jack0Chan/PyUPPAAL/internal/config"
	"github.com/Jack0Chan/PyUPPAAL/verifyta"
)

// Lists the orders in which the crossing's channels fire on the way to a
// crossing pedestrian. Needs VERIFYTA_PATH and UPPAAL_TRACER_PATH:
//
//	go run ./example/pedestrian-patterns testdata/crossing.xml
func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: pedestrian-patterns MODEL")
		os.Exit(2)
	}
	client := verifyta.New(os.Getenv(config.VerifytaEnv), verifyta.WithTracer(os.Getenv(config.TracerEnv)))
	m, err := pyuppaal.Load(os.Args[1], pyuppaal.WithClient(client))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	q := pyuppaal.PatternQuery{Focus: []string{"pWantCrss", "pCrss", "cCrss"}, Max: 10}
	for p, err := range m.Patterns(context.Background(), q) {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(strings.Join(p.Actions(), " -> "))
	}
}
