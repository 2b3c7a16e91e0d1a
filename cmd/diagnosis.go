/*
Copyright © 2025 Jack0Chan

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	pyuppaal "github.com/Jack0Chan/PyUPPAAL"
	"github.com/Jack0Chan/PyUPPAAL/trace"
)

// identifyCmd represents the identify command
var identifyCmd = &cobra.Command{
	Use:   "identify MODEL",
	Short: "Check whether an observation suffix identifies a fault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := stringFlags(cmd.Flags(), "fault", "suffix", "observable", "unobservable")
		if err != nil {
			return err
		}
		fault, suffix, observable, unobservable := v[0], v[1], v[2], v[3]

		m, err := current.load(args[0])
		if err != nil {
			return err
		}
		res, err := m.FaultIdentification(cmd.Context(), list(suffix), fault, list(observable), list(unobservable))
		if err != nil {
			return err
		}
		return report(cmd, res, res.CounterExample)
	},
}

// diagnoseCmd represents the diagnose command
var diagnoseCmd = &cobra.Command{
	Use:   "diagnose MODEL",
	Short: "Check whether a fault is diagnosable within n observations",
	Long: `Check every sequence of n observable actions that can follow the fault. The fault is
n-diagnosable when each of them identifies it. The sweep stops at the first counter-example.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := stringFlags(cmd.Flags(), "fault", "observable", "unobservable")
		if err != nil {
			return err
		}
		fault, observable, unobservable := v[0], v[1], v[2]
		n, err := cmd.Flags().GetInt("n")
		if err != nil {
			return err
		}

		m, err := current.load(args[0])
		if err != nil {
			return err
		}
		res, err := m.FaultDiagnosability(cmd.Context(), fault, n, list(observable), list(unobservable))
		if err != nil {
			return err
		}
		return report(cmd, res, res.CounterExample)
	},
}

// toleranceCmd represents the tolerance command
var toleranceCmd = &cobra.Command{
	Use:   "tolerance MODEL",
	Short: "Search a control sequence that reaches a target after identified faults",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		v, err := stringFlags(flags, "target", "identified", "safety", "faults", "controls")
		if err != nil {
			return err
		}
		target, identified, safety, faults, controls := v[0], v[1], v[2], v[3], v[4]
		length, err := flags.GetInt("length")
		if err != nil {
			return err
		}

		m, err := current.load(args[0])
		if err != nil {
			return err
		}
		res, err := m.FaultTolerance(cmd.Context(), target, list(identified), list(safety), list(faults), list(controls), length)
		if err != nil {
			return err
		}
		return report(cmd, res, res.Witness)
	},
}

// report prints res as a sentence, or as JSON with --json, followed by t
// when --show-trace is set.
func report(cmd *cobra.Command, res fmt.Stringer, t *trace.SimTrace) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	showTrace, err := cmd.Flags().GetBool("show-trace")
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(w, res)
	}
	_, _ = fmt.Fprintln(w, res)
	if showTrace && t != nil {
		writeTrace(w, t)
	}
	return nil
}

// stringFlags returns the values of the named string flags, in order.
func stringFlags(flags *pflag.FlagSet, names ...string) ([]string, error) {
	values := make([]string, len(names))
	for i, name := range names {
		v, err := flags.GetString(name)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func writeTrace(w io.Writer, t *trace.SimTrace) {
	_, _ = fmt.Fprintln(w, "")
	pyuppaal.WriteTrace(w, t)
}

func init() {
	identifyCmd.Flags().String("fault", "", "unobservable fault action")
	identifyCmd.Flags().String("suffix", "", "comma separated observed suffix")

	diagnoseCmd.Flags().String("fault", "", "unobservable fault action")
	diagnoseCmd.Flags().IntP("n", "n", 1, "suffix length")

	for _, c := range []*cobra.Command{identifyCmd, diagnoseCmd} {
		c.Flags().String("observable", "", "comma separated observable actions")
		c.Flags().String("unobservable", "", "comma separated unobservable actions")
	}

	toleranceCmd.Flags().String("target", "", "state formula to reach, such as Plant.Safe")
	toleranceCmd.Flags().String("identified", "", "comma separated identified faults, in order")
	toleranceCmd.Flags().String("safety", "", "comma separated protecting actions sent after identification")
	toleranceCmd.Flags().String("faults", "", "comma separated fault actions")
	toleranceCmd.Flags().String("controls", "", "comma separated control actions")
	toleranceCmd.Flags().Int("length", 1, "maximum number of control actions")

	for _, c := range []*cobra.Command{identifyCmd, diagnoseCmd, toleranceCmd} {
		c.Flags().Bool("json", false, "print the result as JSON")
		c.Flags().Bool("show-trace", false, "print the counter-example or witness trace")
		rootCmd.AddCommand(c)
	}
}
