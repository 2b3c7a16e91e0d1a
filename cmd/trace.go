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

	"github.com/spf13/cobra"

	pyuppaal "github.com/Jack0Chan/PyUPPAAL"
	"github.com/Jack0Chan/PyUPPAAL/trace"
)

// traceCmd represents the trace command
var traceCmd = &cobra.Command{
	Use:   "trace MODEL XTR",
	Short: "Decode a counter-example trace",
	Long: `Decode the .xtr trace verifyta wrote for MODEL with the trace decoder and print it.
Use --focus to keep only the transitions on some channels.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := current.load(args[0])
		if err != nil {
			return err
		}
		t, err := m.LoadTrace(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		return printTrace(cmd, t)
	},
}

// traceParseCmd represents the trace parse command
var traceParseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Parse a trace already decoded to text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := trace.Load(args[0])
		if err != nil {
			return err
		}
		return printTrace(cmd, t)
	},
}

func printTrace(cmd *cobra.Command, t *trace.SimTrace) error {
	focus, err := cmd.Flags().GetString("focus")
	if err != nil {
		return err
	}
	path, err := cmd.Flags().GetBool("path")
	if err != nil {
		return err
	}
	if actions := list(focus); len(actions) > 0 {
		t = t.FilterByActions(actions)
	}

	writer, done, err := outputWriter(cmd)
	if err != nil {
		return err
	}
	defer done()
	if path {
		pyuppaal.WriteTrace(writer, t)
		return nil
	}
	_, err = fmt.Fprint(writer, t.String())
	return err
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.AddCommand(traceParseCmd)

	for _, c := range []*cobra.Command{traceCmd, traceParseCmd} {
		c.Flags().String("focus", "", "comma separated channels to keep")
		c.Flags().Bool("path", false, "print one line per transition instead of the full states")
		c.Flags().StringP("output", "o", "", "write the trace to a file")
	}
}
