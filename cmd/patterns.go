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
	"time"

	"github.com/spf13/cobra"

	pyuppaal "github.com/Jack0Chan/PyUPPAAL"
)

// patternsCmd represents the patterns command
var patternsCmd = &cobra.Command{
	Use:   "patterns MODEL",
	Short: "Enumerate the distinct counter-example patterns of a query",
	Long: `Repeatedly verify the query, project each counter-example onto the focus channels and
forbid that projection with a monitor until no new counter-example exists.
Without --max the enumeration may not terminate for models with loops.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		query, err := flags.GetString("query")
		if err != nil {
			return err
		}
		focus, err := flags.GetString("focus")
		if err != nil {
			return err
		}
		maxPatterns, err := flags.GetInt("max")
		if err != nil {
			return err
		}
		asJSON, err := flags.GetBool("json")
		if err != nil {
			return err
		}

		m, err := current.load(args[0])
		if err != nil {
			return err
		}
		q := pyuppaal.PatternQuery{Query: query, Focus: list(focus), Max: maxPatterns}

		start := time.Now()
		patterns, err := m.FindAllPatterns(cmd.Context(), q)
		if err != nil {
			return err
		}
		summary := pyuppaal.SummarizePatterns(q, patterns, time.Since(start).Milliseconds())

		writer, done, err := outputWriter(cmd)
		if err != nil {
			return err
		}
		defer done()
		if asJSON {
			return writeJSON(writer, summary)
		}

		pyuppaal.WritePatterns(writer, patterns)
		_, _ = fmt.Fprintln(writer, "\nPattern Enumeration Summary:")
		_, _ = fmt.Fprintf(writer, "Patterns: %d\n", summary.Count)
		if summary.Capped {
			_, _ = fmt.Fprintln(writer, "Stopped at --max; more patterns may exist.")
		}
		_, _ = fmt.Fprintf(writer, "Execution Time: %dms\n", summary.ExecutionTimeMs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(patternsCmd)

	patternsCmd.Flags().String("query", "", "E<> or A[] query; defaults to the first query of the model")
	patternsCmd.Flags().String("focus", "", "comma separated channels patterns are projected onto; defaults to the broadcast channels")
	patternsCmd.Flags().Int("max", 0, "stop after this many patterns (0 means no limit)")
	patternsCmd.Flags().Bool("json", false, "print the summary as JSON")
	patternsCmd.Flags().StringP("output", "o", "", "write the result to a file")
}
