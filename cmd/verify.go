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
	"strings"

	"github.com/spf13/cobra"

	"github.com/Jack0Chan/PyUPPAAL/verifyta"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify MODEL",
	Short: "Check the queries of a model",
	Long: `Run verifyta on the queries stored in the model and report each formula.
With --trace the counter-example or witness is stored at the given .xtr or .xml path.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tracePath, err := cmd.Flags().GetString("trace")
		if err != nil {
			return err
		}
		extra, err := cmd.Flags().GetString("options")
		if err != nil {
			return err
		}

		var res verifyta.Result
		if tracePath != "" {
			opts := append(current.cfg.VerifyArgs(), strings.Fields(extra)...)
			res, err = current.client.VerifyWithTrace(cmd.Context(), args[0], tracePath, opts...)
		} else {
			m, loadErr := current.load(args[0])
			if loadErr != nil {
				return loadErr
			}
			res, err = m.Verify(cmd.Context(), strings.Fields(extra)...)
		}
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		for i, ok := range res.Formulas {
			if ok {
				_, _ = fmt.Fprintf(w, "Formula %d is satisfied.\n", i+1)
			} else {
				_, _ = fmt.Fprintf(w, "Formula %d is NOT satisfied.\n", i+1)
			}
		}
		if res.TracePath != "" {
			_, _ = fmt.Fprintf(w, "Trace written to %s\n", res.TracePath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().String("trace", "", "store the trace verifyta generates at this .xtr or .xml path")
	verifyCmd.Flags().String("options", "", "extra verifyta options, such as \"-o 1\"")
}
