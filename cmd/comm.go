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
	"github.com/spf13/cobra"

	"github.com/Jack0Chan/PyUPPAAL/internal/mermaid"
)

// commCmd represents the comm command
var commCmd = &cobra.Command{
	Use:   "comm MODEL",
	Short: "Generate a Mermaid communication graph",
	Long: `Analyze a UPPAAL model and emit a Mermaid flowchart with an edge from every process to every
process that receives what it sends, labelled with the channels.
Provide the model file as the argument and write the result to stdout or to a file via -o/--output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exclude, err := cmd.Flags().GetString("exclude")
		if err != nil {
			return err
		}
		separate, err := cmd.Flags().GetBool("separate")
		if err != nil {
			return err
		}
		markdown, err := cmd.Flags().GetBool("markdown")
		if err != nil {
			return err
		}

		m, err := current.load(args[0])
		if err != nil {
			return err
		}
		processes, err := m.Document().Processes()
		if err != nil {
			return err
		}

		writer, done, err := outputWriter(cmd)
		if err != nil {
			return err
		}
		defer done()

		opts := []mermaid.Option{mermaid.WithoutProcesses(list(exclude)...)}
		if separate {
			opts = append(opts, mermaid.WithSeparateEdges())
		}
		if markdown {
			opts = append(opts, mermaid.WithMarkdownFence())
		}
		return mermaid.RenderCommunicationGraph(processes, writer, opts...)
	},
}

func init() {
	renderCmd.AddCommand(commCmd)

	commCmd.Flags().StringP("output", "o", "", "write the generated diagram to a file")
	commCmd.Flags().String("exclude", "", "comma separated processes to leave out")
	commCmd.Flags().Bool("separate", false, "draw one edge per channel")
	commCmd.Flags().Bool("markdown", false, "wrap the diagram in a mermaid code block")
}
