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
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// renderCmd groups the diagram generators
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render diagrams of a model",
}

func init() {
	rootCmd.AddCommand(renderCmd)
}

// outputWriter returns the file named by the command's --output flag, or
// the command's standard output when the flag is empty. done must be
// called when done.
func outputWriter(cmd *cobra.Command) (w io.Writer, done func() error, err error) {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, nil, err
	}
	if outputPath == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, err
	}
	return file, file.Close, nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
