// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var infoMarkdown bool

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display information about the metrics library",
	Long: `Info summarizes the library: the number of companies, groups and stored
records, the coverage of the reference tables and the most recent refresh
runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		myLibrary, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer myLibrary.Close()

		summary, err := myLibrary.Summary(ctx)
		if err != nil {
			return fmt.Errorf("could not create library summary document: %w", err)
		}

		if infoMarkdown {
			fmt.Print(summary)
			return nil
		}

		r, _ := glamour.NewTermRenderer(
			// detect background color and pick either the default dark or light theme
			glamour.WithAutoStyle(),
			// wrap output at specific width (default is 80)
			glamour.WithWordWrap(80),
		)

		out, err := r.Render(summary)
		if err != nil {
			return fmt.Errorf("could not render summary document: %w", err)
		}

		fmt.Print(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().BoolVar(&infoMarkdown, "markdown", false, "print the summary as plain markdown")
}
