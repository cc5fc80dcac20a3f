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
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/pvmetrics/data"
	"github.com/penny-vault/pvmetrics/library"
	"github.com/spf13/cobra"
)

var showJSON bool

type seriesDoc struct {
	Company *data.Company `json:"company"`
	Metric  string        `json:"metric"`
	Annual  []data.Point  `json:"annual"`
	TTM     *data.TTM     `json:"ttm,omitempty"`
}

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <ticker> <metric>",
	Short: "Print the stored series of a metric for a company",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		metric, err := data.LookupMetric(args[1])
		if err != nil {
			return err
		}

		myLibrary, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer myLibrary.Close()

		company, series, err := loadSeries(ctx, myLibrary, args[0], metric)
		if err != nil {
			return err
		}

		doc := seriesDoc{
			Company: company,
			Metric:  metric.Key,
			Annual:  series.Points(),
		}

		if metric.HasTTM {
			ttm, ok, err := myLibrary.TTM(ctx, metric.Key, company.ID)
			if err != nil {
				return fmt.Errorf("could not load ttm %s of %s: %w", metric.Key, company.Label(), err)
			}
			if ok {
				doc.TTM = &ttm
			}
		}

		if showJSON {
			out, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("could not encode series: %w", err)
			}
			fmt.Println(string(out))
			return nil
		}

		fmt.Println(lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%s: %s", company.Label(), metric.Title)))

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Fiscal Year", "Value"})
		for _, pt := range doc.Annual {
			table.Append([]string{strconv.Itoa(pt.Year), strconv.FormatFloat(pt.Value, 'f', 4, 64)})
		}
		if doc.TTM != nil {
			table.Append([]string{"TTM " + doc.TTM.AsOf, strconv.FormatFloat(doc.TTM.Value, 'f', 4, 64)})
		}
		table.Render()

		return nil
	},
}

// loadSeries resolves ticker and returns the company with its annual series
// of metric
func loadSeries(ctx context.Context, myLibrary *library.Library, ticker string, metric *data.Metric) (*data.Company, data.Series, error) {
	company, err := myLibrary.CompanyByTicker(ctx, ticker)
	if err != nil {
		return nil, nil, fmt.Errorf("could not find company %s: %w", ticker, err)
	}

	series, err := myLibrary.AnnualSeries(ctx, metric.Key, company.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load %s series of %s: %w", metric.Key, company.Label(), err)
	}

	return company, series, nil
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the series as JSON")
}
