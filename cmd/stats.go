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
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/pvmetrics/data"
	"github.com/penny-vault/pvmetrics/stats"
	"github.com/spf13/cobra"
)

var (
	statsStart      int
	statsEnd        int
	statsPopulation bool
	statsAbs        bool
	statsMargin     bool
)

var errStatsWindow = errors.New("invalid window")

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats <ticker> <metric>",
	Short: "Summarize a metric over a window of fiscal years",
	Long: `Stats prints the median and standard deviation of year-over-year growth
of a metric between --end and --start (inclusive). With --margin the levels of
the metric are summarized as well and margin growth uses the magnitude of the
previous year as its denominator.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		metric, err := data.LookupMetric(args[1])
		if err != nil {
			return err
		}

		if statsEnd > statsStart {
			return fmt.Errorf("%w: --end %d is after --start %d", errStatsWindow, statsEnd, statsStart)
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
		sample := !statsPopulation

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Statistic", "Median", "Std. Dev."})

		if statsMargin {
			med, sd, fraction := stats.MarginStats(series, statsStart, statsEnd, sample)
			label := "Margin"
			if !fraction {
				label = "Margin (pct points)"
			}
			table.Append([]string{label, formatStat(med), formatStat(sd)})

			med, sd = stats.MarginGrowthStats(series, statsStart, statsEnd, sample)
			table.Append([]string{"Margin Growth", formatStat(med), formatStat(sd)})
		} else {
			policy := stats.DenomSigned
			if statsAbs {
				policy = stats.DenomAbsolute
			}
			med, sd := stats.GrowthStats(series, statsStart, statsEnd, sample, policy)
			table.Append([]string{"Growth", formatStat(med), formatStat(sd)})
		}

		fmt.Println(lipgloss.NewStyle().Bold(true).Render(
			fmt.Sprintf("%s: %s %d-%d", company.Label(), metric.Title, statsEnd, statsStart)))
		table.Render()

		return nil
	},
}

func formatStat(val *float64) string {
	if val == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*val, 'f', 4, 64)
}

func init() {
	rootCmd.AddCommand(statsCmd)

	latest := time.Now().Year() - 1
	statsCmd.Flags().IntVar(&statsStart, "start", latest, "latest fiscal year of the window")
	statsCmd.Flags().IntVar(&statsEnd, "end", latest-9, "earliest fiscal year of the window")
	statsCmd.Flags().BoolVar(&statsPopulation, "population", false, "use the population rather than sample standard deviation")
	statsCmd.Flags().BoolVar(&statsAbs, "abs", false, "divide growth by the magnitude of the previous value")
	statsCmd.Flags().BoolVar(&statsMargin, "margin", false, "treat the metric as a margin")
}
