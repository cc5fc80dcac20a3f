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

	"github.com/hako/durafmt"
	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/pvmetrics/data"
	"github.com/penny-vault/pvmetrics/engine"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var refreshCompany int64

var errRefreshFailed = errors.New("refresh failed")

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh [metric...]",
	Short: "Recompute derived metrics",
	Long: `Refresh recomputes derived metrics from the stored raw series and
reference data. Metrics may be named by key or title ("wacc", "Cost of
Equity"); with no metrics every derived metric is refreshed in dependency
order. Use --company to limit the refresh to a single company.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		metrics := make([]string, 0, len(args))
		for _, name := range args {
			metric, err := data.LookupMetric(name)
			if err != nil {
				return err
			}
			if _, err := engine.StepFor(metric.Key); err != nil {
				return err
			}
			metrics = append(metrics, metric.Key)
		}

		myLibrary, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer myLibrary.Close()

		myEngine := newEngine(myLibrary)

		if refreshCompany != 0 {
			return refreshOne(ctx, myEngine, refreshCompany, metrics)
		}

		var summaries []*engine.RefreshSummary
		if len(metrics) == 0 {
			summaries = myEngine.RefreshEverything(ctx)
		} else {
			for _, metric := range metrics {
				summaries = append(summaries, myEngine.RefreshAll(ctx, metric))
			}
		}

		if failures := printRefreshTable(summaries); failures > 0 {
			return fmt.Errorf("%w: %d failures", errRefreshFailed, failures)
		}

		return nil
	},
}

func refreshOne(ctx context.Context, myEngine *engine.Engine, companyID int64, metrics []string) error {
	subLog := log.With().Int64("CompanyID", companyID).Logger()

	if len(metrics) == 0 {
		if err := myEngine.Run(ctx, companyID); err != nil {
			return fmt.Errorf("%w: company %d: %w", errRefreshFailed, companyID, err)
		}
		subLog.Info().Msg("refreshed all derived metrics")
		return nil
	}

	for _, metric := range metrics {
		if err := myEngine.ComputeAndStore(ctx, metric, companyID); err != nil {
			return fmt.Errorf("%w: %s for company %d: %w", errRefreshFailed, metric, companyID, err)
		}
		subLog.Info().Str("Metric", metric).Msg("refreshed metric")
	}

	return nil
}

// printRefreshTable writes a table of refresh results to stdout and returns
// the total number of failures
func printRefreshTable(summaries []*engine.RefreshSummary) int {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Companies", "Failures", "Run Time"})

	failures := 0
	for _, summary := range summaries {
		failures += summary.Run.Failures
		if summary.Run.Failures == 0 && summary.Err != nil {
			failures++
		}

		table.Append([]string{
			summary.Run.Metric,
			fmt.Sprintf("%d", summary.Run.Companies),
			fmt.Sprintf("%d", summary.Run.Failures),
			durafmt.Parse(summary.Duration).String(),
		})
	}

	table.Render()
	return failures
}

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().Int64Var(&refreshCompany, "company", 0, "only refresh the company with this id")
}
