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
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/penny-vault/pvmetrics/extract"
	"github.com/penny-vault/pvmetrics/ingest"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const manifestName = "manifest.csv"

var (
	errIngestArgs   = errors.New("either a workbook and --company or --manifest is required")
	errIngestFailed = errors.New("ingest failed")
)

var (
	ingestCompany  string
	ingestCountry  string
	ingestBucket   string
	ingestManifest string
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [workbook]",
	Short: "Load a financial statement workbook",
	Long: `Ingest reads a workbook with the Income, Ratios, Balance-Sheet and
Cash-Flow statements (each with an Annual and TTM sheet), stores the raw
series for the company and recomputes every derived metric.

A single workbook is named on the command line together with the company it
belongs to:

    pvmetrics ingest AAPL.xlsx --company "Apple Inc. (AAPL)" --bucket Technology

A whole directory of workbooks is loaded with a manifest (a CSV with the
columns Ticker, Company Name, Industry Bucket and Country). When a directory
is given the manifest is read from manifest.csv inside it:

    pvmetrics ingest --manifest ./workbooks`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if ingestManifest == "" && (len(args) == 0 || ingestCompany == "") {
			return errIngestArgs
		}

		myLibrary, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer myLibrary.Close()

		ingester := ingest.New(myLibrary, newEngine(myLibrary))

		if ingestManifest != "" {
			return bulkIngest(ctx, ingester, ingestManifest)
		}

		wb, err := extract.OpenFile(args[0])
		if err != nil {
			return fmt.Errorf("could not open workbook %s: %w", args[0], err)
		}

		var country *string
		if ingestCountry != "" {
			country = &ingestCountry
		}

		result, err := ingester.IngestIdentity(ctx, wb, ingestCompany, country, ingestBucket)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", errIngestFailed, args[0], err)
		}

		log.Info().Int64("CompanyID", result.CompanyID).Int("NumMetrics", result.Metrics).Int("NumPoints", result.Points).Msg("workbook ingested")
		if result.EngineErr != nil {
			return fmt.Errorf("derived metrics for company %d: %w", result.CompanyID, result.EngineErr)
		}

		return nil
	},
}

func bulkIngest(ctx context.Context, ingester *ingest.Ingester, manifest string) error {
	if info, err := os.Stat(manifest); err == nil && info.IsDir() {
		manifest = filepath.Join(manifest, manifestName)
	}

	summary, err := ingester.Bulk(ctx, manifest)
	if err != nil {
		return fmt.Errorf("%w: manifest %s: %w", errIngestFailed, manifest, err)
	}

	keyword := func(s string) string {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Render(s)
	}

	body := fmt.Sprintf("%s\n\nSucceeded: %s\nFailed: %s",
		lipgloss.NewStyle().Bold(true).Render("BULK INGEST"),
		keyword(fmt.Sprintf("%d", summary.Succeeded)),
		keyword(fmt.Sprintf("%d", summary.Failed)),
	)

	for ticker, msg := range summary.Failures {
		body += fmt.Sprintf("\n\n%s: %s", keyword(ticker), msg)
	}

	fmt.Println(
		lipgloss.NewStyle().
			Width(80).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2).
			Render(body),
	)

	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d workbooks", errIngestFailed, summary.Failed, summary.Failed+summary.Succeeded)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestCompany, "company", "", `company identity, e.g. "Apple Inc. (AAPL)"`)
	ingestCmd.Flags().StringVar(&ingestCountry, "country", "", "country of the company (default USA)")
	ingestCmd.Flags().StringVar(&ingestBucket, "bucket", "", "industry bucket the company belongs to")
	ingestCmd.Flags().StringVar(&ingestManifest, "manifest", "", "manifest file or directory for bulk ingestion")
}
