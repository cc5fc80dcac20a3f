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

package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gocarina/gocsv"
	"github.com/penny-vault/pvmetrics/data"
	"github.com/penny-vault/pvmetrics/extract"
	"github.com/rs/zerolog/log"
)

var (
	ErrDuplicateTicker     = errors.New("duplicate ticker in manifest")
	ErrUnsupportedCountry  = errors.New("country is not supported")
	ErrWorkbookNotFound    = errors.New("no workbook found for ticker")
	ErrInvalidManifestLine = errors.New("invalid manifest row")
	ErrBucketMissingBetas  = errors.New("industry bucket is missing stored betas")
)

// ManifestRow describes one company of a bulk upload
type ManifestRow struct {
	Ticker  string `csv:"Ticker" validate:"required"`
	Name    string `csv:"Company Name" validate:"required"`
	Bucket  string `csv:"Industry Bucket"`
	Country string `csv:"Country" validate:"required"`
}

// BulkSummary reports the outcome of a bulk upload
type BulkSummary struct {
	Succeeded int
	Failed    int
	Failures  map[string]string
}

var validate = validator.New()

// ReadManifest parses and validates a manifest CSV. Tickers are upper-cased
// and countries canonicalized; rows with a blank ticker are ignored. A
// missing field or a duplicate ticker rejects the whole manifest. Whether a
// country is supported is decided per row by Bulk.
func ReadManifest(r io.Reader) ([]*ManifestRow, error) {
	var rows []*ManifestRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(rows))
	out := make([]*ManifestRow, 0, len(rows))
	for idx, row := range rows {
		row.Ticker = strings.ToUpper(strings.TrimSpace(row.Ticker))
		row.Name = strings.TrimSpace(row.Name)
		row.Bucket = strings.TrimSpace(row.Bucket)
		row.Country = strings.TrimSpace(row.Country)

		if row.Ticker == "" {
			continue
		}

		if err := validate.Struct(row); err != nil {
			return nil, fmt.Errorf("%w %d: %w", ErrInvalidManifestLine, idx+1, err)
		}

		row.Country = data.Canonical(row.Country)

		if seen[row.Ticker] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTicker, row.Ticker)
		}
		seen[row.Ticker] = true

		out = append(out, row)
	}

	return out, nil
}

// WorkbookPath finds the workbook of ticker in dir: <TICKER>.xlsx or
// <TICKER>-financials.xlsx
func WorkbookPath(dir, ticker string) (string, error) {
	for _, name := range []string{ticker + ".xlsx", ticker + "-financials.xlsx"} {
		fn := filepath.Join(dir, name)
		if info, err := os.Stat(fn); err == nil && !info.IsDir() {
			return fn, nil
		}
	}

	return "", fmt.Errorf("%w: %s in %s", ErrWorkbookNotFound, ticker, dir)
}

// Bulk ingests every company of the manifest. The workbooks are read from the
// manifest's directory. A failing company is logged and counted; the rest of
// the batch continues.
func (ingester *Ingester) Bulk(ctx context.Context, manifestFn string) (*BulkSummary, error) {
	fh, err := os.Open(manifestFn)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	rows, err := ReadManifest(fh)
	if err != nil {
		log.Error().Err(err).Str("Manifest", manifestFn).Msg("invalid manifest")
		return nil, err
	}

	dir := filepath.Dir(manifestFn)
	summary := &BulkSummary{Failures: make(map[string]string)}
	for _, row := range rows {
		if err := ingester.bulkRow(ctx, dir, row); err != nil {
			log.Error().Err(err).Str("Ticker", row.Ticker).Str("Company", row.Name).Msg("bulk upload failed for company")
			summary.Failed++
			summary.Failures[row.Ticker] = err.Error()
			continue
		}
		summary.Succeeded++
	}

	log.Info().Int("Succeeded", summary.Succeeded).Int("Failed", summary.Failed).Msg("bulk upload complete")
	return summary, nil
}

func (ingester *Ingester) bulkRow(ctx context.Context, dir string, row *ManifestRow) error {
	if _, ok := data.CountryAliases[row.Country]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedCountry, row.Country)
	}

	hasBetas, err := ingester.store.BucketHasBetas(ctx, row.Bucket)
	if err != nil {
		return err
	}
	if !hasBetas {
		return fmt.Errorf("%w: %q", ErrBucketMissingBetas, row.Bucket)
	}

	fn, err := WorkbookPath(dir, row.Ticker)
	if err != nil {
		return err
	}

	wb, err := extract.OpenFile(fn)
	if err != nil {
		return err
	}

	country := row.Country
	_, err = ingester.Ingest(ctx, wb, Request{
		Name:    row.Name,
		Ticker:  row.Ticker,
		Country: &country,
		Bucket:  row.Bucket,
	})
	return err
}
