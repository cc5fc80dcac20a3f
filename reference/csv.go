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

package reference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gocarina/gocsv"
	"github.com/penny-vault/pvmetrics/data"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownTable = errors.New("unknown reference table")
)

// Writer persists reference tables. Upsert methods merge by key; Replace
// methods delete every existing row first.
type Writer interface {
	UpsertRiskFreeRates(ctx context.Context, rows []*data.RiskFreeRate) error
	UpsertUSARiskFreeRate(ctx context.Context, year int, rate float64) error
	UpsertImpliedERPs(ctx context.Context, rows []*data.ImpliedERP) error
	UpsertCountryRiskPremiums(ctx context.Context, rows []*data.CountryRiskPremium) error
	UpsertIndexPriceMovements(ctx context.Context, rows []*data.IndexPriceMovement) error
	ReplaceTaxRates(ctx context.Context, rows []*data.TaxRate) error
	ReplaceIndustryBetas(ctx context.Context, rows []*data.IndustryBeta) error
}

const (
	RiskFreeRatesTable       = "risk-free-rates"
	ImpliedERPTable          = "implied-erp"
	CountryRiskPremiumTable  = "country-risk-premium"
	TaxRatesTable            = "tax-rates"
	IndustryBetasTable       = "industry-betas"
	IndexPriceMovementsTable = "index-price-movement"
)

var validate = validator.New()

// Tables lists the reference tables that can be imported
func Tables() []string {
	tables := []string{
		RiskFreeRatesTable,
		ImpliedERPTable,
		CountryRiskPremiumTable,
		TaxRatesTable,
		IndustryBetasTable,
		IndexPriceMovementsTable,
	}
	sort.Strings(tables)
	return tables
}

func decode[T any](r io.Reader) ([]*T, error) {
	var rows []*T
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, err
	}

	for idx, row := range rows {
		if err := validate.Struct(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", idx+1, err)
		}
	}

	return rows, nil
}

// ImportCSV loads a reference table from CSV. Column names match the
// database columns, e.g. year,usa_rf,india_rf,china_rf,japan_rf for the
// risk-free rates. Returns the number of rows imported.
func ImportCSV(ctx context.Context, writer Writer, table string, r io.Reader) (int, error) {
	var (
		count int
		err   error
	)

	switch strings.ToLower(strings.TrimSpace(table)) {
	case RiskFreeRatesTable:
		var rows []*data.RiskFreeRate
		if rows, err = decode[data.RiskFreeRate](r); err == nil {
			count = len(rows)
			err = writer.UpsertRiskFreeRates(ctx, rows)
		}
	case ImpliedERPTable:
		var rows []*data.ImpliedERP
		if rows, err = decode[data.ImpliedERP](r); err == nil {
			count = len(rows)
			err = writer.UpsertImpliedERPs(ctx, rows)
		}
	case CountryRiskPremiumTable:
		var rows []*data.CountryRiskPremium
		if rows, err = decode[data.CountryRiskPremium](r); err == nil {
			count = len(rows)
			err = writer.UpsertCountryRiskPremiums(ctx, rows)
		}
	case TaxRatesTable:
		var rows []*data.TaxRate
		if rows, err = decode[data.TaxRate](r); err == nil {
			for _, row := range rows {
				row.Country = strings.TrimSpace(row.Country)
			}
			count = len(rows)
			err = writer.ReplaceTaxRates(ctx, rows)
		}
	case IndustryBetasTable:
		var rows []*data.IndustryBeta
		if rows, err = decode[data.IndustryBeta](r); err == nil {
			for _, row := range rows {
				row.Bucket = strings.TrimSpace(row.Bucket)
			}
			count = len(rows)
			err = writer.ReplaceIndustryBetas(ctx, rows)
		}
	case IndexPriceMovementsTable:
		var rows []*data.IndexPriceMovement
		if rows, err = decode[data.IndexPriceMovement](r); err == nil {
			count = len(rows)
			err = writer.UpsertIndexPriceMovements(ctx, rows)
		}
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	if err != nil {
		log.Error().Err(err).Str("Table", table).Msg("reference import failed")
		return 0, err
	}

	log.Info().Str("Table", table).Int("NumRows", count).Msg("imported reference table")
	return count, nil
}
