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

package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/penny-vault/pvmetrics/data"
	"github.com/penny-vault/pvmetrics/reference"
	"github.com/rs/zerolog/log"
)

// selectOne scans a single row into dst and maps a missing row to reference.ErrNotFound
func (myLibrary *Library) selectOne(ctx context.Context, dst interface{}, what string, sql string, args ...interface{}) error {
	err := pgxscan.Get(ctx, myLibrary.Pool, dst, sql, args...)
	if pgxscan.NotFound(err) || errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", reference.ErrNotFound, what)
	}

	return err
}

func (myLibrary *Library) RiskFreeRate(ctx context.Context, year int) (*data.RiskFreeRate, error) {
	row := &data.RiskFreeRate{}
	err := myLibrary.selectOne(ctx, row, fmt.Sprintf("risk free rate %d", year),
		`SELECT year, usa_rf, india_rf, china_rf, japan_rf, updated_at FROM risk_free_rates WHERE year=$1`, year)
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (myLibrary *Library) ImpliedERP(ctx context.Context, year int) (*data.ImpliedERP, error) {
	row := &data.ImpliedERP{}
	err := myLibrary.selectOne(ctx, row, fmt.Sprintf("implied erp %d", year),
		`SELECT year, implied_erp, notes, updated_at FROM implied_equity_risk_premium_usa WHERE year=$1`, year)
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (myLibrary *Library) CountryRiskPremium(ctx context.Context, year int) (*data.CountryRiskPremium, error) {
	row := &data.CountryRiskPremium{}
	err := myLibrary.selectOne(ctx, row, fmt.Sprintf("country risk premium %d", year),
		`SELECT year, us, india, china, japan, uk, uae, updated_at FROM country_risk_premium WHERE year=$1`, year)
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (myLibrary *Library) TaxRate(ctx context.Context, country string) (*data.TaxRate, error) {
	row := &data.TaxRate{}
	err := myLibrary.selectOne(ctx, row, fmt.Sprintf("tax rate %s", country),
		`SELECT country, effective_rate, notes, updated_at FROM marginal_corporate_tax_rates WHERE country=$1`, country)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// GroupUnleveredBetas returns the unlevered beta of every industry bucket
// whose name matches a group the company belongs to
func (myLibrary *Library) GroupUnleveredBetas(ctx context.Context, companyID int64) ([]float64, error) {
	var betas []float64
	err := pgxscan.Select(ctx, myLibrary.Pool, &betas, `SELECT ib.unlevered_beta
	FROM company_group_members m
	JOIN company_groups g ON g.id = m.group_id
	JOIN industry_betas ib ON ib.user_industry_bucket = g.name
	WHERE m.company_id = $1`, companyID)
	return betas, err
}

// BucketHasBetas reports whether betas are stored for the industry bucket
func (myLibrary *Library) BucketHasBetas(ctx context.Context, bucket string) (bool, error) {
	if bucket == "" {
		return false, nil
	}

	count := 0
	err := myLibrary.Pool.QueryRow(ctx, `SELECT count(*) FROM industry_betas WHERE user_industry_bucket=$1`, bucket).Scan(&count)
	return count > 0, err
}

// RiskFreeRates returns every stored risk-free rate ordered by year
func (myLibrary *Library) RiskFreeRates(ctx context.Context) ([]*data.RiskFreeRate, error) {
	var rows []*data.RiskFreeRate
	err := pgxscan.Select(ctx, myLibrary.Pool, &rows, `SELECT year, usa_rf, india_rf, china_rf, japan_rf, updated_at FROM risk_free_rates ORDER BY year`)
	return rows, err
}

// IndustryBetas returns every industry bucket ordered by name
func (myLibrary *Library) IndustryBetas(ctx context.Context) ([]*data.IndustryBeta, error) {
	var rows []*data.IndustryBeta
	err := pgxscan.Select(ctx, myLibrary.Pool, &rows, `SELECT user_industry_bucket, mapped_sector, unlevered_beta, cash_adjusted_beta, updated_at FROM industry_betas ORDER BY user_industry_bucket`)
	return rows, err
}

// execBatch runs sql once per argument list inside a single transaction
func (myLibrary *Library) execBatch(ctx context.Context, msg string, prelude string, sql string, args [][]interface{}) error {
	return withRetry(ctx, func() error {
		conn, err := myLibrary.Pool.Acquire(ctx)
		if err != nil {
			return err
		}
		defer conn.Release()

		tx, err := conn.Begin(ctx)
		if err != nil {
			return err
		}

		defer func() {
			if err := tx.Rollback(ctx); err != nil {
				if !errors.Is(err, pgx.ErrTxClosed) {
					log.Error().Err(err).Msg("error rollingback tx")
				}
			}
		}()

		if prelude != "" {
			if _, err := tx.Exec(ctx, prelude); err != nil {
				log.Error().Err(err).Str("SQL", prelude).Msg(msg)
				return err
			}
		}

		for _, arg := range args {
			if _, err := tx.Exec(ctx, sql, arg...); err != nil {
				log.Error().Err(err).Str("SQL", sql).Msg(msg)
				return err
			}
		}

		return tx.Commit(ctx)
	})
}

func (myLibrary *Library) UpsertRiskFreeRates(ctx context.Context, rows []*data.RiskFreeRate) error {
	sql := `INSERT INTO risk_free_rates (
		"year",
		"usa_rf",
		"india_rf",
		"china_rf",
		"japan_rf",
		"updated_at"
	) VALUES (
		$1,
		$2,
		$3,
		$4,
		$5,
		now()
	) ON CONFLICT ON CONSTRAINT risk_free_rates_pkey
	DO UPDATE SET
		usa_rf = EXCLUDED.usa_rf,
		india_rf = COALESCE(EXCLUDED.india_rf, risk_free_rates.india_rf),
		china_rf = COALESCE(EXCLUDED.china_rf, risk_free_rates.china_rf),
		japan_rf = COALESCE(EXCLUDED.japan_rf, risk_free_rates.japan_rf),
		updated_at = EXCLUDED.updated_at;`

	args := make([][]interface{}, len(rows))
	for idx, row := range rows {
		args[idx] = []interface{}{row.Year, row.USA, row.India, row.China, row.Japan}
	}

	return myLibrary.execBatch(ctx, "error saving risk free rates to database", "", sql, args)
}

// UpsertUSARiskFreeRate sets the USA column of year; other columns keep their
// value and are left NULL for a new year
func (myLibrary *Library) UpsertUSARiskFreeRate(ctx context.Context, year int, rate float64) error {
	sql := `INSERT INTO risk_free_rates (
		"year",
		"usa_rf",
		"updated_at"
	) VALUES (
		$1,
		$2,
		now()
	) ON CONFLICT ON CONSTRAINT risk_free_rates_pkey
	DO UPDATE SET
		usa_rf = EXCLUDED.usa_rf,
		updated_at = EXCLUDED.updated_at;`

	return myLibrary.execBatch(ctx, "error saving usa risk free rate to database", "", sql, [][]interface{}{{year, rate}})
}

func (myLibrary *Library) UpsertImpliedERPs(ctx context.Context, rows []*data.ImpliedERP) error {
	sql := `INSERT INTO implied_equity_risk_premium_usa (
		"year",
		"implied_erp",
		"notes",
		"updated_at"
	) VALUES (
		$1,
		$2,
		$3,
		now()
	) ON CONFLICT ON CONSTRAINT implied_equity_risk_premium_usa_pkey
	DO UPDATE SET
		implied_erp = EXCLUDED.implied_erp,
		notes = EXCLUDED.notes,
		updated_at = EXCLUDED.updated_at;`

	args := make([][]interface{}, len(rows))
	for idx, row := range rows {
		args[idx] = []interface{}{row.Year, row.ImpliedERP, row.Notes}
	}

	return myLibrary.execBatch(ctx, "error saving implied erp to database", "", sql, args)
}

func (myLibrary *Library) UpsertCountryRiskPremiums(ctx context.Context, rows []*data.CountryRiskPremium) error {
	sql := `INSERT INTO country_risk_premium (
		"year",
		"us",
		"india",
		"china",
		"japan",
		"uk",
		"uae",
		"updated_at"
	) VALUES (
		$1,
		$2,
		$3,
		$4,
		$5,
		$6,
		$7,
		now()
	) ON CONFLICT ON CONSTRAINT country_risk_premium_pkey
	DO UPDATE SET
		us = EXCLUDED.us,
		india = EXCLUDED.india,
		china = EXCLUDED.china,
		japan = EXCLUDED.japan,
		uk = EXCLUDED.uk,
		uae = EXCLUDED.uae,
		updated_at = EXCLUDED.updated_at;`

	args := make([][]interface{}, len(rows))
	for idx, row := range rows {
		args[idx] = []interface{}{row.Year, row.US, row.India, row.China, row.Japan, row.UK, row.UAE}
	}

	return myLibrary.execBatch(ctx, "error saving country risk premium to database", "", sql, args)
}

func (myLibrary *Library) UpsertIndexPriceMovements(ctx context.Context, rows []*data.IndexPriceMovement) error {
	sql := `INSERT INTO index_annual_price_movement (
		"year",
		"nasdaq_composite",
		"sp500",
		"updated_at"
	) VALUES (
		$1,
		$2,
		$3,
		now()
	) ON CONFLICT ON CONSTRAINT index_annual_price_movement_pkey
	DO UPDATE SET
		nasdaq_composite = EXCLUDED.nasdaq_composite,
		sp500 = EXCLUDED.sp500,
		updated_at = EXCLUDED.updated_at;`

	args := make([][]interface{}, len(rows))
	for idx, row := range rows {
		args[idx] = []interface{}{row.Year, row.NasdaqComposite, row.SP500}
	}

	return myLibrary.execBatch(ctx, "error saving index price movement to database", "", sql, args)
}

// ReplaceTaxRates deletes every stored tax rate and writes rows in its place
func (myLibrary *Library) ReplaceTaxRates(ctx context.Context, rows []*data.TaxRate) error {
	sql := `INSERT INTO marginal_corporate_tax_rates (
		"country",
		"effective_rate",
		"notes",
		"updated_at"
	) VALUES (
		$1,
		$2,
		$3,
		now()
	);`

	args := make([][]interface{}, len(rows))
	for idx, row := range rows {
		args[idx] = []interface{}{row.Country, row.EffectiveRate, row.Notes}
	}

	return myLibrary.execBatch(ctx, "error replacing tax rates", "DELETE FROM marginal_corporate_tax_rates", sql, args)
}

// ReplaceIndustryBetas deletes every stored industry beta and writes rows in its place
func (myLibrary *Library) ReplaceIndustryBetas(ctx context.Context, rows []*data.IndustryBeta) error {
	sql := `INSERT INTO industry_betas (
		"user_industry_bucket",
		"mapped_sector",
		"unlevered_beta",
		"cash_adjusted_beta",
		"updated_at"
	) VALUES (
		$1,
		$2,
		$3,
		$4,
		now()
	);`

	args := make([][]interface{}, len(rows))
	for idx, row := range rows {
		args[idx] = []interface{}{row.Bucket, row.MappedSector, row.Unlevered, row.CashAdjusted}
	}

	return myLibrary.execBatch(ctx, "error replacing industry betas", "DELETE FROM industry_betas", sql, args)
}
