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
	"fmt"
	"math"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/hashicorp/go-multierror"
	"github.com/penny-vault/pvmetrics/data"
	"github.com/rs/zerolog/log"
)

// UpsertAnnual writes every (year, value) of series for the company. Each row
// is committed on its own; a failing row does not prevent the others from
// being written. Non-finite values are skipped.
func (myLibrary *Library) UpsertAnnual(ctx context.Context, metricKey string, companyID int64, series data.Series) error {
	metric, err := data.LookupMetric(metricKey)
	if err != nil {
		return err
	}

	if len(series) == 0 {
		return nil
	}

	sql := fmt.Sprintf(`INSERT INTO %[1]s (
		"company_id",
		"fiscal_year",
		"value"
	) VALUES (
		$1,
		$2,
		$3
	) ON CONFLICT ON CONSTRAINT %[1]s_pkey
	DO UPDATE SET
		value = EXCLUDED.value;`, metric.AnnualTable())

	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	var errs *multierror.Error
	for _, year := range series.Years() {
		val := series[year]
		if math.IsNaN(val) || math.IsInf(val, 0) {
			continue
		}

		err := withRetry(ctx, func() error {
			_, err := conn.Exec(ctx, sql, companyID, year, val)
			return err
		})
		if err != nil {
			log.Error().Err(err).Str("SQL", sql).Int64("CompanyID", companyID).Int("Year", year).Msg("error saving annual value to database")
			errs = multierror.Append(errs, err)
		}
	}

	return errs.ErrorOrNil()
}

// UpsertTTM replaces the trailing-twelve-month snapshot of the company
func (myLibrary *Library) UpsertTTM(ctx context.Context, metricKey string, companyID int64, asOf string, value float64) error {
	metric, err := data.LookupMetric(metricKey)
	if err != nil {
		return err
	}

	if !metric.HasTTM {
		return fmt.Errorf("%w: %s has no ttm view", data.ErrUnknownMetric, metric.Key)
	}

	sql := fmt.Sprintf(`INSERT INTO %[1]s (
		"company_id",
		"as_of",
		"value",
		"updated_at"
	) VALUES (
		$1,
		$2,
		$3,
		now()
	) ON CONFLICT ON CONSTRAINT %[1]s_pkey
	DO UPDATE SET
		as_of = EXCLUDED.as_of,
		value = EXCLUDED.value,
		updated_at = EXCLUDED.updated_at;`, metric.TTMTable())

	err = withRetry(ctx, func() error {
		_, err := myLibrary.Pool.Exec(ctx, sql, companyID, asOf, value)
		return err
	})
	if err != nil {
		log.Error().Err(err).Str("SQL", sql).Int64("CompanyID", companyID).Msg("error saving ttm value to database")
	}

	return err
}

// AnnualSeries returns the stored annual series of the company
func (myLibrary *Library) AnnualSeries(ctx context.Context, metricKey string, companyID int64) (data.Series, error) {
	metric, err := data.LookupMetric(metricKey)
	if err != nil {
		return nil, err
	}

	var points []data.Point
	sql := fmt.Sprintf(`SELECT fiscal_year, value FROM %s WHERE company_id=$1 AND value IS NOT NULL ORDER BY fiscal_year`, metric.AnnualTable())
	if err := pgxscan.Select(ctx, myLibrary.Pool, &points, sql, companyID); err != nil {
		log.Error().Err(err).Str("SQL", sql).Int64("CompanyID", companyID).Msg("could not read annual series")
		return nil, err
	}

	return data.SeriesFromPoints(points), nil
}

// TTM returns the stored trailing-twelve-month snapshot. The boolean is false
// when the company has no snapshot for the metric.
func (myLibrary *Library) TTM(ctx context.Context, metricKey string, companyID int64) (data.TTM, bool, error) {
	metric, err := data.LookupMetric(metricKey)
	if err != nil {
		return data.TTM{}, false, err
	}

	if !metric.HasTTM {
		return data.TTM{}, false, nil
	}

	var snapshots []data.TTM
	sql := fmt.Sprintf(`SELECT as_of, value FROM %s WHERE company_id=$1 AND value IS NOT NULL`, metric.TTMTable())
	if err := pgxscan.Select(ctx, myLibrary.Pool, &snapshots, sql, companyID); err != nil {
		return data.TTM{}, false, err
	}

	if len(snapshots) == 0 {
		return data.TTM{}, false, nil
	}

	return snapshots[0], true, nil
}

// AnnualRecords returns every stored observation of the metric across all companies
func (myLibrary *Library) AnnualRecords(ctx context.Context, metricKey string) ([]*data.AnnualRecord, error) {
	metric, err := data.LookupMetric(metricKey)
	if err != nil {
		return nil, err
	}

	var records []*data.AnnualRecord
	sql := fmt.Sprintf(`SELECT m.company_id, c.ticker, m.fiscal_year, m.value
	FROM %s m JOIN companies c ON c.id = m.company_id
	WHERE m.value IS NOT NULL
	ORDER BY m.company_id, m.fiscal_year`, metric.AnnualTable())
	err = pgxscan.Select(ctx, myLibrary.Pool, &records, sql)
	return records, err
}

// TotalRecords returns the number of annual observations across every metric
func (myLibrary *Library) TotalRecords(ctx context.Context) (int, error) {
	total := 0
	for _, key := range data.MetricKeys() {
		count, err := myLibrary.count(ctx, data.Metrics[key].AnnualTable())
		if err != nil {
			return 0, err
		}
		total += count
	}

	return total, nil
}
