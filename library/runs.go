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
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/goccy/go-json"
	"github.com/penny-vault/pvmetrics/data"
	"github.com/rs/zerolog/log"
)

// SaveRefreshRun records a completed refresh; details is stored as JSON
func (myLibrary *Library) SaveRefreshRun(ctx context.Context, run *data.RefreshRun, details interface{}) error {
	summary, err := json.Marshal(details)
	if err != nil {
		return err
	}

	sql := `INSERT INTO refresh_runs (
		"id",
		"metric",
		"started",
		"finished",
		"companies",
		"failures",
		"summary"
	) VALUES (
		$1,
		$2,
		$3,
		$4,
		$5,
		$6,
		$7
	) ON CONFLICT ON CONSTRAINT refresh_runs_pkey
	DO UPDATE SET
		finished = EXCLUDED.finished,
		companies = EXCLUDED.companies,
		failures = EXCLUDED.failures,
		summary = EXCLUDED.summary;`

	_, err = myLibrary.Pool.Exec(ctx, sql, run.ID, run.Metric, run.Started, run.Finished, run.Companies, run.Failures, summary)
	if err != nil {
		log.Error().Err(err).Str("SQL", sql).Str("RunID", run.ID.String()).Msg("error saving refresh run to database")
	}

	return err
}

// LastRefresh returns when the most recent refresh finished; the zero time
// means no refresh has ever run
func (myLibrary *Library) LastRefresh(ctx context.Context) (time.Time, error) {
	var lastUpdated time.Time
	err := myLibrary.Pool.QueryRow(ctx, "SELECT coalesce(max(finished), '0001-01-01'::timestamp) FROM refresh_runs").Scan(&lastUpdated)
	if err != nil {
		return time.Time{}, err
	}

	return lastUpdated, nil
}

// RecentRefreshRuns returns up to limit runs, most recent first
func (myLibrary *Library) RecentRefreshRuns(ctx context.Context, limit int) ([]*data.RefreshRun, error) {
	var runs []*data.RefreshRun
	err := pgxscan.Select(ctx, myLibrary.Pool, &runs, `SELECT id, metric, started, finished, companies, failures
	FROM refresh_runs ORDER BY finished DESC LIMIT $1`, limit)
	return runs, err
}
