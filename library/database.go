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
	"sync"

	"github.com/alphadose/haxmap"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/penny-vault/pvmetrics/data"
	"github.com/penny-vault/pvmetrics/db"
	"github.com/rs/zerolog/log"
)

const DefaultName = "pvmetrics"

type Library struct {
	DBUrl string
	Name  string

	Pool *pgxpool.Pool

	initMu      sync.Mutex
	initialized bool

	cacheOnce  sync.Once
	companyIDs *haxmap.Map[string, int64]
}

// New connects to the database at dbURL
func New(ctx context.Context, dbURL string) (*Library, error) {
	myLibrary := &Library{
		DBUrl: dbURL,
		Name:  DefaultName,
	}

	if err := myLibrary.Connect(ctx); err != nil {
		return nil, err
	}

	return myLibrary, nil
}

// Connect to the database configured for the library
func (myLibrary *Library) Connect(ctx context.Context) error {
	if myLibrary.Pool != nil {
		return nil
	}

	pool, err := pgxpool.New(ctx, myLibrary.DBUrl)
	if err != nil {
		return err
	}
	myLibrary.Pool = pool

	return nil
}

// Close the database pool and forget cached company ids
func (myLibrary *Library) Close() {
	if myLibrary.Pool != nil {
		myLibrary.Pool.Close()
		myLibrary.Pool = nil
	}

	cache := myLibrary.companyCache()
	keys := make([]string, 0, cache.Len())
	cache.ForEach(func(key string, _ int64) bool {
		keys = append(keys, key)
		return true
	})
	cache.Del(keys...)
}

// Init migrates the schema, creates a table for every registered metric and
// seeds default reference data. It does its work once per process; a failed
// attempt leaves the library uninitialized so Init may be called again.
func (myLibrary *Library) Init(ctx context.Context) error {
	myLibrary.initMu.Lock()
	defer myLibrary.initMu.Unlock()

	if myLibrary.initialized {
		return nil
	}

	if err := db.Migrate(myLibrary.DBUrl); err != nil {
		log.Error().Err(err).Msg("database migration failed")
		return err
	}

	if err := myLibrary.CreateMetricTables(ctx); err != nil {
		return err
	}

	if err := myLibrary.Seed(ctx); err != nil {
		return err
	}

	myLibrary.initialized = true
	return nil
}

// CreateMetricTables creates the annual and ttm tables of every registered metric
func (myLibrary *Library) CreateMetricTables(ctx context.Context) error {
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

	for _, key := range data.MetricKeys() {
		metric := data.Metrics[key]
		for _, sql := range metric.Schemas() {
			if _, err := tx.Exec(ctx, sql); err != nil {
				log.Error().Err(err).Str("Metric", metric.Key).Str("SQL", sql).Msg("could not create metric table")
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

func (myLibrary *Library) count(ctx context.Context, tbl string) (int, error) {
	count := 0
	err := myLibrary.Pool.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s", tbl)).Scan(&count)
	return count, err
}
