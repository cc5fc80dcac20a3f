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
	"strings"

	"github.com/alphadose/haxmap"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/penny-vault/pvmetrics/data"
	"github.com/rs/zerolog/log"
)

var (
	ErrCompanyNotFound = errors.New("company not found")
)

// companyCache maps "name\x00TICKER" to the company id of rows this library
// has upserted
func (myLibrary *Library) companyCache() *haxmap.Map[string, int64] {
	myLibrary.cacheOnce.Do(func() {
		myLibrary.companyIDs = haxmap.New[string, int64]()
	})
	return myLibrary.companyIDs
}

func companyKey(name, ticker string) string {
	return name + "\x00" + ticker
}

// UpsertCompany inserts the company or returns the id of the existing row
// with the same name and ticker. The country is canonicalized and defaults
// to USA on insert; an existing row only has its country replaced when one
// is supplied.
func (myLibrary *Library) UpsertCompany(ctx context.Context, name, ticker string, country *string) (int64, error) {
	name = strings.TrimSpace(name)
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	key := companyKey(name, ticker)

	if country == nil {
		if id, ok := myLibrary.companyCache().Get(key); ok {
			return id, nil
		}
	}

	var update *string
	if country != nil && strings.TrimSpace(*country) != "" {
		canonical := data.CanonicalCountry(country)
		update = &canonical
	}

	sql := `INSERT INTO companies (name, ticker, country) VALUES ($1, $2, $3)
	ON CONFLICT ON CONSTRAINT companies_name_ticker_key
	DO UPDATE SET country = COALESCE($4, companies.country)
	RETURNING id`

	var id int64
	err := withRetry(ctx, func() error {
		return myLibrary.Pool.QueryRow(ctx, sql, name, ticker, data.CanonicalCountry(country), update).Scan(&id)
	})
	if err != nil {
		log.Error().Err(err).Str("Name", name).Str("Ticker", ticker).Str("SQL", sql).Msg("could not upsert company")
		return 0, err
	}

	myLibrary.companyCache().Set(key, id)
	return id, nil
}

// Companies returns every company ordered by id
func (myLibrary *Library) Companies(ctx context.Context) ([]*data.Company, error) {
	var companies []*data.Company
	err := pgxscan.Select(ctx, myLibrary.Pool, &companies, `SELECT id, name, ticker, country FROM companies ORDER BY id`)
	return companies, err
}

// CompanyIDs returns the id of every company in ascending order
func (myLibrary *Library) CompanyIDs(ctx context.Context) ([]int64, error) {
	rows, err := myLibrary.Pool.Query(ctx, `SELECT id FROM companies ORDER BY id`)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (myLibrary *Library) Company(ctx context.Context, companyID int64) (*data.Company, error) {
	var companies []*data.Company
	if err := pgxscan.Select(ctx, myLibrary.Pool, &companies, `SELECT id, name, ticker, country FROM companies WHERE id=$1`, companyID); err != nil {
		return nil, err
	}

	if len(companies) == 0 {
		return nil, fmt.Errorf("%w: id %d", ErrCompanyNotFound, companyID)
	}

	return companies[0], nil
}

// CompanyByTicker returns the lowest-id company trading under ticker
func (myLibrary *Library) CompanyByTicker(ctx context.Context, ticker string) (*data.Company, error) {
	var companies []*data.Company
	if err := pgxscan.Select(ctx, myLibrary.Pool, &companies, `SELECT id, name, ticker, country FROM companies WHERE ticker=$1 ORDER BY id LIMIT 1`,
		strings.ToUpper(strings.TrimSpace(ticker))); err != nil {
		return nil, err
	}

	if len(companies) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCompanyNotFound, ticker)
	}

	return companies[0], nil
}

// CompanyCountry returns the canonical country of the company; companies
// without a stored country are treated as USA
func (myLibrary *Library) CompanyCountry(ctx context.Context, companyID int64) (string, error) {
	var country *string
	err := myLibrary.Pool.QueryRow(ctx, `SELECT country FROM companies WHERE id=$1`, companyID).Scan(&country)
	if errors.Is(err, pgx.ErrNoRows) {
		return data.CountryUSA, nil
	}

	if err != nil {
		return data.CountryUSA, err
	}

	return data.CanonicalCountry(country), nil
}

// NumCompanies returns the number of companies in the library
func (myLibrary *Library) NumCompanies(ctx context.Context) (int, error) {
	return myLibrary.count(ctx, "companies")
}
