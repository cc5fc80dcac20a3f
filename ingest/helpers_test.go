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

package ingest_test

import (
	"context"
	"errors"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/penny-vault/pvmetrics/data"
	"github.com/penny-vault/pvmetrics/extract"
)

// cells holds the 2021 and 2022 annual values and the TTM value of a field.
// An empty string leaves the cell blank.
type cells [3]string

var ttmHeaders = map[extract.Statement]string{
	extract.Income:       "2023-06-30",
	extract.Ratios:       "2022-09-30",
	extract.BalanceSheet: "2023-06-30",
	extract.CashFlow:     "2023-06-30",
}

// statementRows builds the rows of every sheet. Fields without an entry in
// values get 100, 110 and 120; fields in skip are left out entirely.
func statementRows(values map[string]cells, skip ...string) map[string][][]string {
	omit := map[string]bool{}
	for _, key := range skip {
		omit[key] = true
	}

	keys := make([]string, 0, len(extract.Fields))
	for key := range extract.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	sheets := map[string][][]string{}
	for stmt, ttmHeader := range ttmHeaders {
		sheets[stmt.AnnualSheet()] = [][]string{{"Date", "2021-12", "2022-12"}}
		sheets[stmt.TTMSheet()] = [][]string{{"Date", ttmHeader}}
	}

	for _, key := range keys {
		if omit[key] {
			continue
		}

		field := extract.Fields[key]
		vals, ok := values[key]
		if !ok {
			vals = cells{"100", "110", "120"}
		}

		annual := field.Statement.AnnualSheet()
		ttm := field.Statement.TTMSheet()
		sheets[annual] = append(sheets[annual], []string{field.Labels[0], vals[0], vals[1]})
		sheets[ttm] = append(sheets[ttm], []string{field.Labels[0], vals[2]})
	}

	return sheets
}

func buildWorkbook(values map[string]cells, skip ...string) *extract.Workbook {
	rows := statementRows(values, skip...)
	sheets := make([]*extract.Sheet, 0, len(rows))
	for name, sheetRows := range rows {
		sheets = append(sheets, extract.NewSheet(name, sheetRows))
	}
	return extract.NewWorkbook(sheets...)
}

func writeWorkbook(fn string, values map[string]cells) error {
	xl := excelize.NewFile()
	defer xl.Close()

	for name, sheetRows := range statementRows(values) {
		if _, err := xl.NewSheet(name); err != nil {
			return err
		}

		for idx, row := range sheetRows {
			cell, err := excelize.CoordinatesToCellName(1, idx+1)
			if err != nil {
				return err
			}

			vals := make([]interface{}, len(row))
			for col, val := range row {
				vals[col] = val
			}
			if err := xl.SetSheetRow(name, cell, &vals); err != nil {
				return err
			}
		}
	}

	return xl.SaveAs(fn)
}

type ttmRow struct {
	asOf  string
	value float64
}

type fakeStore struct {
	nextID    int64
	companies map[string]int64
	countries map[int64]*string
	annual    map[string]map[int64]data.Series
	ttm       map[string]map[int64]ttmRow
	groups    map[string]int64
	members   map[int64][]int64
	failOn    map[string]bool
	betas     map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		companies: map[string]int64{},
		countries: map[int64]*string{},
		annual:    map[string]map[int64]data.Series{},
		ttm:       map[string]map[int64]ttmRow{},
		groups:    map[string]int64{},
		members:   map[int64][]int64{},
		failOn:    map[string]bool{},
		betas:     map[string]bool{},
	}
}

func (store *fakeStore) UpsertCompany(_ context.Context, name, ticker string, country *string) (int64, error) {
	key := name + "|" + ticker
	id, ok := store.companies[key]
	if !ok {
		store.nextID++
		id = store.nextID
		store.companies[key] = id
	}
	if country != nil {
		store.countries[id] = country
	}
	return id, nil
}

func (store *fakeStore) UpsertAnnual(_ context.Context, metricKey string, companyID int64, series data.Series) error {
	if store.failOn[metricKey] {
		return errors.New("could not obtain lock")
	}
	if _, ok := store.annual[metricKey]; !ok {
		store.annual[metricKey] = map[int64]data.Series{}
	}
	store.annual[metricKey][companyID] = series.Clone()
	return nil
}

func (store *fakeStore) UpsertTTM(_ context.Context, metricKey string, companyID int64, asOf string, value float64) error {
	if _, ok := store.ttm[metricKey]; !ok {
		store.ttm[metricKey] = map[int64]ttmRow{}
	}
	store.ttm[metricKey][companyID] = ttmRow{asOf: asOf, value: value}
	return nil
}

func (store *fakeStore) GroupID(_ context.Context, name string, create bool) (int64, error) {
	if id, ok := store.groups[name]; ok {
		return id, nil
	}
	if !create {
		return 0, errors.New("group not found")
	}
	id := int64(len(store.groups) + 100)
	store.groups[name] = id
	return id, nil
}

func (store *fakeStore) BucketHasBetas(_ context.Context, bucket string) (bool, error) {
	return store.betas[bucket], nil
}

func (store *fakeStore) AddGroupMembers(_ context.Context, groupID int64, companyIDs []int64) (int, error) {
	store.members[groupID] = append(store.members[groupID], companyIDs...)
	return len(companyIDs), nil
}

type fakeRunner struct {
	ran []int64
	err error
}

func (runner *fakeRunner) Run(_ context.Context, companyID int64) error {
	runner.ran = append(runner.ran, companyID)
	return runner.err
}
