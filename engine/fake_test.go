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

package engine_test

import (
	"context"
	"fmt"

	"github.com/penny-vault/pvmetrics/data"
	"github.com/penny-vault/pvmetrics/reference"
)

type memStore struct {
	series    map[string]map[int64]data.Series
	countries map[int64]string
	ids       []int64
	runs      []*data.RefreshRun
	failOn    map[string]error
	writes    int
}

func newMemStore(ids ...int64) *memStore {
	return &memStore{
		series:    map[string]map[int64]data.Series{},
		countries: map[int64]string{},
		ids:       ids,
		failOn:    map[string]error{},
	}
}

func (store *memStore) set(metric string, companyID int64, series data.Series) {
	if _, ok := store.series[metric]; !ok {
		store.series[metric] = map[int64]data.Series{}
	}
	store.series[metric][companyID] = series.Clone()
}

func (store *memStore) get(metric string, companyID int64) data.Series {
	return store.series[metric][companyID]
}

func (store *memStore) AnnualSeries(_ context.Context, metricKey string, companyID int64) (data.Series, error) {
	series, ok := store.series[metricKey][companyID]
	if !ok {
		return data.Series{}, nil
	}
	return series.Clone(), nil
}

func (store *memStore) UpsertAnnual(_ context.Context, metricKey string, companyID int64, series data.Series) error {
	if err, ok := store.failOn[metricKey]; ok {
		return err
	}

	if _, ok := store.series[metricKey]; !ok {
		store.series[metricKey] = map[int64]data.Series{}
	}
	if _, ok := store.series[metricKey][companyID]; !ok {
		store.series[metricKey][companyID] = data.Series{}
	}

	for year, val := range series {
		store.series[metricKey][companyID][year] = val
		store.writes++
	}
	return nil
}

func (store *memStore) CompanyCountry(_ context.Context, companyID int64) (string, error) {
	if country, ok := store.countries[companyID]; ok {
		return country, nil
	}
	return data.CountryUSA, nil
}

func (store *memStore) CompanyIDs(_ context.Context) ([]int64, error) {
	return store.ids, nil
}

func (store *memStore) SaveRefreshRun(_ context.Context, run *data.RefreshRun, _ interface{}) error {
	store.runs = append(store.runs, run)
	return nil
}

type fakeRefs struct {
	rfr   map[int]float64
	erp   map[int]float64
	crp   map[int]float64
	tax   map[string]float64
	betas map[int64]float64
}

func newFakeRefs() *fakeRefs {
	return &fakeRefs{
		rfr:   map[int]float64{},
		erp:   map[int]float64{},
		crp:   map[int]float64{},
		tax:   map[string]float64{},
		betas: map[int64]float64{},
	}
}

func (refs *fakeRefs) RiskFreeRate(_ context.Context, _ string, year int) (float64, error) {
	if val, ok := refs.rfr[year]; ok {
		return val, nil
	}
	return 0, fmt.Errorf("%w: rfr %d", reference.ErrNotFound, year)
}

func (refs *fakeRefs) ImpliedERP(_ context.Context, year int) (float64, error) {
	if val, ok := refs.erp[year]; ok {
		return val, nil
	}
	return 0, fmt.Errorf("%w: erp %d", reference.ErrNotFound, year)
}

func (refs *fakeRefs) CountryRiskPremium(_ context.Context, _ string, year int) (float64, error) {
	if val, ok := refs.crp[year]; ok {
		return val, nil
	}
	return 0, fmt.Errorf("%w: crp %d", reference.ErrNotFound, year)
}

func (refs *fakeRefs) TaxRate(_ context.Context, country string) (float64, error) {
	if val, ok := refs.tax[country]; ok {
		return val, nil
	}
	return 0, fmt.Errorf("%w: tax %s", reference.ErrNotFound, country)
}

func (refs *fakeRefs) UnleveredBeta(_ context.Context, companyID int64) (float64, error) {
	if val, ok := refs.betas[companyID]; ok {
		return val, nil
	}
	return 0, fmt.Errorf("%w: beta %d", reference.ErrNotFound, companyID)
}
