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

package engine

import (
	"context"
	"fmt"

	"github.com/penny-vault/pvmetrics/data"
)

// env holds the state of one company while steps are evaluated. Raw and
// stored derived series are read fresh from the store; internal values are
// computed once and memoized.
type env struct {
	engine    *Engine
	companyID int64

	country    string
	hasCountry bool

	internal map[string]data.Series

	beta      float64
	betaFound bool
	betaDone  bool

	tax      float64
	taxFound bool
	taxDone  bool
}

func newEnv(engine *Engine, companyID int64) *env {
	return &env{
		engine:    engine,
		companyID: companyID,
		internal:  make(map[string]data.Series),
	}
}

func (env *env) countryName(ctx context.Context) (string, error) {
	if env.hasCountry {
		return env.country, nil
	}

	country, err := env.engine.store.CompanyCountry(ctx, env.companyID)
	if err != nil {
		return "", err
	}

	env.country = data.Canonical(country)
	env.hasCountry = true
	return env.country, nil
}

// series returns the finite values of key for the company
func (env *env) series(ctx context.Context, key string) (data.Series, error) {
	if step, ok := producers[key]; ok && step.Internal {
		if cached, ok := env.internal[key]; ok {
			return cached, nil
		}

		outputs, err := step.compute(ctx, env)
		if err != nil {
			return nil, err
		}

		for name, series := range outputs {
			env.internal[name] = series.Finite()
		}

		return env.internal[key], nil
	}

	series, err := env.engine.store.AnnualSeries(ctx, key, env.companyID)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}

	return series.Finite(), nil
}

func (env *env) load(ctx context.Context, keys ...string) ([]data.Series, error) {
	out := make([]data.Series, len(keys))
	for idx, key := range keys {
		series, err := env.series(ctx, key)
		if err != nil {
			return nil, err
		}
		out[idx] = series
	}
	return out, nil
}

func (env *env) unleveredBeta(ctx context.Context) (float64, bool, error) {
	if env.betaDone {
		return env.beta, env.betaFound, nil
	}

	beta, err := env.engine.refs.UnleveredBeta(ctx, env.companyID)
	found, err := ignoreMissing(err)
	if err != nil {
		return 0, false, err
	}

	env.beta, env.betaFound, env.betaDone = beta, found, true
	return beta, found, nil
}

func (env *env) taxRate(ctx context.Context) (float64, bool, error) {
	if env.taxDone {
		return env.tax, env.taxFound, nil
	}

	country, err := env.countryName(ctx)
	if err != nil {
		return 0, false, err
	}

	tax, err := env.engine.refs.TaxRate(ctx, country)
	found, err := ignoreMissing(err)
	if err != nil {
		return 0, false, err
	}

	env.tax, env.taxFound, env.taxDone = tax, found, true
	return tax, found, nil
}

// yearly resolves a reference value for each year, leaving out years with
// no matching row
func (env *env) yearly(ctx context.Context, years []int, lookup func(ctx context.Context, country string, year int) (float64, error)) (data.Series, error) {
	country, err := env.countryName(ctx)
	if err != nil {
		return nil, err
	}

	out := make(data.Series, len(years))
	for _, year := range years {
		val, err := lookup(ctx, country, year)
		found, err := ignoreMissing(err)
		if err != nil {
			return nil, err
		}
		if found {
			out[year] = val
		}
	}

	return out.Finite(), nil
}

func (env *env) riskFree(ctx context.Context, years []int) (data.Series, error) {
	return env.yearly(ctx, years, env.engine.refs.RiskFreeRate)
}

func (env *env) impliedERP(ctx context.Context, years []int) (data.Series, error) {
	return env.yearly(ctx, years, func(ctx context.Context, _ string, year int) (float64, error) {
		return env.engine.refs.ImpliedERP(ctx, year)
	})
}

// countryRisk leaves years without a premium out; CostOfEquity treats them as 0
func (env *env) countryRisk(ctx context.Context, years []int) (data.Series, error) {
	return env.yearly(ctx, years, env.engine.refs.CountryRiskPremium)
}
