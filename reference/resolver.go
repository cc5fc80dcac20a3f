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

// Package reference resolves market reference data (risk-free rates, equity
// and country risk premiums, tax rates and industry betas) for a company's
// country and fiscal year.
package reference

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/penny-vault/pvmetrics/data"
)

var (
	ErrNotFound = errors.New("reference data not found")
)

// Source is the storage behind a Resolver. Implementations return an error
// wrapping ErrNotFound when the requested row does not exist.
type Source interface {
	RiskFreeRate(ctx context.Context, year int) (*data.RiskFreeRate, error)
	ImpliedERP(ctx context.Context, year int) (*data.ImpliedERP, error)
	CountryRiskPremium(ctx context.Context, year int) (*data.CountryRiskPremium, error)
	TaxRate(ctx context.Context, country string) (*data.TaxRate, error)
	GroupUnleveredBetas(ctx context.Context, companyID int64) ([]float64, error)
}

type Resolver struct {
	source Source
}

func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// RiskFreeColumn returns the risk-free rate of row for country. Only India,
// China and Japan have their own column; every other country, including the
// UK and UAE, uses the USA rate.
// The boolean is false when the country's column has no rate for the year.
func RiskFreeColumn(row *data.RiskFreeRate, country string) (float64, bool) {
	var rate *float64
	switch data.Canonical(country) {
	case data.CountryIndia:
		rate = row.India
	case data.CountryChina:
		rate = row.China
	case data.CountryJapan:
		rate = row.Japan
	default:
		return row.USA, true
	}

	if rate == nil {
		return 0, false
	}
	return *rate, true
}

// CountryRiskColumn returns the premium of row for country. Countries without
// a column use the US premium.
func CountryRiskColumn(row *data.CountryRiskPremium, country string) float64 {
	switch data.Canonical(country) {
	case data.CountryIndia:
		return row.India
	case data.CountryChina:
		return row.China
	case data.CountryJapan:
		return row.Japan
	case data.CountryUK:
		return row.UK
	case data.CountryUAE:
		return row.UAE
	default:
		return row.US
	}
}

// RiskFreeRate in percentage points for the country and year
func (resolver *Resolver) RiskFreeRate(ctx context.Context, country string, year int) (float64, error) {
	row, err := resolver.source.RiskFreeRate(ctx, year)
	if err != nil {
		return 0, err
	}

	rate, ok := RiskFreeColumn(row, country)
	if !ok {
		return 0, fmt.Errorf("%w: %s risk free rate %d", ErrNotFound, data.Canonical(country), year)
	}

	return rate, nil
}

// ImpliedERP returns the US implied equity risk premium in percentage points
func (resolver *Resolver) ImpliedERP(ctx context.Context, year int) (float64, error) {
	row, err := resolver.source.ImpliedERP(ctx, year)
	if err != nil {
		return 0, err
	}

	return row.ImpliedERP, nil
}

// CountryRiskPremium in percentage points for the country and year
func (resolver *Resolver) CountryRiskPremium(ctx context.Context, country string, year int) (float64, error) {
	row, err := resolver.source.CountryRiskPremium(ctx, year)
	if err != nil {
		return 0, err
	}

	return CountryRiskColumn(row, country), nil
}

// TaxKeys returns the spellings under which the tax rate of country may be stored
func TaxKeys(country string) []string {
	canonical := data.Canonical(country)
	if aliases, ok := data.CountryAliases[canonical]; ok {
		return aliases
	}

	return []string{canonical}
}

// ToDecimal converts a tax rate stored in percentage points to a fraction.
// Rates of 1 or less are assumed to already be fractions.
func ToDecimal(rate float64) float64 {
	if rate > 1.0 {
		return rate / 100.0
	}
	return rate
}

// TaxRate returns the effective marginal corporate tax rate of country as a
// decimal. Countries without a stored rate use the USA rate.
func (resolver *Resolver) TaxRate(ctx context.Context, country string) (float64, error) {
	keys := TaxKeys(country)
	if data.Canonical(country) != data.CountryUSA {
		keys = append(append([]string{}, keys...), data.CountryAliases[data.CountryUSA]...)
	}

	for _, key := range keys {
		row, err := resolver.source.TaxRate(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}

		if err != nil {
			return 0, err
		}

		return ToDecimal(row.EffectiveRate), nil
	}

	return 0, fmt.Errorf("%w: tax rate for %s", ErrNotFound, country)
}

// UnleveredBeta is the mean unlevered beta of every industry bucket the
// company belongs to. Buckets are matched on company group names.
func (resolver *Resolver) UnleveredBeta(ctx context.Context, companyID int64) (float64, error) {
	betas, err := resolver.source.GroupUnleveredBetas(ctx, companyID)
	if err != nil {
		return 0, err
	}

	sum := 0.0
	n := 0
	for _, beta := range betas {
		if math.IsNaN(beta) || math.IsInf(beta, 0) {
			continue
		}
		sum += beta
		n++
	}

	if n == 0 {
		return 0, fmt.Errorf("%w: no industry bucket for company %d", ErrNotFound, companyID)
	}

	return sum / float64(n), nil
}
