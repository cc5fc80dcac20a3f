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

package data

import "time"

// RiskFreeRate holds the government bond yield (in percentage points) used as
// the risk-free rate for each supported market
// RiskFreeRate holds the risk-free rates of a year in percentage points. The
// India, China and Japan rates are nil until they have been supplied.
type RiskFreeRate struct {
	Year      int       `db:"year" csv:"year" validate:"required,gte=1900"`
	USA       float64   `db:"usa_rf" csv:"usa_rf"`
	India     *float64  `db:"india_rf" csv:"india_rf,omitempty"`
	China     *float64  `db:"china_rf" csv:"china_rf,omitempty"`
	Japan     *float64  `db:"japan_rf" csv:"japan_rf,omitempty"`
	UpdatedAt time.Time `db:"updated_at" csv:"-"`
}

type ImpliedERP struct {
	Year       int       `db:"year" csv:"year" validate:"required,gte=1900"`
	ImpliedERP float64   `db:"implied_erp" csv:"implied_erp"`
	Notes      string    `db:"notes" csv:"notes"`
	UpdatedAt  time.Time `db:"updated_at" csv:"-"`
}

type CountryRiskPremium struct {
	Year      int       `db:"year" csv:"year" validate:"required,gte=1900"`
	US        float64   `db:"us" csv:"us"`
	India     float64   `db:"india" csv:"india"`
	China     float64   `db:"china" csv:"china"`
	Japan     float64   `db:"japan" csv:"japan"`
	UK        float64   `db:"uk" csv:"uk"`
	UAE       float64   `db:"uae" csv:"uae"`
	UpdatedAt time.Time `db:"updated_at" csv:"-"`
}

// TaxRate is the effective marginal corporate tax rate of a country, stored
// in percentage points (25.7 means 25.7%)
type TaxRate struct {
	Country       string    `db:"country" csv:"country" validate:"required"`
	EffectiveRate float64   `db:"effective_rate" csv:"effective_rate" validate:"gte=0"`
	Notes         string    `db:"notes" csv:"notes"`
	UpdatedAt     time.Time `db:"updated_at" csv:"-"`
}

// IndustryBeta maps an industry bucket to the sector betas published for it
type IndustryBeta struct {
	Bucket       string    `db:"user_industry_bucket" csv:"user_industry_bucket" validate:"required"`
	MappedSector string    `db:"mapped_sector" csv:"mapped_sector" validate:"required"`
	Unlevered    float64   `db:"unlevered_beta" csv:"unlevered_beta"`
	CashAdjusted float64   `db:"cash_adjusted_beta" csv:"cash_adjusted_beta"`
	UpdatedAt    time.Time `db:"updated_at" csv:"-"`
}

type IndexPriceMovement struct {
	Year            int       `db:"year" csv:"year" validate:"required,gte=1900"`
	NasdaqComposite float64   `db:"nasdaq_composite" csv:"nasdaq_composite"`
	SP500           float64   `db:"sp500" csv:"sp500"`
	UpdatedAt       time.Time `db:"updated_at" csv:"-"`
}
