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

	"github.com/penny-vault/pvmetrics/data"
)

// Store persists per-company annual metric series
type Store interface {
	AnnualSeries(ctx context.Context, metricKey string, companyID int64) (data.Series, error)
	UpsertAnnual(ctx context.Context, metricKey string, companyID int64, series data.Series) error
	CompanyCountry(ctx context.Context, companyID int64) (string, error)
	CompanyIDs(ctx context.Context) ([]int64, error)
	SaveRefreshRun(ctx context.Context, run *data.RefreshRun, details interface{}) error
}

// References resolves market and country level inputs. Lookups that have no
// matching row return an error wrapping reference.ErrNotFound.
type References interface {
	RiskFreeRate(ctx context.Context, country string, year int) (float64, error)
	ImpliedERP(ctx context.Context, year int) (float64, error)
	CountryRiskPremium(ctx context.Context, country string, year int) (float64, error)
	TaxRate(ctx context.Context, country string) (float64, error)
	UnleveredBeta(ctx context.Context, companyID int64) (float64, error)
}
