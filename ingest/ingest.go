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

package ingest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/penny-vault/pvmetrics/data"
	"github.com/penny-vault/pvmetrics/extract"
	"github.com/rs/zerolog/log"
)

// Store persists companies, their raw series and group membership
type Store interface {
	UpsertCompany(ctx context.Context, name, ticker string, country *string) (int64, error)
	UpsertAnnual(ctx context.Context, metricKey string, companyID int64, series data.Series) error
	UpsertTTM(ctx context.Context, metricKey string, companyID int64, asOf string, value float64) error
	GroupID(ctx context.Context, name string, create bool) (int64, error)
	AddGroupMembers(ctx context.Context, groupID int64, companyIDs []int64) (int, error)
	BucketHasBetas(ctx context.Context, bucket string) (bool, error)
}

// Runner recomputes every derived metric of a company
type Runner interface {
	Run(ctx context.Context, companyID int64) error
}

// Request identifies the company a workbook belongs to
type Request struct {
	Name    string
	Ticker  string
	Country *string
	Bucket  string
}

// Result summarizes a single ingestion
type Result struct {
	CompanyID int64
	Metrics   int
	Points    int
	EngineErr error
}

// Statements holds the series read from a workbook, after TTM merging and
// normalization, plus the TTM snapshots
type Statements struct {
	Annual map[string]data.Series
	TTM    map[string]data.TTM
}

// Ingester reads financial statement workbooks into the store
type Ingester struct {
	store  Store
	runner Runner
}

func New(store Store, runner Runner) *Ingester {
	return &Ingester{
		store:  store,
		runner: runner,
	}
}

func fieldKeys() []string {
	keys := make([]string, 0, len(extract.Fields))
	for key := range extract.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Extract reads every known field from the workbook. All missing required
// fields are reported together.
func Extract(wb *extract.Workbook) (*Statements, error) {
	stmts := &Statements{
		Annual: make(map[string]data.Series),
		TTM:    make(map[string]data.TTM),
	}

	var errs *multierror.Error
	for _, key := range fieldKeys() {
		field := extract.Fields[key]

		annual, err := wb.Annual(field)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}

		ttm, err := wb.TTM(field)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}

		switch key {
		case data.MarketCapitalizationKey:
			annual = MergeRatioTTM(annual, ttm, nil)
		case data.ROICKey:
			annual = MergeRatioTTM(annual, ttm, PercentPoints)
		case data.CapitalExpendituresKey:
			annual = Negate(MergeTTM(annual, ttm))
		case data.ResearchDevelopmentKey:
			annual = Abs(MergeTTM(annual, ttm))
		default:
			annual = MergeTTM(annual, ttm)
		}

		stmts.Annual[key] = annual.Finite()
		if data.Metrics[key].HasTTM {
			stmts.TTM[key] = ttm
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	stmts.derive()
	return stmts, nil
}

// derive adds the raw metrics computed from other statement lines
func (stmts *Statements) derive() {
	a := stmts.Annual

	coverage := InterestCoverage(a[data.OperatingIncomeKey], a[data.InterestExpenseKey])
	capitalEmployed := Sum(a[data.ShareholdersEquityKey], a[data.TotalLongTermLiabilitiesKey])
	ncwc := NonCashWorkingCapital(a[data.TotalCurrentAssetsKey], a[data.CashKey], a[data.TotalCurrentLiabilitiesKey], a[data.CurrentDebtKey])

	a[data.NOPATKey] = NOPAT(a[data.EBITKey], a[data.EffectiveTaxRateKey])
	a[data.InterestCoverageKey] = coverage
	a[data.InterestLoadKey] = InterestLoad(coverage)
	a[data.AccumulatedProfitKey] = Sum(a[data.RetainedEarningsKey], a[data.ComprehensiveIncomeKey])
	a[data.CapitalEmployedKey] = capitalEmployed
	a[data.ROCEKey] = ROCE(a[data.EBITKey], capitalEmployed)
	a[data.InvestedCapitalKey] = InvestedCapital(a[data.ShareholdersEquityKey], a[data.TotalDebtKey], a[data.CashKey], a[data.LongTermInvestmentsKey])
	a[data.NonCashWorkingCapitalKey] = ncwc
	a[data.RevenueYieldNCWCKey] = RevenueYield(ncwc, a[data.RevenueKey])
}

// Metrics lists the annual series in a stable order
func (stmts *Statements) Metrics() []string {
	keys := make([]string, 0, len(stmts.Annual))
	for key := range stmts.Annual {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Ingest stores the statements of the workbook for the requested company,
// adds it to its industry bucket and recomputes its derived metrics.
// Failures of the derived metrics are reported in the result, not returned.
func (ingester *Ingester) Ingest(ctx context.Context, wb *extract.Workbook, req Request) (*Result, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Ticker = strings.ToUpper(strings.TrimSpace(req.Ticker))
	if req.Name == "" || req.Ticker == "" {
		return nil, fmt.Errorf("%w: name and ticker are required", ErrMalformedIdentity)
	}

	subLog := log.With().Str("Ticker", req.Ticker).Str("Company", req.Name).Logger()

	stmts, err := Extract(wb)
	if err != nil {
		subLog.Error().Err(err).Msg("could not extract statements")
		return nil, err
	}

	companyID, err := ingester.store.UpsertCompany(ctx, req.Name, req.Ticker, req.Country)
	if err != nil {
		return nil, err
	}

	result := &Result{CompanyID: companyID}

	var errs *multierror.Error
	for _, key := range stmts.Metrics() {
		series := stmts.Annual[key]
		if len(series) == 0 {
			continue
		}

		if err := ingester.store.UpsertAnnual(ctx, key, companyID, series); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}

		result.Metrics++
		result.Points += len(series)
	}

	for _, key := range sortedKeys(stmts.TTM) {
		ttm := stmts.TTM[key]
		if err := ingester.store.UpsertTTM(ctx, key, companyID, ttm.AsOf, ttm.Value); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s ttm: %w", key, err))
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		subLog.Error().Err(err).Int64("CompanyID", companyID).Msg("could not save statements")
		return result, err
	}

	if bucket := strings.TrimSpace(req.Bucket); bucket != "" {
		groupID, err := ingester.store.GroupID(ctx, bucket, true)
		if err != nil {
			return result, err
		}

		if _, err := ingester.store.AddGroupMembers(ctx, groupID, []int64{companyID}); err != nil {
			return result, err
		}
	}

	if ingester.runner != nil {
		if err := ingester.runner.Run(ctx, companyID); err != nil {
			subLog.Warn().Err(err).Int64("CompanyID", companyID).Msg("some derived metrics could not be computed")
			result.EngineErr = err
		}
	}

	subLog.Info().Int64("CompanyID", companyID).Int("Metrics", result.Metrics).Int("Points", result.Points).Msg("ingested statements")
	return result, nil
}

// IngestIdentity is Ingest for a "Company Name (TICKER)" identity string
func (ingester *Ingester) IngestIdentity(ctx context.Context, wb *extract.Workbook, identity string, country *string, bucket string) (*Result, error) {
	name, ticker, err := ParseIdentity(identity)
	if err != nil {
		return nil, err
	}

	return ingester.Ingest(ctx, wb, Request{Name: name, Ticker: ticker, Country: country, Bucket: bucket})
}

func sortedKeys(m map[string]data.TTM) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
