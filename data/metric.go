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

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gosimple/slug"
)

var (
	ErrUnknownMetric = errors.New("unknown metric")
)

// Metric describes one kind of per-company annual series. Every metric is
// stored in its own table keyed by (company_id, fiscal_year); metrics with a
// trailing view also get a single-row-per-company TTM table.
type Metric struct {
	Key     string
	Title   string
	HasTTM  bool
	Derived bool
}

const (
	RevenueKey                  = "revenue"
	CostOfRevenueKey            = "cost-of-revenue"
	SGAKey                      = "sga"
	EBITDAKey                   = "ebitda"
	OperatingMarginKey          = "op-margin"
	PretaxIncomeKey             = "pretax-income"
	NetIncomeKey                = "net-income"
	EffectiveTaxRateKey         = "eff-tax-rate"
	EBITKey                     = "ebit"
	InterestExpenseKey          = "interest-expense"
	OperatingIncomeKey          = "operating-income"
	InterestCoverageKey         = "interest-coverage"
	InterestLoadKey             = "interest-load"
	NOPATKey                    = "nopat"
	ShareholdersEquityKey       = "shareholders-equity"
	ShortTermInvestmentsKey     = "short-term-investments"
	AccountsReceivableKey       = "accounts-receivable"
	RetainedEarningsKey         = "retained-earnings"
	ComprehensiveIncomeKey      = "comprehensive-income"
	AccumulatedProfitKey        = "accumulated-profit"
	TotalAssetsKey              = "total-assets"
	TotalCurrentAssetsKey       = "total-current-assets"
	TotalCurrentLiabilitiesKey  = "total-current-liabilities"
	TotalLongTermLiabilitiesKey = "total-long-term-liabilities"
	TotalDebtKey                = "total-debt"
	MarketCapitalizationKey     = "market-capitalization"
	ROICKey                     = "roic-direct-upload"
	CurrentDebtKey              = "current-debt"
	CashKey                     = "cash-and-cash-equivalents"
	LongTermInvestmentsKey      = "long-term-investments"
	CapitalEmployedKey          = "capital-employed"
	ROCEKey                     = "roce"
	InvestedCapitalKey          = "invested-capital"
	NonCashWorkingCapitalKey    = "non-cash-working-capital"
	RevenueYieldNCWCKey         = "revenue-yield-ncwc"
	ResearchDevelopmentKey      = "research-and-development-expense"
	NetDebtIssuedPaidKey        = "net-debt-issued-paid"
	CapitalExpendituresKey      = "capital-expenditures"
	DepreciationAmortizationKey = "depreciation-amortization"
	DebtEquityKey               = "debt-equity"
	LeveredBetaKey              = "levered-beta"
	CostOfEquityKey             = "cost-of-equity"
	DefaultSpreadKey            = "default-spread"
	PreTaxCostOfDebtKey         = "pre-tax-cost-of-debt"
	WACCKey                     = "wacc"
	ROICWACCSpreadKey           = "roic-wacc-spread"
	TotalEquityKey              = "total-equity"
	AverageEquityKey            = "average-equity"
	ROEKey                      = "roe"
	RDSpendRateKey              = "rd-spend-rate"
	FCFFKey                     = "fcff"
	ReinvestmentRateKey         = "reinvestment-rate"
	FCFEKey                     = "fcfe"
)

var Metrics = map[string]*Metric{
	RevenueKey:                  {Key: RevenueKey, Title: "Revenue", HasTTM: true},
	CostOfRevenueKey:            {Key: CostOfRevenueKey, Title: "Cost of Revenue", HasTTM: true},
	SGAKey:                      {Key: SGAKey, Title: "Selling, General & Admin", HasTTM: true},
	EBITDAKey:                   {Key: EBITDAKey, Title: "EBITDA", HasTTM: true},
	OperatingMarginKey:          {Key: OperatingMarginKey, Title: "Operating Margin", HasTTM: true},
	PretaxIncomeKey:             {Key: PretaxIncomeKey, Title: "Pretax Income", HasTTM: true},
	NetIncomeKey:                {Key: NetIncomeKey, Title: "Net Income", HasTTM: true},
	EffectiveTaxRateKey:         {Key: EffectiveTaxRateKey, Title: "Effective Tax Rate", HasTTM: true},
	EBITKey:                     {Key: EBITKey, Title: "EBIT", HasTTM: true},
	InterestExpenseKey:          {Key: InterestExpenseKey, Title: "Interest Expense", HasTTM: true},
	OperatingIncomeKey:          {Key: OperatingIncomeKey, Title: "Operating Income", HasTTM: true},
	InterestCoverageKey:         {Key: InterestCoverageKey, Title: "Interest Coverage Ratio"},
	InterestLoadKey:             {Key: InterestLoadKey, Title: "Interest Load %"},
	NOPATKey:                    {Key: NOPATKey, Title: "NOPAT"},
	ShareholdersEquityKey:       {Key: ShareholdersEquityKey, Title: "Shareholders Equity", HasTTM: true},
	ShortTermInvestmentsKey:     {Key: ShortTermInvestmentsKey, Title: "Short-Term Investments", HasTTM: true},
	AccountsReceivableKey:       {Key: AccountsReceivableKey, Title: "Accounts Receivable", HasTTM: true},
	RetainedEarningsKey:         {Key: RetainedEarningsKey, Title: "Retained Earnings", HasTTM: true},
	ComprehensiveIncomeKey:      {Key: ComprehensiveIncomeKey, Title: "Comprehensive Income", HasTTM: true},
	AccumulatedProfitKey:        {Key: AccumulatedProfitKey, Title: "Accumulated Profit"},
	TotalAssetsKey:              {Key: TotalAssetsKey, Title: "Total Assets", HasTTM: true},
	TotalCurrentAssetsKey:       {Key: TotalCurrentAssetsKey, Title: "Total Current Assets", HasTTM: true},
	TotalCurrentLiabilitiesKey:  {Key: TotalCurrentLiabilitiesKey, Title: "Total Current Liabilities", HasTTM: true},
	TotalLongTermLiabilitiesKey: {Key: TotalLongTermLiabilitiesKey, Title: "Total Long-Term Liabilities", HasTTM: true},
	TotalDebtKey:                {Key: TotalDebtKey, Title: "Total Debt", HasTTM: true},
	MarketCapitalizationKey:     {Key: MarketCapitalizationKey, Title: "Market Capitalization"},
	ROICKey:                     {Key: ROICKey, Title: "ROIC %"},
	CurrentDebtKey:              {Key: CurrentDebtKey, Title: "Current Debt", HasTTM: true},
	CashKey:                     {Key: CashKey, Title: "Cash & Cash Equivalents", HasTTM: true},
	LongTermInvestmentsKey:      {Key: LongTermInvestmentsKey, Title: "Long-Term Investments", HasTTM: true},
	CapitalEmployedKey:          {Key: CapitalEmployedKey, Title: "Capital Employed"},
	ROCEKey:                     {Key: ROCEKey, Title: "ROCE"},
	InvestedCapitalKey:          {Key: InvestedCapitalKey, Title: "Invested Capital"},
	NonCashWorkingCapitalKey:    {Key: NonCashWorkingCapitalKey, Title: "Non-Cash Working Capital"},
	RevenueYieldNCWCKey:         {Key: RevenueYieldNCWCKey, Title: "Revenue Yield of Non-Cash Working Capital"},
	ResearchDevelopmentKey:      {Key: ResearchDevelopmentKey, Title: "Research & Development Expense"},
	NetDebtIssuedPaidKey:        {Key: NetDebtIssuedPaidKey, Title: "Net Debt Issued / Paid"},
	CapitalExpendituresKey:      {Key: CapitalExpendituresKey, Title: "Capital Expenditures"},
	DepreciationAmortizationKey: {Key: DepreciationAmortizationKey, Title: "Depreciation & Amortization"},

	DebtEquityKey:       {Key: DebtEquityKey, Title: "Debt / Equity", Derived: true},
	LeveredBetaKey:      {Key: LeveredBetaKey, Title: "Levered Beta", Derived: true},
	CostOfEquityKey:     {Key: CostOfEquityKey, Title: "Cost of Equity", Derived: true},
	DefaultSpreadKey:    {Key: DefaultSpreadKey, Title: "Default Spread", Derived: true},
	PreTaxCostOfDebtKey: {Key: PreTaxCostOfDebtKey, Title: "Pre-Tax Cost of Debt", Derived: true},
	WACCKey:             {Key: WACCKey, Title: "WACC", Derived: true},
	ROICWACCSpreadKey:   {Key: ROICWACCSpreadKey, Title: "ROIC - WACC Spread", Derived: true},
	TotalEquityKey:      {Key: TotalEquityKey, Title: "Total Equity", Derived: true},
	AverageEquityKey:    {Key: AverageEquityKey, Title: "Average Equity", Derived: true},
	ROEKey:              {Key: ROEKey, Title: "ROE", Derived: true},
	RDSpendRateKey:      {Key: RDSpendRateKey, Title: "R&D Spend Rate", Derived: true},
	FCFFKey:             {Key: FCFFKey, Title: "FCFF", Derived: true},
	ReinvestmentRateKey: {Key: ReinvestmentRateKey, Title: "Reinvestment Rate", Derived: true},
	FCFEKey:             {Key: FCFEKey, Title: "FCFE", Derived: true},
}

const annualSchema = `CREATE TABLE IF NOT EXISTS %[1]s (
company_id  BIGINT           NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
fiscal_year INT              NOT NULL,
value       DOUBLE PRECISION,
PRIMARY KEY (company_id, fiscal_year)
);`

const ttmSchema = `CREATE TABLE IF NOT EXISTS %[1]s (
company_id  BIGINT           NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
as_of       TEXT             NOT NULL DEFAULT '',
value       DOUBLE PRECISION,
updated_at  TIMESTAMP        NOT NULL DEFAULT now(),
PRIMARY KEY (company_id)
);`

func (metric *Metric) baseName() string {
	return strings.ReplaceAll(metric.Key, "-", "_")
}

// AnnualTable returns the name of the table holding the annual series
func (metric *Metric) AnnualTable() string {
	return metric.baseName() + "_annual"
}

// TTMTable returns the name of the table holding the trailing-twelve-month snapshot
func (metric *Metric) TTMTable() string {
	return metric.baseName() + "_ttm"
}

// Schemas returns the CREATE TABLE statements needed to store the metric
func (metric *Metric) Schemas() []string {
	schemas := []string{fmt.Sprintf(annualSchema, metric.AnnualTable())}
	if metric.HasTTM {
		schemas = append(schemas, fmt.Sprintf(ttmSchema, metric.TTMTable()))
	}
	return schemas
}

// MetricKeys returns every registered metric key in sorted order
func MetricKeys() []string {
	keys := make([]string, 0, len(Metrics))
	for k := range Metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LookupMetric finds a metric by key or by title. Lookups are forgiving about
// case, spacing and punctuation: "Cost of Equity", "cost_of_equity" and
// "cost-of-equity" all resolve to the same metric.
func LookupMetric(name string) (*Metric, error) {
	if metric, ok := Metrics[name]; ok {
		return metric, nil
	}

	wanted := slug.Make(strings.ReplaceAll(name, "_", " "))
	for _, metric := range Metrics {
		if slug.Make(metric.Key) == wanted || slug.Make(metric.Title) == wanted {
			return metric, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, name)
}
