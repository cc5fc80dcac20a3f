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
	"errors"
	"fmt"

	"github.com/penny-vault/pvmetrics/data"
	"github.com/penny-vault/pvmetrics/reference"
)

// intermediate values that are computed on demand but never stored
const (
	UnleveredBetaKey = "unlevered-beta"
	NetCapExKey      = "net-capex"
	DeltaNCWCKey     = "delta-ncwc"
)

var (
	ErrNotDerived   = errors.New("metric is not derived")
	ErrInvalidGraph = errors.New("invalid metric graph")
)

// Step is one node of the metric dependency graph
type Step struct {
	Name       string
	Inputs     []string
	References []string
	Outputs    []string
	Internal   bool

	compute func(ctx context.Context, env *env) (map[string]data.Series, error)
}

// Graph lists every derived metric in execution order. A step may only
// consume raw metrics or outputs of earlier steps.
var Graph = []*Step{
	{
		Name:    "Debt / Equity",
		Inputs:  []string{data.TotalDebtKey, data.MarketCapitalizationKey},
		Outputs: []string{data.DebtEquityKey},
		compute: func(ctx context.Context, env *env) (map[string]data.Series, error) {
			series, err := env.load(ctx, data.TotalDebtKey, data.MarketCapitalizationKey)
			if err != nil {
				return nil, err
			}
			return single(data.DebtEquityKey, DebtEquity(series[0], series[1])), nil
		},
	},
	{
		Name:       "Unlevered Beta",
		References: []string{"industry_betas", "company_group_members"},
		Outputs:    []string{UnleveredBetaKey},
		Internal:   true,
		compute: func(ctx context.Context, env *env) (map[string]data.Series, error) {
			_, _, err := env.unleveredBeta(ctx)
			return nil, err
		},
	},
	{
		Name:       "Levered Beta",
		Inputs:     []string{UnleveredBetaKey, data.DebtEquityKey},
		References: []string{"marginal_corporate_tax_rates"},
		Outputs:    []string{data.LeveredBetaKey},
		compute: func(ctx context.Context, env *env) (map[string]data.Series, error) {
			ub, ok, err := env.unleveredBeta(ctx)
			if err != nil || !ok {
				return nil, err
			}

			tax, ok, err := env.taxRate(ctx)
			if err != nil || !ok {
				return nil, err
			}

			series, err := env.load(ctx, data.DebtEquityKey)
			if err != nil {
				return nil, err
			}

			return single(data.LeveredBetaKey, LeveredBeta(ub, tax, series[0])), nil
		},
	},
	{
		Name:       "Cost of Equity",
		Inputs:     []string{data.LeveredBetaKey},
		References: []string{"risk_free_rates", "implied_equity_risk_premium_usa", "country_risk_premium"},
		Outputs:    []string{data.CostOfEquityKey},
		compute: func(ctx context.Context, env *env) (map[string]data.Series, error) {
			series, err := env.load(ctx, data.LeveredBetaKey)
			if err != nil {
				return nil, err
			}

			beta := series[0]
			years := beta.Years()

			riskFree, err := env.riskFree(ctx, years)
			if err != nil {
				return nil, err
			}

			erp, err := env.impliedERP(ctx, years)
			if err != nil {
				return nil, err
			}

			crp, err := env.countryRisk(ctx, years)
			if err != nil {
				return nil, err
			}

			return single(data.CostOfEquityKey, CostOfEquity(beta, riskFree, erp, crp)), nil
		},
	},
	{
		Name:    "Default Spread",
		Inputs:  []string{data.InterestCoverageKey},
		Outputs: []string{data.DefaultSpreadKey},
		compute: func(ctx context.Context, env *env) (map[string]data.Series, error) {
			series, err := env.load(ctx, data.InterestCoverageKey)
			if err != nil {
				return nil, err
			}
			return single(data.DefaultSpreadKey, DefaultSpreads(series[0])), nil
		},
	},
	{
		Name:       "Pre-Tax Cost of Debt",
		Inputs:     []string{data.DefaultSpreadKey},
		References: []string{"risk_free_rates"},
		Outputs:    []string{data.PreTaxCostOfDebtKey},
		compute: func(ctx context.Context, env *env) (map[string]data.Series, error) {
			series, err := env.load(ctx, data.DefaultSpreadKey)
			if err != nil {
				return nil, err
			}

			riskFree, err := env.riskFree(ctx, series[0].Years())
			if err != nil {
				return nil, err
			}

			return single(data.PreTaxCostOfDebtKey, PreTaxCostOfDebt(series[0], riskFree)), nil
		},
	},
	{
		Name:       "WACC",
		Inputs:     []string{data.TotalDebtKey, data.MarketCapitalizationKey, data.PreTaxCostOfDebtKey, data.CostOfEquityKey},
		References: []string{"marginal_corporate_tax_rates"},
		Outputs:    []string{data.WACCKey},
		compute: func(ctx context.Context, env *env) (map[string]data.Series, error) {
			tax, ok, err := env.taxRate(ctx)
			if err != nil || !ok {
				return nil, err
			}

			series, err := env.load(ctx, data.TotalDebtKey, data.MarketCapitalizationKey, data.PreTaxCostOfDebtKey, data.CostOfEquityKey)
			if err != nil {
				return nil, err
			}

			return single(data.WACCKey, WACC(series[0], series[1], series[2], series[3], tax)), nil
		},
	},
	{
		Name:    "ROIC - WACC Spread",
		Inputs:  []string{data.ROICKey, data.WACCKey},
		Outputs: []string{data.ROICWACCSpreadKey},
		compute: func(ctx context.Context, env *env) (map[string]data.Series, error) {
			series, err := env.load(ctx, data.ROICKey, data.WACCKey)
			if err != nil {
				return nil, err
			}
			return single(data.ROICWACCSpreadKey, Difference(series[0], series[1])), nil
		},
	},
	{
		Name:    "Total Equity",
		Inputs:  []string{data.ShareholdersEquityKey},
		Outputs: []string{data.TotalEquityKey},
		compute: func(ctx context.Context, env *env) (map[string]data.Series, error) {
			series, err := env.load(ctx, data.ShareholdersEquityKey)
			if err != nil {
				return nil, err
			}
			return single(data.TotalEquityKey, series[0].Clone()), nil
		},
	},
	{
		Name:    "Average Equity",
		Inputs:  []string{data.ShareholdersEquityKey},
		Outputs: []string{data.AverageEquityKey},
		compute: func(ctx context.Context, env *env) (map[string]data.Series, error) {
			series, err := env.load(ctx, data.ShareholdersEquityKey)
			if err != nil {
				return nil, err
			}
			return single(data.AverageEquityKey, AverageEquity(series[0])), nil
		},
	},
	{
		Name:    "ROE",
		Inputs:  []string{data.NetIncomeKey, data.AverageEquityKey},
		Outputs: []string{data.ROEKey},
		compute: func(ctx context.Context, env *env) (map[string]data.Series, error) {
			series, err := env.load(ctx, data.NetIncomeKey, data.AverageEquityKey)
			if err != nil {
				return nil, err
			}
			return single(data.ROEKey, Ratio(series[0], series[1])), nil
		},
	},
	{
		Name:    "R&D Spend Rate",
		Inputs:  []string{data.ResearchDevelopmentKey, data.NOPATKey},
		Outputs: []string{data.RDSpendRateKey},
		compute: func(ctx context.Context, env *env) (map[string]data.Series, error) {
			series, err := env.load(ctx, data.ResearchDevelopmentKey, data.NOPATKey)
			if err != nil {
				return nil, err
			}
			return single(data.RDSpendRateKey, Ratio(series[0], series[1])), nil
		},
	},
	{
		Name:     "Net CapEx",
		Inputs:   []string{data.CapitalExpendituresKey, data.DepreciationAmortizationKey},
		Outputs:  []string{NetCapExKey},
		Internal: true,
		compute: func(ctx context.Context, env *env) (map[string]data.Series, error) {
			series, err := env.load(ctx, data.CapitalExpendituresKey, data.DepreciationAmortizationKey)
			if err != nil {
				return nil, err
			}
			return single(NetCapExKey, NetCapEx(series[0], series[1])), nil
		},
	},
	{
		Name:     "Change in Non-Cash Working Capital",
		Inputs:   []string{data.NonCashWorkingCapitalKey},
		Outputs:  []string{DeltaNCWCKey},
		Internal: true,
		compute: func(ctx context.Context, env *env) (map[string]data.Series, error) {
			series, err := env.load(ctx, data.NonCashWorkingCapitalKey)
			if err != nil {
				return nil, err
			}
			return single(DeltaNCWCKey, DeltaNCWC(series[0])), nil
		},
	},
	{
		Name:    "FCFF",
		Inputs:  []string{data.NOPATKey, NetCapExKey, DeltaNCWCKey},
		Outputs: []string{data.FCFFKey},
		compute: func(ctx context.Context, env *env) (map[string]data.Series, error) {
			series, err := env.load(ctx, data.NOPATKey, NetCapExKey, DeltaNCWCKey)
			if err != nil {
				return nil, err
			}
			return single(data.FCFFKey, FCFF(series[0], series[1], series[2])), nil
		},
	},
	{
		Name:    "Reinvestment Rate",
		Inputs:  []string{data.NOPATKey, NetCapExKey, DeltaNCWCKey},
		Outputs: []string{data.ReinvestmentRateKey},
		compute: func(ctx context.Context, env *env) (map[string]data.Series, error) {
			series, err := env.load(ctx, data.NOPATKey, NetCapExKey, DeltaNCWCKey)
			if err != nil {
				return nil, err
			}
			return single(data.ReinvestmentRateKey, ReinvestmentRate(series[0], series[1], series[2])), nil
		},
	},
	{
		Name: "FCFE",
		Inputs: []string{data.NetIncomeKey, data.DepreciationAmortizationKey, data.CapitalExpendituresKey,
			DeltaNCWCKey, data.NetDebtIssuedPaidKey, data.TotalDebtKey},
		Outputs: []string{data.FCFEKey},
		compute: func(ctx context.Context, env *env) (map[string]data.Series, error) {
			series, err := env.load(ctx, data.NetIncomeKey, data.DepreciationAmortizationKey, data.CapitalExpendituresKey,
				DeltaNCWCKey, data.NetDebtIssuedPaidKey, data.TotalDebtKey)
			if err != nil {
				return nil, err
			}
			return single(data.FCFEKey, FCFE(series[0], series[1], series[2], series[3], series[4], series[5])), nil
		},
	},
}

func single(key string, series data.Series) map[string]data.Series {
	return map[string]data.Series{key: series}
}

// producers maps every step output to the step computing it
var producers map[string]*Step

func init() {
	producers = make(map[string]*Step)
	for _, step := range Graph {
		for _, output := range step.Outputs {
			producers[output] = step
		}
	}
}

// StepFor returns the step that computes metric
func StepFor(metric string) (*Step, error) {
	step, ok := producers[metric]
	if !ok || step.Internal {
		return nil, fmt.Errorf("%w: %s", ErrNotDerived, metric)
	}
	return step, nil
}

// DerivedMetrics lists the stored outputs of the graph in execution order
func DerivedMetrics() []string {
	metrics := make([]string, 0, len(Graph))
	for _, step := range Graph {
		if step.Internal {
			continue
		}
		metrics = append(metrics, step.Outputs...)
	}
	return metrics
}

// ValidateGraph checks that every step only consumes raw metrics or outputs
// of steps that run before it, which also rules out cycles
func ValidateGraph(graph []*Step) error {
	position := make(map[string]int)
	for idx, step := range graph {
		for _, output := range step.Outputs {
			if prev, ok := position[output]; ok {
				return fmt.Errorf("%w: %s is produced by steps %d and %d", ErrInvalidGraph, output, prev, idx)
			}
			position[output] = idx
		}
	}

	for idx, step := range graph {
		for _, input := range step.Inputs {
			producer, derived := position[input]
			if !derived {
				if _, ok := data.Metrics[input]; !ok {
					return fmt.Errorf("%w: step %q consumes unknown input %s", ErrInvalidGraph, step.Name, input)
				}
				continue
			}

			if producer >= idx {
				return fmt.Errorf("%w: step %q consumes %s before it is computed", ErrInvalidGraph, step.Name, input)
			}
		}
	}

	return nil
}

// ignoreMissing maps reference.ErrNotFound to a skipped result
func ignoreMissing(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, reference.ErrNotFound) {
		return false, nil
	}
	return false, err
}
