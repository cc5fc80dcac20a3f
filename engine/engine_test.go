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
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvmetrics/data"
	"github.com/penny-vault/pvmetrics/engine"
)

var _ = Describe("Engine", func() {
	var (
		ctx   context.Context
		store *memStore
		refs  *fakeRefs
		eng   *engine.Engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newMemStore(1, 2)
		refs = newFakeRefs()

		store.set(data.TotalDebtKey, 1, data.Series{2020: 50, 2021: 50})
		store.set(data.MarketCapitalizationKey, 1, data.Series{2020: 150, 2021: 0})
		store.set(data.InterestCoverageKey, 1, data.Series{2020: 5, 2021: 0.3})
		store.set(data.ROICKey, 1, data.Series{2020: 12})
		store.set(data.ShareholdersEquityKey, 1, data.Series{2019: 100, 2020: 200})
		store.set(data.NetIncomeKey, 1, data.Series{2020: 30})
		store.set(data.ResearchDevelopmentKey, 1, data.Series{2020: 10})
		store.set(data.NOPATKey, 1, data.Series{2020: 40, 2021: 0})
		store.set(data.CapitalExpendituresKey, 1, data.Series{2020: 30, 2021: 20})
		store.set(data.DepreciationAmortizationKey, 1, data.Series{2020: 10, 2021: 10})
		store.set(data.NonCashWorkingCapitalKey, 1, data.Series{2019: 10, 2020: 15})

		refs.rfr[2020] = 4
		refs.rfr[2021] = 4
		refs.erp[2020] = 5
		refs.tax[data.CountryUSA] = 0.25
		refs.betas[1] = 1.0

		eng = engine.New(store, refs)
	})

	It("has a valid graph", func() {
		Expect(engine.ValidateGraph(engine.Graph)).To(Succeed())
		Expect(engine.Graph).To(HaveLen(17))
		Expect(engine.DerivedMetrics()).To(HaveLen(14))
	})

	It("rejects a step that consumes a later output", func() {
		graph := []*engine.Step{
			{Name: "first", Inputs: []string{"second-out"}, Outputs: []string{"first-out"}},
			{Name: "second", Inputs: []string{data.RevenueKey}, Outputs: []string{"second-out"}},
		}
		Expect(engine.ValidateGraph(graph)).To(MatchError(engine.ErrInvalidGraph))
	})

	It("rejects a step that consumes its own output", func() {
		graph := []*engine.Step{
			{Name: "loop", Inputs: []string{"loop-out"}, Outputs: []string{"loop-out"}},
		}
		Expect(engine.ValidateGraph(graph)).To(MatchError(engine.ErrInvalidGraph))
	})

	It("computes the whole chain for a company", func() {
		Expect(eng.Run(ctx, 1)).To(Succeed())

		de := store.get(data.DebtEquityKey, 1)
		Expect(de).To(HaveLen(1))
		Expect(de[2020]).To(BeNumerically("~", 1.0/3.0, 1e-12))

		Expect(store.get(data.LeveredBetaKey, 1)[2020]).To(BeNumerically("~", 1.25, 1e-12))
		Expect(store.get(data.CostOfEquityKey, 1)[2020]).To(BeNumerically("~", 10.25, 1e-12))
		Expect(store.get(data.DefaultSpreadKey, 1)).To(Equal(data.Series{2020: 1.21, 2021: 20}))
		Expect(store.get(data.PreTaxCostOfDebtKey, 1)[2021]).To(BeNumerically("~", 24, 1e-12))

		wacc := store.get(data.WACCKey, 1)
		Expect(wacc).To(HaveLen(1))
		Expect(wacc[2020]).To(BeNumerically("~", 8.664375, 1e-9))
		Expect(store.get(data.ROICWACCSpreadKey, 1)[2020]).To(BeNumerically("~", 3.335625, 1e-9))

		Expect(store.get(data.TotalEquityKey, 1)).To(Equal(data.Series{2019: 100, 2020: 200}))
		Expect(store.get(data.AverageEquityKey, 1)).To(Equal(data.Series{2020: 150}))
		Expect(store.get(data.ROEKey, 1)[2020]).To(BeNumerically("~", 0.2, 1e-12))
		Expect(store.get(data.RDSpendRateKey, 1)).To(Equal(data.Series{2020: 0.25}))
		Expect(store.get(data.FCFFKey, 1)).To(Equal(data.Series{2020: 15}))
		Expect(store.get(data.ReinvestmentRateKey, 1)).To(Equal(data.Series{2020: 0.625}))
		Expect(store.get(data.FCFEKey, 1)).To(Equal(data.Series{2020: 5}))
	})

	It("never stores the internal intermediates", func() {
		Expect(eng.Run(ctx, 1)).To(Succeed())
		Expect(store.series).NotTo(HaveKey(engine.NetCapExKey))
		Expect(store.series).NotTo(HaveKey(engine.DeltaNCWCKey))
		Expect(store.series).NotTo(HaveKey(engine.UnleveredBetaKey))
	})

	It("is idempotent", func() {
		Expect(eng.Run(ctx, 1)).To(Succeed())
		first := map[string]data.Series{}
		for _, metric := range engine.DerivedMetrics() {
			first[metric] = store.get(metric, 1).Clone()
		}

		Expect(eng.Run(ctx, 1)).To(Succeed())
		for _, metric := range engine.DerivedMetrics() {
			Expect(store.get(metric, 1)).To(Equal(first[metric]), metric)
		}
	})

	It("produces no rows for a company without inputs", func() {
		Expect(eng.Run(ctx, 2)).To(Succeed())
		for _, metric := range engine.DerivedMetrics() {
			Expect(store.get(metric, 2)).To(BeEmpty(), metric)
		}
	})

	It("skips beta dependent steps when no industry bucket matches", func() {
		delete(refs.betas, 1)
		Expect(eng.Run(ctx, 1)).To(Succeed())
		Expect(store.get(data.LeveredBetaKey, 1)).To(BeEmpty())
		Expect(store.get(data.CostOfEquityKey, 1)).To(BeEmpty())
		Expect(store.get(data.WACCKey, 1)).To(BeEmpty())
		Expect(store.get(data.DebtEquityKey, 1)).To(HaveLen(1))
	})

	It("skips tax dependent steps when no tax rate is known", func() {
		delete(refs.tax, data.CountryUSA)
		Expect(eng.ComputeAndStore(ctx, data.DebtEquityKey, 1)).To(Succeed())
		Expect(eng.ComputeAndStore(ctx, data.LeveredBetaKey, 1)).To(Succeed())
		Expect(store.get(data.LeveredBetaKey, 1)).To(BeEmpty())
	})

	It("recomputes a single metric from stored inputs", func() {
		store.set(data.DebtEquityKey, 1, data.Series{2020: 0.5})
		Expect(eng.ComputeAndStore(ctx, data.LeveredBetaKey, 1)).To(Succeed())
		Expect(store.get(data.LeveredBetaKey, 1)[2020]).To(BeNumerically("~", 1.375, 1e-12))
	})

	It("rejects metrics that are not derived", func() {
		Expect(eng.ComputeAndStore(ctx, data.RevenueKey, 1)).To(MatchError(engine.ErrNotDerived))
		Expect(eng.ComputeAndStore(ctx, engine.NetCapExKey, 1)).To(MatchError(engine.ErrNotDerived))
	})

	It("returns storage errors", func() {
		store.failOn[data.DebtEquityKey] = errors.New("lock timeout")
		Expect(eng.ComputeAndStore(ctx, data.DebtEquityKey, 1)).To(HaveOccurred())
	})

	Describe("RefreshAll", func() {
		It("refreshes every company and records the run", func() {
			summary := eng.RefreshAll(ctx, data.DebtEquityKey)
			Expect(summary.Err).NotTo(HaveOccurred())
			Expect(summary.Run.Companies).To(Equal(2))
			Expect(summary.Run.Failures).To(Equal(0))
			Expect(store.runs).To(HaveLen(1))
			Expect(store.runs[0].Metric).To(Equal(data.DebtEquityKey))
			Expect(store.get(data.DebtEquityKey, 1)).To(HaveLen(1))
		})

		It("keeps going when a company fails", func() {
			store.set(data.TotalDebtKey, 2, data.Series{2020: 10})
			store.set(data.MarketCapitalizationKey, 2, data.Series{2020: 20})
			store.failOn[data.DebtEquityKey] = errors.New("lock timeout")

			summary := eng.RefreshAll(ctx, data.DebtEquityKey)
			Expect(summary.Err).To(HaveOccurred())
			Expect(summary.Run.Companies).To(Equal(2))
			Expect(summary.Run.Failures).To(Equal(2))
			Expect(store.runs).To(HaveLen(1))
		})

		It("records a run even for an unknown metric", func() {
			summary := eng.RefreshAll(ctx, "not-a-metric")
			Expect(summary.Err).To(MatchError(engine.ErrNotDerived))
			Expect(summary.Run.Companies).To(Equal(0))
			Expect(store.runs).To(HaveLen(1))
		})

		It("refreshes the whole graph in order", func() {
			summaries := eng.RefreshEverything(ctx)
			Expect(summaries).To(HaveLen(14))
			for _, summary := range summaries {
				Expect(summary.Err).NotTo(HaveOccurred())
			}
			Expect(store.get(data.FCFEKey, 1)).To(Equal(data.Series{2020: 5}))
			Expect(store.get(data.ROICWACCSpreadKey, 1)[2020]).To(BeNumerically("~", 3.335625, 1e-9))
		})
	})
})
