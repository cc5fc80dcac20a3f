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

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvmetrics/data"
	"github.com/penny-vault/pvmetrics/extract"
	"github.com/penny-vault/pvmetrics/ingest"
)

var statementValues = map[string]cells{
	data.RevenueKey:              {"1000", "1100", "1200"},
	data.CapitalExpendituresKey:  {"-50", "-60", "-70"},
	data.ResearchDevelopmentKey:  {"-5", "6", "-7"},
	data.MarketCapitalizationKey: {"500", "600", "700"},
	data.ROICKey:                 {"0.12", "15", "0.2"},
	data.EffectiveTaxRateKey:     {"0.25", "0.25", "0.25"},
	data.EBITKey:                 {"100", "200", "300"},
	data.OperatingIncomeKey:      {"40", "50", "60"},
	data.InterestExpenseKey:      {"10", "0", "5"},
}

var _ = Describe("Ingest", func() {
	Describe("ParseIdentity", func() {
		It("splits the name and ticker", func() {
			name, ticker, err := ingest.ParseIdentity("  Automatic Data Processing, Inc. (adp) ")
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("Automatic Data Processing, Inc."))
			Expect(ticker).To(Equal("ADP"))
		})

		DescribeTable("rejects malformed identities",
			func(identity string) {
				_, _, err := ingest.ParseIdentity(identity)
				Expect(err).To(MatchError(ingest.ErrMalformedIdentity))
			},
			Entry("no ticker", "Apple Inc."),
			Entry("trailing text", "Apple Inc. (AAPL) common"),
			Entry("empty ticker", "Apple Inc. ( )"),
			Entry("no name", "(AAPL)"),
		)
	})

	Describe("Extract", func() {
		var stmts *ingest.Statements

		BeforeEach(func() {
			var err error
			stmts, err = ingest.Extract(buildWorkbook(statementValues, data.NetDebtIssuedPaidKey))
			Expect(err).NotTo(HaveOccurred())
		})

		It("merges the TTM value at its as-of year", func() {
			Expect(stmts.Annual[data.RevenueKey]).To(Equal(data.Series{2021: 1000, 2022: 1100, 2023: 1200}))
			Expect(stmts.TTM[data.RevenueKey]).To(Equal(data.TTM{AsOf: "2023-06-30", Value: 1200}))
		})

		It("replaces the TTM year of ratio fields", func() {
			Expect(stmts.Annual[data.MarketCapitalizationKey]).To(Equal(data.Series{2021: 500, 2022: 700}))
			Expect(stmts.Annual[data.ROICKey]).To(Equal(data.Series{2021: 12, 2022: 20}))
		})

		It("stores capex as an outflow and R&D as an absolute value", func() {
			Expect(stmts.Annual[data.CapitalExpendituresKey]).To(Equal(data.Series{2021: 50, 2022: 60, 2023: 70}))
			Expect(stmts.Annual[data.ResearchDevelopmentKey]).To(Equal(data.Series{2021: 5, 2022: 6, 2023: 7}))
		})

		It("derives NOPAT and interest coverage", func() {
			Expect(stmts.Annual[data.NOPATKey]).To(Equal(data.Series{2021: 75, 2022: 150, 2023: 225}))
			Expect(stmts.Annual[data.InterestCoverageKey]).To(HaveKeyWithValue(2021, 4.0))
			Expect(stmts.Annual[data.InterestCoverageKey][2022]).To(BeNumerically("~", 5000, 1e-6))
			Expect(stmts.Annual[data.InterestLoadKey]).To(HaveKeyWithValue(2021, 25.0))
		})

		It("leaves an absent optional field empty", func() {
			Expect(stmts.Annual[data.NetDebtIssuedPaidKey]).To(BeEmpty())
		})

		It("reports every missing required field", func() {
			_, err := ingest.Extract(buildWorkbook(statementValues, data.CapitalExpendituresKey, data.TotalDebtKey))
			Expect(err).To(MatchError(extract.ErrNotFound))
			Expect(err.Error()).To(ContainSubstring(data.CapitalExpendituresKey))
			Expect(err.Error()).To(ContainSubstring(data.TotalDebtKey))
		})
	})

	Describe("Derived raw metrics", func() {
		It("falls back to a tiny interest expense", func() {
			coverage := ingest.InterestCoverage(data.Series{2020: 1, 2021: 2}, data.Series{2021: 0})
			Expect(coverage).To(Equal(data.Series{2020: 100, 2021: 200}))
		})

		It("records a minimal interest load for zero coverage", func() {
			Expect(ingest.InterestLoad(data.Series{2020: 0, 2021: 4})).To(Equal(data.Series{2020: 0.001, 2021: 25}))
		})

		It("averages capital employed over consecutive years for ROCE", func() {
			roce := ingest.ROCE(data.Series{2021: 30, 2023: 10}, data.Series{2020: 100, 2021: 200, 2023: 50})
			Expect(roce).To(Equal(data.Series{2021: 0.2}))
		})

		It("computes non-cash working capital and its revenue yield", func() {
			ncwc := ingest.NonCashWorkingCapital(
				data.Series{2021: 500},
				data.Series{2021: 100},
				data.Series{2021: 300},
				data.Series{2021: 50},
			)
			Expect(ncwc).To(Equal(data.Series{2021: 150}))
			Expect(ingest.RevenueYield(ncwc, data.Series{2021: 1000})).To(Equal(data.Series{2021: 0.85}))
			Expect(ingest.RevenueYield(ncwc, data.Series{2021: 0})).To(BeEmpty())
		})

		It("keeps all annual ratio values when the TTM label has no year", func() {
			merged := ingest.MergeRatioTTM(data.Series{2021: 0.1, 2022: 0.2}, data.TTM{AsOf: "Current", Value: 0.3}, ingest.PercentPoints)
			Expect(merged).To(Equal(data.Series{2021: 10, 2022: 20}))
		})
	})

	Describe("Ingester", func() {
		var (
			ctx      context.Context
			store    *fakeStore
			runner   *fakeRunner
			ingester *ingest.Ingester
			wb       *extract.Workbook
		)

		BeforeEach(func() {
			ctx = context.Background()
			store = newFakeStore()
			runner = &fakeRunner{}
			ingester = ingest.New(store, runner)
			wb = buildWorkbook(statementValues)
		})

		It("stores the company, its series and snapshots and runs the engine", func() {
			country := "United Kingdom"
			result, err := ingester.IngestIdentity(ctx, wb, "Acme Corp (acme)", &country, "Industrials")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.CompanyID).To(Equal(int64(1)))
			Expect(result.EngineErr).NotTo(HaveOccurred())

			Expect(store.companies).To(HaveKey("Acme Corp|ACME"))
			Expect(store.annual[data.RevenueKey][1]).To(Equal(data.Series{2021: 1000, 2022: 1100, 2023: 1200}))
			Expect(store.annual[data.NOPATKey][1]).To(HaveLen(3))
			Expect(store.ttm[data.RevenueKey][1].asOf).To(Equal("2023-06-30"))
			Expect(store.ttm).NotTo(HaveKey(data.MarketCapitalizationKey))

			Expect(store.groups).To(HaveKey("Industrials"))
			Expect(store.members[store.groups["Industrials"]]).To(ConsistOf(int64(1)))
			Expect(runner.ran).To(Equal([]int64{1}))
		})

		It("does not fail when derived metrics fail", func() {
			runner.err = errors.New("wacc failed")
			result, err := ingester.Ingest(ctx, wb, ingest.Request{Name: "Acme Corp", Ticker: "ACME"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.EngineErr).To(HaveOccurred())
		})

		It("writes the remaining series when one fails", func() {
			store.failOn[data.RevenueKey] = true
			_, err := ingester.Ingest(ctx, wb, ingest.Request{Name: "Acme Corp", Ticker: "ACME"})
			Expect(err).To(HaveOccurred())
			Expect(store.annual).To(HaveKey(data.EBITKey))
			Expect(runner.ran).To(BeEmpty())
		})

		It("rejects malformed identities before touching the store", func() {
			_, err := ingester.IngestIdentity(ctx, wb, "Acme Corp", nil, "")
			Expect(err).To(MatchError(ingest.ErrMalformedIdentity))
			Expect(store.companies).To(BeEmpty())
		})

		It("is idempotent", func() {
			_, err := ingester.Ingest(ctx, wb, ingest.Request{Name: "Acme Corp", Ticker: "ACME"})
			Expect(err).NotTo(HaveOccurred())
			first := store.annual[data.ROCEKey][1].Clone()

			result, err := ingester.Ingest(ctx, wb, ingest.Request{Name: "Acme Corp", Ticker: "ACME"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.CompanyID).To(Equal(int64(1)))
			Expect(store.annual[data.ROCEKey][1]).To(Equal(first))
		})
	})
})
