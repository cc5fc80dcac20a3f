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

package reference_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvmetrics/data"
	"github.com/penny-vault/pvmetrics/reference"
)

var _ = Describe("Resolver", func() {
	var (
		ctx      context.Context
		src      *fakeSource
		resolver *reference.Resolver
	)

	BeforeEach(func() {
		ctx = context.Background()
		src = newFakeSource()
		src.rfr[2024] = &data.RiskFreeRate{Year: 2024, USA: 4.25, India: pct(6.95), China: pct(2.30), Japan: pct(0.92)}
		src.crp[2024] = &data.CountryRiskPremium{Year: 2024, US: 0.1, India: 2.93, China: 0.94, UK: 0.80, UAE: 0.66}
		src.erp[2024] = &data.ImpliedERP{Year: 2024, ImpliedERP: 4.60}
		resolver = reference.NewResolver(src)
	})

	DescribeTable("picks the risk-free rate column by country",
		func(country string, expected float64) {
			rfr, err := resolver.RiskFreeRate(ctx, country, 2024)
			Expect(err).NotTo(HaveOccurred())
			Expect(rfr).To(Equal(expected))
		},
		Entry("USA", "USA", 4.25),
		Entry("India alias", "IN", 6.95),
		Entry("China", "China", 2.30),
		Entry("Japan", "japan", 0.92),
		Entry("UK uses the USA column", "United Kingdom", 4.25),
		Entry("UAE uses the USA column", "UAE", 4.25),
		Entry("unknown countries use the USA column", "Bermuda", 4.25),
	)

	It("has no fallback for a missing risk-free year", func() {
		_, err := resolver.RiskFreeRate(ctx, "USA", 1999)
		Expect(err).To(MatchError(reference.ErrNotFound))
	})

	It("reports a country column without a rate", func() {
		src.rfr[2025] = &data.RiskFreeRate{Year: 2025, USA: 4.0, China: pct(1.83)}

		_, err := resolver.RiskFreeRate(ctx, "India", 2025)
		Expect(err).To(MatchError(reference.ErrNotFound))
		_, err = resolver.RiskFreeRate(ctx, "Japan", 2025)
		Expect(err).To(MatchError(reference.ErrNotFound))

		rfr, err := resolver.RiskFreeRate(ctx, "China", 2025)
		Expect(err).NotTo(HaveOccurred())
		Expect(rfr).To(Equal(1.83))

		rfr, err = resolver.RiskFreeRate(ctx, "UK", 2025)
		Expect(err).NotTo(HaveOccurred())
		Expect(rfr).To(Equal(4.0))
	})

	DescribeTable("picks the country risk premium column by country",
		func(country string, expected float64) {
			crp, err := resolver.CountryRiskPremium(ctx, country, 2024)
			Expect(err).NotTo(HaveOccurred())
			Expect(crp).To(Equal(expected))
		},
		Entry("UK", "UK", 0.80),
		Entry("UAE", "United Arab Emirates", 0.66),
		Entry("India", "India", 2.93),
		Entry("unknown countries use the US column", "Bermuda", 0.1),
	)

	It("returns the implied equity risk premium", func() {
		erp, err := resolver.ImpliedERP(ctx, 2024)
		Expect(err).NotTo(HaveOccurred())
		Expect(erp).To(Equal(4.60))
	})

	Describe("TaxRate", func() {
		BeforeEach(func() {
			src.tax["US"] = &data.TaxRate{Country: "US", EffectiveRate: 25.70}
			src.tax["IN"] = &data.TaxRate{Country: "IN", EffectiveRate: 0.2517}
		})

		It("finds a rate stored under an alias and converts percentages", func() {
			tax, err := resolver.TaxRate(ctx, "USA")
			Expect(err).NotTo(HaveOccurred())
			Expect(tax).To(BeNumerically("~", 0.257, 1e-12))
		})

		It("keeps rates that are already fractions", func() {
			tax, err := resolver.TaxRate(ctx, "India")
			Expect(err).NotTo(HaveOccurred())
			Expect(tax).To(Equal(0.2517))
		})

		It("falls back to the USA rate", func() {
			tax, err := resolver.TaxRate(ctx, "Bermuda")
			Expect(err).NotTo(HaveOccurred())
			Expect(tax).To(BeNumerically("~", 0.257, 1e-12))
		})

		It("fails when no rate exists at all", func() {
			empty := reference.NewResolver(newFakeSource())
			_, err := empty.TaxRate(ctx, "Japan")
			Expect(err).To(MatchError(reference.ErrNotFound))
		})
	})

	Describe("UnleveredBeta", func() {
		It("averages every matched bucket", func() {
			src.betas[7] = []float64{1.36, 1.20}
			beta, err := resolver.UnleveredBeta(ctx, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(beta).To(BeNumerically("~", 1.28, 1e-12))
		})

		It("reports companies without a bucket", func() {
			_, err := resolver.UnleveredBeta(ctx, 8)
			Expect(err).To(MatchError(reference.ErrNotFound))
		})
	})

	Describe("ImportCSV", func() {
		It("imports risk-free rates", func() {
			csv := "year,usa_rf,india_rf,china_rf,japan_rf\n2026,4.1,6.4,1.8,1.9\n"
			count, err := reference.ImportCSV(ctx, src, reference.RiskFreeRatesTable, strings.NewReader(csv))
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
			Expect(*src.rfr[2026].India).To(Equal(6.4))
		})

		It("leaves blank country rates unset", func() {
			csv := "year,usa_rf,india_rf,china_rf,japan_rf\n2026,4.1,,1.8,\n"
			_, err := reference.ImportCSV(ctx, src, reference.RiskFreeRatesTable, strings.NewReader(csv))
			Expect(err).NotTo(HaveOccurred())
			Expect(src.rfr[2026].India).To(BeNil())
			Expect(src.rfr[2026].Japan).To(BeNil())
			Expect(*src.rfr[2026].China).To(Equal(1.8))
		})

		It("replaces tax rates", func() {
			csv := "country,effective_rate,notes\n USA ,25.7,composite\nJapan,30.62,\n"
			count, err := reference.ImportCSV(ctx, src, reference.TaxRatesTable, strings.NewReader(csv))
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(2))
			Expect(src.taxRows[0].Country).To(Equal("USA"))
		})

		It("rejects rows that fail validation", func() {
			csv := "user_industry_bucket,mapped_sector,unlevered_beta,cash_adjusted_beta\n,Semiconductor,1.36,1.45\n"
			_, err := reference.ImportCSV(ctx, src, reference.IndustryBetasTable, strings.NewReader(csv))
			Expect(err).To(HaveOccurred())
			Expect(src.ibRows).To(BeNil())
		})

		It("rejects unknown tables", func() {
			_, err := reference.ImportCSV(ctx, src, "bogus", strings.NewReader(""))
			Expect(err).To(MatchError(reference.ErrUnknownTable))
		})
	})

	Describe("FredClient", func() {
		It("averages the treasury yield over the year", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Query().Get("series_id")).To(Equal(reference.TreasurySeries))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"observations":[
					{"date":"2024-01-02","value":"4.0"},
					{"date":"2024-01-03","value":"."},
					{"date":"2024-06-03","value":"4.5"}
				]}`))
			}))
			defer server.Close()

			fred := reference.NewFredClient("key")
			fred.BaseURL = server.URL

			avg, err := reference.FetchRiskFreeRate(ctx, fred, src, 2024)
			Expect(err).NotTo(HaveOccurred())
			Expect(avg).To(BeNumerically("~", 4.25, 1e-12))
			Expect(src.rfr[2024].USA).To(BeNumerically("~", 4.25, 1e-12))
			Expect(*src.rfr[2024].India).To(Equal(6.95))
		})

		It("does not invent country rates for a new year", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"observations":[{"date":"2026-03-02","value":"4.1"}]}`))
			}))
			defer server.Close()

			fred := reference.NewFredClient("key")
			fred.BaseURL = server.URL

			_, err := reference.FetchRiskFreeRate(ctx, fred, src, 2026)
			Expect(err).NotTo(HaveOccurred())

			rfr, err := resolver.RiskFreeRate(ctx, "USA", 2026)
			Expect(err).NotTo(HaveOccurred())
			Expect(rfr).To(Equal(4.1))

			_, err = resolver.RiskFreeRate(ctx, "India", 2026)
			Expect(err).To(MatchError(reference.ErrNotFound))
		})

		It("reports FRED errors", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error_code":400,"error_message":"Bad Request. The value for variable api_key is not registered."}`))
			}))
			defer server.Close()

			fred := reference.NewFredClient("bad")
			fred.BaseURL = server.URL

			_, _, err := fred.YearlyAverage(ctx, reference.TreasurySeries, 2024)
			Expect(err).To(MatchError(ContainSubstring("api_key")))
		})
	})
})
