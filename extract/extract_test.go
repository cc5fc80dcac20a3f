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

package extract_test

import (
	"bytes"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"

	"github.com/penny-vault/pvmetrics/data"
	"github.com/penny-vault/pvmetrics/extract"
)

var _ = Describe("Extract", func() {
	Describe("AnnualSeries", func() {
		var sheet *extract.Sheet

		BeforeEach(func() {
			sheet = extract.NewSheet("Income-Annual", [][]string{
				{"Date", "2020-12", "2021-12", "2022-12", "Notes"},
				{"Total Revenue", "90", "95", "99", "x"},
				{"  revenue ", "100", "", "121"},
				{"EBIT", "10", "n/a", "12,500.5", "1"},
			})
		})

		It("matches labels case-insensitively and skips empty cells", func() {
			series, err := sheet.AnnualSeries("Revenue")
			Expect(err).NotTo(HaveOccurred())
			Expect(series).To(Equal(data.Series{2020: 100, 2022: 121}))
		})

		It("only matches a synonym when it is in the label list", func() {
			_, err := sheet.AnnualSeries("Sales")
			Expect(err).To(MatchError(extract.ErrRowNotFound))

			series, err := sheet.AnnualSeries("Sales", "Total Revenue")
			Expect(err).NotTo(HaveOccurred())
			Expect(series).To(Equal(data.Series{2020: 90, 2021: 95, 2022: 99}))
		})

		It("prefers earlier labels over earlier rows", func() {
			series, err := sheet.AnnualSeries("Revenue", "Total Revenue")
			Expect(err).NotTo(HaveOccurred())
			Expect(series[2020]).To(Equal(100.0))
		})

		It("skips headers without a leading year and non-numeric cells", func() {
			series, err := sheet.AnnualSeries("EBIT")
			Expect(err).NotTo(HaveOccurred())
			Expect(series).To(Equal(data.Series{2020: 10, 2022: 12500.5}))
		})

		It("reads years from date-formatted headers", func() {
			dated := extract.NewSheet("Income-Annual", [][]string{
				{"Date", "12/31/22 00:00", "12/31/23 00:00", "TTM"},
				{"Revenue", "100", "110", "115"},
			})
			series, err := dated.AnnualSeries("Revenue")
			Expect(err).NotTo(HaveOccurred())
			Expect(series).To(Equal(data.Series{2022: 100, 2023: 110}))
		})

		It("returns points in ascending year order", func() {
			series, err := sheet.AnnualSeries("Revenue")
			Expect(err).NotTo(HaveOccurred())
			Expect(series.Points()).To(Equal([]data.Point{{Year: 2020, Value: 100}, {Year: 2022, Value: 121}}))
		})
	})

	Describe("LatestTTM", func() {
		It("prefers the latest date over an unparseable last column", func() {
			sheet := extract.NewSheet("Income-TTM", [][]string{
				{"Date", "2023-06-30", "2023-09-30", "Current"},
				{"Revenue", "380", "383", "999"},
			})

			ttm, err := sheet.LatestTTM("Revenue")
			Expect(err).NotTo(HaveOccurred())
			Expect(ttm).To(Equal(data.TTM{AsOf: "2023-09-30", Value: 383}))
		})

		It("uses the latest date regardless of column order", func() {
			sheet := extract.NewSheet("Income-TTM", [][]string{
				{"Date", "Sep 30, 2023", "Jun 30, 2023"},
				{"Revenue", "383", "380"},
			})

			ttm, err := sheet.LatestTTM("Revenue")
			Expect(err).NotTo(HaveOccurred())
			Expect(ttm.Value).To(Equal(383.0))
		})

		It("falls back to the last non-empty column when no header is a date", func() {
			sheet := extract.NewSheet("Income-TTM", [][]string{
				{"Date", "TTM", "Current", "Other"},
				{"Revenue", "1", "2", ""},
			})

			ttm, err := sheet.LatestTTM("Revenue")
			Expect(err).NotTo(HaveOccurred())
			Expect(ttm).To(Equal(data.TTM{AsOf: "Current", Value: 2}))
		})

		It("reports a row without values", func() {
			sheet := extract.NewSheet("Income-TTM", [][]string{
				{"Date", "2023-09-30"},
				{"Revenue", ""},
			})

			_, err := sheet.LatestTTM("Revenue")
			Expect(err).To(MatchError(extract.ErrNoValue))
			Expect(err).To(MatchError(extract.ErrNotFound))
		})
	})

	Describe("Workbook", func() {
		var wb *extract.Workbook

		BeforeEach(func() {
			wb = extract.NewWorkbook(
				extract.NewSheet("Cash-Flow-Annual", [][]string{
					{"Date", "2021", "2022"},
					{"Capital Expenditures", "-5", "-6"},
				}),
			)
		})

		It("reads a field through its synonyms", func() {
			series, err := wb.Annual(extract.Fields[data.CapitalExpendituresKey])
			Expect(err).NotTo(HaveOccurred())
			Expect(series).To(Equal(data.Series{2021: -5, 2022: -6}))
		})

		It("substitutes an empty series for missing optional fields", func() {
			series, err := wb.Annual(extract.Fields[data.NetDebtIssuedPaidKey])
			Expect(err).NotTo(HaveOccurred())
			Expect(series).To(BeEmpty())

			ttm, err := wb.TTM(extract.Fields[data.NetDebtIssuedPaidKey])
			Expect(err).NotTo(HaveOccurred())
			Expect(ttm).To(Equal(data.TTM{}))
		})

		It("fails on missing required fields", func() {
			_, err := wb.Annual(extract.Fields[data.DepreciationAmortizationKey])
			Expect(err).To(MatchError(extract.ErrRowNotFound))

			_, err = wb.Annual(extract.Fields[data.RevenueKey])
			Expect(err).To(MatchError(extract.ErrSheetNotFound))
		})

		It("opens an xlsx file", func() {
			xl := excelize.NewFile()
			_, err := xl.NewSheet("Income-Annual")
			Expect(err).NotTo(HaveOccurred())
			Expect(xl.SetSheetRow("Income-Annual", "A1", &[]interface{}{"Date", "2021-12", "2022-12"})).To(Succeed())
			Expect(xl.SetSheetRow("Income-Annual", "A2", &[]interface{}{"Revenue", 1234.5678, 2345.25})).To(Succeed())

			var buf bytes.Buffer
			Expect(xl.Write(&buf)).To(Succeed())

			opened, err := extract.Open(&buf)
			Expect(err).NotTo(HaveOccurred())

			series, err := opened.Annual(extract.Fields[data.RevenueKey])
			Expect(err).NotTo(HaveOccurred())
			Expect(series).To(Equal(data.Series{2021: 1234.5678, 2022: 2345.25}))
		})

		It("opens an xlsx file with date-typed headers", func() {
			xl := excelize.NewFile()
			_, err := xl.NewSheet("Income-Annual")
			Expect(err).NotTo(HaveOccurred())
			Expect(xl.SetSheetRow("Income-Annual", "A1", &[]interface{}{"Date",
				time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC),
				time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)})).To(Succeed())
			Expect(xl.SetSheetRow("Income-Annual", "A2", &[]interface{}{"Revenue", 100, 110})).To(Succeed())

			var buf bytes.Buffer
			Expect(xl.Write(&buf)).To(Succeed())

			opened, err := extract.Open(&buf)
			Expect(err).NotTo(HaveOccurred())

			series, err := opened.Annual(extract.Fields[data.RevenueKey])
			Expect(err).NotTo(HaveOccurred())
			Expect(series).To(Equal(data.Series{2022: 100, 2023: 110}))
		})

		It("prefers the first sheet in workbook order on a case-insensitive match", func() {
			wb := extract.NewWorkbook(
				extract.NewSheet("income-annual", [][]string{{"Date", "2022"}, {"Revenue", "1"}}),
				extract.NewSheet("INCOME-ANNUAL", [][]string{{"Date", "2022"}, {"Revenue", "2"}}),
			)
			for i := 0; i < 20; i++ {
				sheet, err := wb.Sheet("Income-Annual")
				Expect(err).NotTo(HaveOccurred())
				Expect(sheet.Name).To(Equal("income-annual"))
			}
			Expect(wb.SheetNames()).To(Equal([]string{"income-annual", "INCOME-ANNUAL"}))
		})
	})

	Describe("ParseDate", func() {
		DescribeTable("recognizes common header formats",
			func(header string, year int) {
				when, ok := extract.ParseDate(header)
				Expect(ok).To(BeTrue())
				Expect(when.Year()).To(Equal(year))
			},
			Entry("iso", "2023-09-30", 2023),
			Entry("us", "9/30/2023", 2023),
			Entry("month name", "Sep 30, 2023", 2023),
			Entry("month year", "Sep 2023", 2023),
			Entry("excel display", "12/31/22 00:00", 2022),
		)

		It("rejects labels", func() {
			_, ok := extract.ParseDate("TTM")
			Expect(ok).To(BeFalse())
			_, ok = extract.ParseDate("Current")
			Expect(ok).To(BeFalse())
			_, ok = extract.ParseDate("Q1'23")
			Expect(ok).To(BeFalse())
		})
	})
})
