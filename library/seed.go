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

package library

import (
	"context"
	"fmt"

	"github.com/penny-vault/pvmetrics/data"
	"github.com/rs/zerolog/log"
)

var defaultGrowthWeights = []*data.WeightFactor{
	{Factor: "Accumulated Equity Growth", Weight: 12.0},
	{Factor: "Pretax Income Growth", Weight: 12.0},
	{Factor: "ROCE", Weight: 15.0},
	{Factor: "Net Income Growth", Weight: 20.0},
	{Factor: "ROE", Weight: 20.0},
	{Factor: "Revenue Growth", Weight: 15.0},
	{Factor: "Operating Margin", Weight: 20.0},
	{Factor: "YoY Operating Margin Growth", Weight: 20.0},
	{Factor: "NOPAT Growth", Weight: 15.0},
	{Factor: "FCFE Growth", Weight: 15.0},
	{Factor: "Earnings Power Change %", Weight: 20.0},
	{Factor: "Change in EP Delta", Weight: 20.0},
	{Factor: "Spread", Weight: 20.0},
}

var defaultStddevWeights = []*data.WeightFactor{
	{Factor: "Revenue Growth", Weight: 20.0},
	{Factor: "Net Income Growth", Weight: 20.0},
	{Factor: "Operating Margin", Weight: 20.0},
	{Factor: "ROE", Weight: 20.0},
	{Factor: "ROCE", Weight: 20.0},
	{Factor: "Pretax Income Growth", Weight: 15.0},
	{Factor: "Accumulated Equity Growth", Weight: 15.0},
	{Factor: "NOPAT Growth", Weight: 15.0},
	{Factor: "YoY Operating Margin Growth", Weight: 12.0},
	{Factor: "Earnings Power Change %", Weight: 10.0},
	{Factor: "Change in EP Delta", Weight: 10.0},
	{Factor: "Spread", Weight: 10.0},
	{Factor: "FCFE Growth", Weight: 10.0},
}

func pct(val float64) *float64 {
	return &val
}

var defaultRiskFreeRates = []*data.RiskFreeRate{
	{Year: 2015, USA: 2.14, India: pct(7.70), China: pct(3.40), Japan: pct(0.36)},
	{Year: 2016, USA: 1.84, India: pct(6.95), China: pct(2.90), Japan: pct(-0.06)},
	{Year: 2017, USA: 2.33, India: pct(6.70), China: pct(3.60), Japan: pct(0.05)},
	{Year: 2018, USA: 2.91, India: pct(7.70), China: pct(3.60), Japan: pct(0.07)},
	{Year: 2019, USA: 2.14, India: pct(6.70), China: pct(3.20), Japan: pct(-0.10)},
	{Year: 2020, USA: 0.89, India: pct(5.95), China: pct(2.90), Japan: pct(0.01)},
	{Year: 2021, USA: 1.45, India: pct(6.20), China: pct(2.95), Japan: pct(0.07)},
	{Year: 2022, USA: 2.95, India: pct(7.29), China: pct(2.75), Japan: pct(0.23)},
	{Year: 2023, USA: 3.96, India: pct(7.18), China: pct(2.70), Japan: pct(0.56)},
	{Year: 2024, USA: 4.25, India: pct(6.95), China: pct(2.30), Japan: pct(0.92)},
	{Year: 2025, USA: 4.00, India: pct(6.49), China: pct(1.83), Japan: pct(1.80)},
}

var defaultIndexPriceMovements = []*data.IndexPriceMovement{
	{Year: 2015, NasdaqComposite: 5.70, SP500: -0.70},
	{Year: 2016, NasdaqComposite: 7.50, SP500: 9.50},
	{Year: 2017, NasdaqComposite: 28.20, SP500: 19.40},
	{Year: 2018, NasdaqComposite: -3.90, SP500: -6.20},
	{Year: 2019, NasdaqComposite: 35.20, SP500: 28.90},
	{Year: 2020, NasdaqComposite: 43.60, SP500: 16.30},
	{Year: 2021, NasdaqComposite: 21.40, SP500: 26.90},
	{Year: 2022, NasdaqComposite: -33.10, SP500: -19.40},
	{Year: 2023, NasdaqComposite: 43.40, SP500: 24.20},
	{Year: 2024, NasdaqComposite: 28.60, SP500: 23.30},
	{Year: 2025, NasdaqComposite: 19.20, SP500: 15.00},
}

var defaultImpliedERPs = []*data.ImpliedERP{
	{Year: 2010, ImpliedERP: 4.36, Notes: "Recovery from 2008 Financial Crisis."},
	{Year: 2011, ImpliedERP: 5.20, Notes: "Recovery from 2010 flash crash/jitters."},
	{Year: 2012, ImpliedERP: 6.01, Notes: "Eurozone debt crisis fears."},
	{Year: 2013, ImpliedERP: 5.78, Notes: "Fiscal cliff concerns early in the year."},
	{Year: 2014, ImpliedERP: 4.96, Notes: "Low volatility environment."},
	{Year: 2015, ImpliedERP: 5.78, Notes: "Steady recovery pricing."},
	{Year: 2016, ImpliedERP: 6.12, Notes: "Concerns over China growth and oil price crash."},
	{Year: 2017, ImpliedERP: 5.69, Notes: "Post-election uncertainty and growth hopes."},
	{Year: 2018, ImpliedERP: 5.08, Notes: "Tax cuts enacted; steady growth expectations."},
	{Year: 2019, ImpliedERP: 5.96, Notes: "Higher risk pricing following late 2018 market drop."},
	{Year: 2020, ImpliedERP: 5.20, Notes: "Pre-pandemic level (spiked to >6.0% in March 2020)."},
	{Year: 2021, ImpliedERP: 4.72, Notes: "Post-COVID recovery optimism."},
	{Year: 2022, ImpliedERP: 4.24, Notes: "Low ERP at start of year before inflation/rates spiked."},
	{Year: 2023, ImpliedERP: 5.94, Notes: "Spike due to high inflation and aggressive Fed hikes."},
	{Year: 2024, ImpliedERP: 4.60, Notes: "Decreased from 2023 as inflation fears eased."},
	{Year: 2025, ImpliedERP: 4.33, Notes: `Market priced for "soft landing" despite high rates.`},
}

var defaultCountryRiskPremiums = []*data.CountryRiskPremium{
	{Year: 2015, India: 3.46, China: 0.95, Japan: 1.11, US: 0.00, UK: 0.63, UAE: 0.78},
	{Year: 2016, India: 3.13, China: 0.86, Japan: 1.00, US: 0.00, UK: 0.56, UAE: 0.71},
	{Year: 2017, India: 2.19, China: 0.81, Japan: 0.81, US: 0.00, UK: 0.57, UAE: 0.57},
	{Year: 2018, India: 2.64, China: 0.98, Japan: 0.98, US: 0.00, UK: 0.69, UAE: 0.69},
	{Year: 2019, India: 1.88, China: 0.69, Japan: 0.69, US: 0.00, UK: 0.49, UAE: 0.49},
	{Year: 2020, India: 2.13, China: 0.68, Japan: 0.68, US: 0.00, UK: 0.59, UAE: 0.48},
	{Year: 2021, India: 2.18, China: 0.70, Japan: 0.70, US: 0.00, UK: 0.60, UAE: 0.49},
	{Year: 2022, India: 3.79, China: 1.22, Japan: 1.22, US: 0.00, UK: 1.03, UAE: 0.85},
	{Year: 2023, India: 3.21, China: 1.03, Japan: 1.03, US: 0.00, UK: 0.88, UAE: 0.72},
	{Year: 2024, India: 2.93, China: 0.94, Japan: 0.94, US: 0.00, UK: 0.80, UAE: 0.66},
	{Year: 2025, India: 2.85, China: 0.91, Japan: 0.91, US: 0.23, UK: 0.78, UAE: 0.64},
}

var defaultTaxRates = []*data.TaxRate{
	{
		Country:       data.CountryUSA,
		EffectiveRate: 25.70,
		Notes:         "Federal (21%) + State Tax (~4-5%). State taxes vary by state; 25.7% is the OECD composite rate commonly used for a diversified US company.",
	},
	{
		Country:       data.CountryIndia,
		EffectiveRate: 25.17,
		Notes:         "Base (22%) + Surcharge (10%) + Cess (4%) under Section 115BAA. Companies on the old regime pay 34.94%.",
	},
	{
		Country:       data.CountryChina,
		EffectiveRate: 25.00,
		Notes:         "Standard national rate. Qualified High-Tech Enterprises pay 15%.",
	},
	{
		Country:       data.CountryJapan,
		EffectiveRate: 30.62,
		Notes:         "National + Local Inhabitant + Enterprise Tax. The headline rate is 23.2%; the effective statutory rate is 30.62%.",
	},
}

var defaultIndustryBetas = []*data.IndustryBeta{
	{Bucket: "Technology : Internet Content & Info", MappedSector: "Software (Internet)", Unlevered: 1.63, CashAdjusted: 1.69},
	{Bucket: "Technology : Semiconductors", MappedSector: "Semiconductor", Unlevered: 1.36, CashAdjusted: 1.45},
	{Bucket: "Technology : Semi. Equip & Materials", MappedSector: "Semiconductor Equip", Unlevered: 1.35, CashAdjusted: 1.44},
	{Bucket: "Technology : Software - Infrastructure", MappedSector: "Software (System & Application)", Unlevered: 1.20, CashAdjusted: 1.22},
	{Bucket: "Technology : Software - Application", MappedSector: "Software (System & Application)", Unlevered: 1.20, CashAdjusted: 1.22},
	{Bucket: "Technology : Scientific Instruments", MappedSector: "Electrical Equipment", Unlevered: 1.20, CashAdjusted: 1.23},
	{Bucket: "Technology : Computer Hardware", MappedSector: "Computers/Peripherals", Unlevered: 1.10, CashAdjusted: 1.12},
	{Bucket: "Technology : IT Services", MappedSector: "Computer Services", Unlevered: 1.03, CashAdjusted: 1.09},
	{Bucket: "Technology : Electronic Components", MappedSector: "Electronics (General)", Unlevered: 1.01, CashAdjusted: 1.03},
	{Bucket: "Technology : Comm. Equipment", MappedSector: "Telecom. Equipment", Unlevered: 0.91, CashAdjusted: 0.95},
	{Bucket: "Technology : Electronics & Distribution", MappedSector: "Retail (Distributors)", Unlevered: 0.91, CashAdjusted: 0.93},
	{Bucket: "Technology : Consumer Electronics", MappedSector: "Electronics (Consumer & Office)", Unlevered: 0.84, CashAdjusted: 0.95},
	{Bucket: "Technology : Solar", MappedSector: "Green & Renewable Energy", Unlevered: 0.49, CashAdjusted: 0.50},
	{Bucket: "Technology : Telecom (Wireless)", MappedSector: "Telecom (Wireless)", Unlevered: 0.57, CashAdjusted: 0.59},
}

type seeder struct {
	table string
	seed  func(ctx context.Context) error
}

// Seed writes the default reference data into every table that is empty.
// Tables that already hold rows are never touched.
func (myLibrary *Library) Seed(ctx context.Context) error {
	seeders := []seeder{
		{data.GrowthWeightTable, func(ctx context.Context) error {
			return myLibrary.insertWeightFactors(ctx, data.GrowthWeightTable, defaultGrowthWeights)
		}},
		{data.StddevWeightTable, func(ctx context.Context) error {
			return myLibrary.insertWeightFactors(ctx, data.StddevWeightTable, defaultStddevWeights)
		}},
		{"risk_free_rates", func(ctx context.Context) error {
			return myLibrary.UpsertRiskFreeRates(ctx, defaultRiskFreeRates)
		}},
		{"index_annual_price_movement", func(ctx context.Context) error {
			return myLibrary.UpsertIndexPriceMovements(ctx, defaultIndexPriceMovements)
		}},
		{"implied_equity_risk_premium_usa", func(ctx context.Context) error {
			return myLibrary.UpsertImpliedERPs(ctx, defaultImpliedERPs)
		}},
		{"country_risk_premium", func(ctx context.Context) error {
			return myLibrary.UpsertCountryRiskPremiums(ctx, defaultCountryRiskPremiums)
		}},
		{"marginal_corporate_tax_rates", func(ctx context.Context) error {
			return myLibrary.ReplaceTaxRates(ctx, defaultTaxRates)
		}},
		{"industry_betas", func(ctx context.Context) error {
			return myLibrary.ReplaceIndustryBetas(ctx, defaultIndustryBetas)
		}},
	}

	for _, s := range seeders {
		count, err := myLibrary.count(ctx, s.table)
		if err != nil {
			return err
		}

		if count > 0 {
			continue
		}

		log.Info().Str("TableName", s.table).Msg("seeding default values")
		if err := s.seed(ctx); err != nil {
			return fmt.Errorf("seeding %s: %w", s.table, err)
		}
	}

	return nil
}

func (myLibrary *Library) insertWeightFactors(ctx context.Context, tbl string, factors []*data.WeightFactor) error {
	if err := checkWeightTable(tbl); err != nil {
		return err
	}

	sql := fmt.Sprintf(`INSERT INTO %s (factor, weight) VALUES ($1, $2)`, tbl)
	args := make([][]interface{}, len(factors))
	for idx, factor := range factors {
		args[idx] = []interface{}{factor.Factor, factor.Weight}
	}

	return myLibrary.execBatch(ctx, "error seeding weight factors", "", sql, args)
}
