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

import "github.com/penny-vault/pvmetrics/data"

// The calculators below are pure: they never fail and simply omit any year
// whose inputs are missing or whose result would be undefined. Callers drop
// non-finite results before storing them.

// DebtEquity = TotalDebt / MarketCap
func DebtEquity(debt, marketCap data.Series) data.Series {
	out := make(data.Series)
	for year, mc := range marketCap {
		d, ok := debt[year]
		if !ok || mc == 0 {
			continue
		}
		out[year] = d / mc
	}
	return out.Finite()
}

// LeveredBeta = unlevered × (1 + (1 − tax) × D/E), tax as a decimal
func LeveredBeta(unlevered, tax float64, debtEquity data.Series) data.Series {
	out := make(data.Series, len(debtEquity))
	for year, de := range debtEquity.Finite() {
		out[year] = unlevered * (1.0 + (1.0-tax)*de)
	}
	return out.Finite()
}

// CostOfEquity = RFR + β × ERP + CRP. Years without a risk-free rate or equity
// risk premium are skipped; a missing country risk premium counts as zero.
func CostOfEquity(beta, riskFree, erp, crp data.Series) data.Series {
	out := make(data.Series)
	for year, b := range beta {
		rf, ok := riskFree[year]
		if !ok {
			continue
		}
		premium, ok := erp[year]
		if !ok {
			continue
		}
		out[year] = rf + b*premium + crp[year]
	}
	return out.Finite()
}

// PreTaxCostOfDebt = RFR + default spread
func PreTaxCostOfDebt(spread, riskFree data.Series) data.Series {
	out := make(data.Series)
	for year, s := range spread {
		rf, ok := riskFree[year]
		if !ok {
			continue
		}
		out[year] = rf + s
	}
	return out.Finite()
}

// WACC = Kd × (1 − T) × D/(D+E) + Ke × E/(D+E) where D is total debt and E
// the market capitalization. Years with D+E == 0 are undefined.
func WACC(debt, marketCap, costOfDebt, costOfEquity data.Series, tax float64) data.Series {
	out := make(data.Series)
	for year, d := range debt {
		e, ok := marketCap[year]
		if !ok {
			continue
		}
		kd, ok := costOfDebt[year]
		if !ok {
			continue
		}
		ke, ok := costOfEquity[year]
		if !ok {
			continue
		}

		v := d + e
		if v == 0 {
			continue
		}

		out[year] = kd*(d*(1.0-tax)/v) + ke*(e/v)
	}
	return out.Finite()
}

// Difference returns a(y) − b(y) for every year present in both series
func Difference(a, b data.Series) data.Series {
	out := make(data.Series)
	for year, x := range a {
		if y, ok := b[year]; ok {
			out[year] = x - y
		}
	}
	return out.Finite()
}

// AverageEquity(y) = ½ × (SE(y−1) + SE(y)); only consecutive years qualify
func AverageEquity(equity data.Series) data.Series {
	equity = equity.Finite()
	out := make(data.Series)
	for year, cur := range equity {
		prev, ok := equity[year-1]
		if !ok {
			continue
		}
		out[year] = 0.5 * (prev + cur)
	}
	return out.Finite()
}

// Ratio returns num(y) / den(y) for years present in both series with a
// non-zero denominator
func Ratio(num, den data.Series) data.Series {
	out := make(data.Series)
	for year, d := range den.Finite() {
		n, ok := num[year]
		if !ok || d == 0 {
			continue
		}
		out[year] = n / d
	}
	return out.Finite()
}

// NetCapEx = CapEx − D&A; capital expenditures are stored as positive outflows
func NetCapEx(capex, da data.Series) data.Series {
	return Difference(capex, da)
}

// DeltaNCWC is the change in non-cash working capital from the latest prior
// year that has a value. The earliest year has no predecessor and is zero.
func DeltaNCWC(ncwc data.Series) data.Series {
	ncwc = ncwc.Finite()
	out := make(data.Series, len(ncwc))
	for year, cur := range ncwc {
		prior, ok := ncwc.PriorYear(year)
		if !ok {
			out[year] = 0
			continue
		}
		out[year] = cur - ncwc[prior]
	}
	return out
}

// FCFF = NOPAT − NetCapEx − ΔNCWC
func FCFF(nopat, netCapEx, deltaNCWC data.Series) data.Series {
	out := make(data.Series)
	for year, n := range nopat {
		nc, ok := netCapEx[year]
		if !ok {
			continue
		}
		dw, ok := deltaNCWC[year]
		if !ok {
			continue
		}
		out[year] = n - nc - dw
	}
	return out.Finite()
}

// ReinvestmentRate = (NetCapEx + ΔNCWC) / NOPAT
func ReinvestmentRate(nopat, netCapEx, deltaNCWC data.Series) data.Series {
	out := make(data.Series)
	for year, n := range nopat {
		nc, ok := netCapEx[year]
		if !ok {
			continue
		}
		dw, ok := deltaNCWC[year]
		if !ok || n == 0 {
			continue
		}
		out[year] = (nc + dw) / n
	}
	return out.Finite()
}

// NetDebtIssued resolves the net debt issued (repaid) for every year in
// years. A supplied series is used as is, with missing years counting as
// zero. Only when no series was supplied at all is it approximated from the
// change in total debt since the latest prior year.
func NetDebtIssued(years []int, netDebt, totalDebt data.Series) data.Series {
	out := make(data.Series, len(years))
	if len(netDebt) > 0 {
		for _, year := range years {
			out[year] = netDebt[year]
		}
		return out
	}

	totalDebt = totalDebt.Finite()
	for _, year := range years {
		cur, ok := totalDebt[year]
		if !ok {
			out[year] = 0
			continue
		}

		prior, ok := totalDebt.PriorYear(year)
		if !ok {
			out[year] = 0
			continue
		}

		out[year] = cur - totalDebt[prior]
	}
	return out
}

// FCFE = NI + D&A − CapEx − ΔNCWC + net debt issued
func FCFE(netIncome, da, capex, deltaNCWC, netDebt, totalDebt data.Series) data.Series {
	years := make([]int, 0, len(netIncome))
	for year := range netIncome {
		_, hasDA := da[year]
		_, hasCapex := capex[year]
		_, hasDelta := deltaNCWC[year]
		if hasDA && hasCapex && hasDelta {
			years = append(years, year)
		}
	}

	borrowing := NetDebtIssued(years, netDebt, totalDebt)

	out := make(data.Series, len(years))
	for _, year := range years {
		out[year] = netIncome[year] + da[year] - capex[year] - deltaNCWC[year] + borrowing[year]
	}
	return out.Finite()
}
