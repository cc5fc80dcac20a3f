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
	"math"

	"github.com/penny-vault/pvmetrics/data"
)

const (
	// interest expense used when a year reports none
	minInterestExpense = 0.01

	// interest load recorded when coverage is zero
	minInterestLoad = 0.001

	// ratios at or below this magnitude are fractions, not percentage points
	fractionThreshold = 1.5
)

// MergeTTM sets the TTM value into the annual series at the year of its as-of
// label. Labels that do not start with a year leave the series unchanged.
func MergeTTM(annual data.Series, ttm data.TTM) data.Series {
	out := annual.Clone()
	if year, ok := ttm.Year(); ok {
		out[year] = ttm.Value
	}
	return out
}

// MergeRatioTTM keeps annual ratio values up to the year before the TTM year
// and uses the TTM value for the TTM year itself. When the TTM label has no
// year the annual series is kept whole.
func MergeRatioTTM(annual data.Series, ttm data.TTM, normalize func(float64) float64) data.Series {
	if normalize == nil {
		normalize = func(v float64) float64 { return v }
	}

	year, ok := ttm.Year()
	out := make(data.Series, len(annual)+1)
	for y, val := range annual {
		if ok && y >= year {
			continue
		}
		out[y] = normalize(val)
	}

	if ok {
		out[year] = normalize(ttm.Value)
	}

	return out
}

// PercentPoints converts fractional ratios (|v| <= 1.5) to percentage points
func PercentPoints(val float64) float64 {
	if math.Abs(val) <= fractionThreshold {
		return val * 100.0
	}
	return val
}

// Negate flips the sign of every value
func Negate(series data.Series) data.Series {
	out := make(data.Series, len(series))
	for year, val := range series {
		out[year] = -val
	}
	return out
}

// Abs replaces every value with its absolute value
func Abs(series data.Series) data.Series {
	out := make(data.Series, len(series))
	for year, val := range series {
		out[year] = math.Abs(val)
	}
	return out
}

// NOPAT = EBIT × (1 − effective tax rate)
func NOPAT(ebit, taxRate data.Series) data.Series {
	out := make(data.Series)
	for year, val := range ebit {
		tax, ok := taxRate[year]
		if !ok {
			continue
		}
		out[year] = val * (1.0 - tax)
	}
	return out.Finite()
}

// InterestCoverage = operating income / interest expense for every year with
// operating income. A missing or zero expense is replaced by 0.01.
func InterestCoverage(operatingIncome, interestExpense data.Series) data.Series {
	out := make(data.Series, len(operatingIncome))
	for year, oi := range operatingIncome {
		ie, ok := interestExpense[year]
		if !ok || ie == 0 || math.IsNaN(ie) {
			ie = minInterestExpense
		}
		out[year] = oi / ie
	}
	return out.Finite()
}

// InterestLoad is the interest burden in percent, 100 / coverage
func InterestLoad(coverage data.Series) data.Series {
	out := make(data.Series, len(coverage))
	for year, cov := range coverage {
		if cov == 0 || math.IsNaN(cov) {
			out[year] = minInterestLoad
			continue
		}
		out[year] = 100.0 / cov
	}
	return out.Finite()
}

// Sum adds two series over the years present in both
func Sum(a, b data.Series) data.Series {
	out := make(data.Series)
	for year, x := range a {
		if y, ok := b[year]; ok {
			out[year] = x + y
		}
	}
	return out.Finite()
}

// ROCE = EBIT / average capital employed over consecutive years
func ROCE(ebit, capitalEmployed data.Series) data.Series {
	out := make(data.Series)
	for year, cur := range capitalEmployed {
		prev, ok := capitalEmployed[year-1]
		if !ok {
			continue
		}
		val, ok := ebit[year]
		if !ok {
			continue
		}

		avg := 0.5 * (cur + prev)
		if avg == 0 {
			continue
		}
		out[year] = val / avg
	}
	return out.Finite()
}

// InvestedCapital = equity + total debt − cash − long-term investments
func InvestedCapital(equity, debt, cash, longTermInvestments data.Series) data.Series {
	out := make(data.Series)
	for year, se := range equity {
		d, ok := debt[year]
		if !ok {
			continue
		}
		c, ok := cash[year]
		if !ok {
			continue
		}
		lti, ok := longTermInvestments[year]
		if !ok {
			continue
		}
		out[year] = se + d - c - lti
	}
	return out.Finite()
}

// NonCashWorkingCapital = (current assets − cash) − (current liabilities − current debt)
func NonCashWorkingCapital(currentAssets, cash, currentLiabilities, currentDebt data.Series) data.Series {
	out := make(data.Series)
	for year, tca := range currentAssets {
		c, ok := cash[year]
		if !ok {
			continue
		}
		tcl, ok := currentLiabilities[year]
		if !ok {
			continue
		}
		cd, ok := currentDebt[year]
		if !ok {
			continue
		}
		out[year] = (tca - c) - (tcl - cd)
	}
	return out.Finite()
}

// RevenueYield = 1 − NCWC / revenue; years without revenue are skipped
func RevenueYield(ncwc, revenue data.Series) data.Series {
	out := make(data.Series)
	for year, w := range ncwc {
		rev, ok := revenue[year]
		if !ok || rev == 0 {
			continue
		}
		out[year] = 1.0 - w/rev
	}
	return out.Finite()
}
