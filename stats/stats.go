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

// Package stats summarizes annual series over a window of fiscal years.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/penny-vault/pvmetrics/data"
)

// DenomPolicy selects the denominator of a year-over-year growth rate
type DenomPolicy int

const (
	// DenomSigned divides by the previous value
	DenomSigned DenomPolicy = iota
	// DenomAbsolute divides by the magnitude of the previous value
	DenomAbsolute
)

// fractionThreshold is the largest magnitude a value may have and still be
// read as a fraction (0.25) rather than percentage points (25.0)
const fractionThreshold = 1.5

// window returns the points of series with yrEnd <= year <= yrStart in
// ascending year order. Non-finite values are kept so growth pairs can see
// the gap.
func window(series data.Series, yrStart, yrEnd int) []data.Point {
	points := make([]data.Point, 0, len(series))
	for _, pt := range series.Points() {
		if pt.Year >= yrEnd && pt.Year <= yrStart {
			points = append(points, pt)
		}
	}
	return points
}

func finite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

func median(vals []float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func stdev(vals []float64, sample bool) float64 {
	if sample && len(vals) > 1 {
		_, sd := stat.MeanStdDev(vals, nil)
		return sd
	}

	_, sd := stat.PopMeanStdDev(vals, nil)
	return sd
}

func summarize(vals []float64, sample bool) (*float64, *float64) {
	if len(vals) == 0 {
		return nil, nil
	}

	med := median(vals)
	sd := stdev(vals, sample)
	return &med, &sd
}

// GrowthStats returns the median and standard deviation of the year-over-year
// growth of series between yrEnd and yrStart inclusive. Growth is computed
// between consecutive fiscal years; a pair is skipped when either year is
// missing or not finite, or when the denominator is zero. Both results are
// nil when no growth rate exists.
func GrowthStats(series data.Series, yrStart, yrEnd int, sample bool, policy DenomPolicy) (*float64, *float64) {
	points := window(series, yrStart, yrEnd)
	growths := make([]float64, 0, len(points))
	for idx := 1; idx < len(points); idx++ {
		if points[idx].Year-points[idx-1].Year != 1 {
			continue
		}

		prev := points[idx-1].Value
		cur := points[idx].Value
		if !finite(prev) || !finite(cur) {
			continue
		}

		denom := prev
		if policy == DenomAbsolute {
			denom = math.Abs(prev)
		}

		if denom == 0 {
			continue
		}

		growths = append(growths, (cur-prev)/denom)
	}

	return summarize(growths, sample)
}

// MarginStats returns the median and standard deviation of margin levels in
// the window together with a hint of whether the values look like fractions.
// An empty window yields (nil, nil, true).
func MarginStats(series data.Series, yrStart, yrEnd int, sample bool) (*float64, *float64, bool) {
	vals := make([]float64, 0, len(series))
	maxAbs := 0.0
	for _, pt := range window(series, yrStart, yrEnd) {
		if !finite(pt.Value) {
			continue
		}
		vals = append(vals, pt.Value)
		maxAbs = math.Max(maxAbs, math.Abs(pt.Value))
	}

	if len(vals) == 0 {
		return nil, nil, true
	}

	med, sd := summarize(vals, sample)
	return med, sd, maxAbs <= fractionThreshold
}

// MarginGrowthStats is GrowthStats with an absolute denominator so that a
// margin improving from a negative base counts as positive growth
func MarginGrowthStats(series data.Series, yrStart, yrEnd int, sample bool) (*float64, *float64) {
	return GrowthStats(series, yrStart, yrEnd, sample, DenomAbsolute)
}
