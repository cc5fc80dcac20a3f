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
	"math"
	"sort"
	"strconv"
	"strings"
)

// Series is a sparse fiscal-year keyed time series
type Series map[int]float64

// Point is a single (year, value) observation of a Series
type Point struct {
	Year  int     `json:"year" db:"fiscal_year" parquet:"name=fiscal_year, type=INT32"`
	Value float64 `json:"value" db:"value" parquet:"name=value, type=DOUBLE"`
}

// TTM is the trailing-twelve-month snapshot of a metric
type TTM struct {
	AsOf  string  `json:"asOf" db:"as_of"`
	Value float64 `json:"value" db:"value"`
}

// Year is the fiscal year the snapshot belongs to, read from the first four
// characters of AsOf
func (ttm TTM) Year() (int, bool) {
	return LeadingYear(ttm.AsOf)
}

// LeadingYear parses the first four characters of label as a year
func LeadingYear(label string) (int, bool) {
	label = strings.TrimSpace(label)
	if len(label) < 4 {
		return 0, false
	}

	year, err := strconv.Atoi(label[:4])
	if err != nil {
		return 0, false
	}

	return year, true
}

// Years returns the years present in the series in ascending order
func (series Series) Years() []int {
	years := make([]int, 0, len(series))
	for year := range series {
		years = append(years, year)
	}

	sort.Ints(years)
	return years
}

// Points returns the series as (year, value) pairs sorted by year
func (series Series) Points() []Point {
	points := make([]Point, 0, len(series))
	for _, year := range series.Years() {
		points = append(points, Point{Year: year, Value: series[year]})
	}

	return points
}

// PriorYear returns the latest year in the series strictly before year
func (series Series) PriorYear(year int) (int, bool) {
	found := false
	prior := 0
	for y := range series {
		if y < year && (!found || y > prior) {
			prior = y
			found = true
		}
	}

	return prior, found
}

// Finite returns a copy of the series without NaN or infinite values
func (series Series) Finite() Series {
	out := make(Series, len(series))
	for year, val := range series {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			continue
		}
		out[year] = val
	}

	return out
}

// Clone returns a shallow copy of the series
func (series Series) Clone() Series {
	out := make(Series, len(series))
	for year, val := range series {
		out[year] = val
	}

	return out
}

// SeriesFromPoints builds a series from a list of points
func SeriesFromPoints(points []Point) Series {
	series := make(Series, len(points))
	for _, pt := range points {
		series[pt.Year] = pt.Value
	}

	return series
}

// AnnualRecord is one stored observation of a metric, flattened with the
// identity of the company it belongs to
type AnnualRecord struct {
	CompanyID int64   `json:"companyId" db:"company_id" parquet:"name=company_id, type=INT64"`
	Ticker    string  `json:"ticker" db:"ticker" parquet:"name=ticker, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Year      int32   `json:"year" db:"fiscal_year" parquet:"name=fiscal_year, type=INT32"`
	Value     float64 `json:"value" db:"value" parquet:"name=value, type=DOUBLE"`
}
