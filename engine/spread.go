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

// SpreadBucket maps interest coverage ratios up to and including MaxCoverage
// to a default spread in percentage points
type SpreadBucket struct {
	MaxCoverage float64
	Spread      float64
}

// DefaultSpreadTable is ordered by ascending coverage. Coverage above the last
// bucket earns TerminalSpread.
var DefaultSpreadTable = []SpreadBucket{
	{MaxCoverage: 0.499999, Spread: 20.00},
	{MaxCoverage: 0.799999, Spread: 17.00},
	{MaxCoverage: 1.249999, Spread: 11.78},
	{MaxCoverage: 1.499999, Spread: 8.51},
	{MaxCoverage: 1.999999, Spread: 5.24},
	{MaxCoverage: 2.499999, Spread: 3.61},
	{MaxCoverage: 2.999999, Spread: 3.14},
	{MaxCoverage: 3.499999, Spread: 2.21},
	{MaxCoverage: 3.999999, Spread: 1.74},
	{MaxCoverage: 4.499999, Spread: 1.47},
	{MaxCoverage: 5.999999, Spread: 1.21},
	{MaxCoverage: 7.499999, Spread: 1.07},
	{MaxCoverage: 9.499999, Spread: 0.92},
	{MaxCoverage: 12.499999, Spread: 0.70},
}

const TerminalSpread = 0.59

// DefaultSpread returns the credit spread implied by an interest coverage ratio
func DefaultSpread(coverage float64) float64 {
	for _, bucket := range DefaultSpreadTable {
		if coverage <= bucket.MaxCoverage {
			return bucket.Spread
		}
	}
	return TerminalSpread
}

// DefaultSpreads applies DefaultSpread to every year of the coverage series
func DefaultSpreads(coverage data.Series) data.Series {
	out := make(data.Series, len(coverage))
	for year, ratio := range coverage.Finite() {
		out[year] = DefaultSpread(ratio)
	}
	return out
}
