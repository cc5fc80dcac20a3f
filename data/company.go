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
	"fmt"

	"github.com/rs/zerolog"
)

type Company struct {
	ID      int64  `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	Ticker  string `db:"ticker" json:"ticker"`
	Country string `db:"country" json:"country"`
}

// Label returns the identity string used on the command line, e.g. "Apple Inc. (AAPL)"
func (company *Company) Label() string {
	return fmt.Sprintf("%s (%s)", company.Name, company.Ticker)
}

func (company *Company) MarshalZerologObject(e *zerolog.Event) {
	e.Int64("CompanyID", company.ID)
	e.Str("Name", company.Name)
	e.Str("Ticker", company.Ticker)
	e.Str("Country", company.Country)
}

type Group struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// WeightFactor is a row of the growth or stddev weight tables used by
// downstream scoring
type WeightFactor struct {
	ID     int64   `db:"id" json:"id"`
	Factor string  `db:"factor" json:"factor"`
	Weight float64 `db:"weight" json:"weight"`
}

const (
	GrowthWeightTable = "growth_weight_factors"
	StddevWeightTable = "stddev_weight_factors"
)
