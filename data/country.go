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

import "strings"

const (
	CountryUSA   = "USA"
	CountryIndia = "India"
	CountryChina = "China"
	CountryJapan = "Japan"
	CountryUK    = "UK"
	CountryUAE   = "UAE"
)

// CountryAliases lists the spellings accepted for each canonical country. The
// first alias of each set is the canonical name itself.
var CountryAliases = map[string][]string{
	CountryUSA:   {"USA", "US", "United States", "United States of America"},
	CountryIndia: {"India", "IN", "Republic of India"},
	CountryChina: {"China", "CN", "PRC", "People's Republic of China", "Peoples Republic of China"},
	CountryJapan: {"Japan", "JP"},
	CountryUK:    {"UK", "United Kingdom", "Great Britain", "Britain", "GB"},
	CountryUAE:   {"UAE", "United Arab Emirates", "AE"},
}

var countryLookup map[string]string

func init() {
	countryLookup = make(map[string]string)
	for canonical, aliases := range CountryAliases {
		for _, alias := range aliases {
			countryLookup[strings.ToUpper(alias)] = canonical
		}
	}
}

// CanonicalCountry maps a user supplied country to one of the canonical
// names. Unknown values pass through trimmed; nil or blank input is USA.
func CanonicalCountry(country *string) string {
	if country == nil {
		return CountryUSA
	}

	trimmed := strings.TrimSpace(*country)
	if trimmed == "" {
		return CountryUSA
	}

	if canonical, ok := countryLookup[strings.ToUpper(trimmed)]; ok {
		return canonical
	}

	return trimmed
}

// Canonical is a convenience wrapper around CanonicalCountry for non-pointer values
func Canonical(country string) string {
	return CanonicalCountry(&country)
}
