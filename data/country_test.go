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

package data_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvmetrics/data"
)

var _ = Describe("Country", func() {
	DescribeTable("canonicalizes country names",
		func(country string, expected string) {
			Expect(data.CanonicalCountry(&country)).To(Equal(expected))
		},
		Entry("full name", "United States of America", data.CountryUSA),
		Entry("lower case alias", "us", data.CountryUSA),
		Entry("canonical name", "USA", data.CountryUSA),
		Entry("padded alias", "  united states ", data.CountryUSA),
		Entry("india", "Republic of India", data.CountryIndia),
		Entry("china", "prc", data.CountryChina),
		Entry("japan", "JP", data.CountryJapan),
		Entry("united kingdom", "Great Britain", data.CountryUK),
		Entry("emirates", "united arab emirates", data.CountryUAE),
		Entry("unknown countries pass through", "Bermuda", "Bermuda"),
		Entry("unknown countries are trimmed", " Bermuda ", "Bermuda"),
		Entry("blank is USA", "   ", data.CountryUSA),
	)

	It("treats a missing country as USA", func() {
		Expect(data.CanonicalCountry(nil)).To(Equal(data.CountryUSA))
	})

	It("lists the canonical name first among its aliases", func() {
		for canonical, aliases := range data.CountryAliases {
			Expect(aliases[0]).To(Equal(canonical))
			Expect(data.Canonical(canonical)).To(Equal(canonical))
		}
	})
})
