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

package extract

import (
	"strings"
	"time"

	"github.com/jinzhu/now"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"01/02/06",
	"1/2/06",
	"01/02/06 15:04",
	"1/2/06 15:04",
	"01-02-06",
	"Jan 2, 2006",
	"January 2, 2006",
	"02-Jan-2006",
	"2-Jan-06",
	"2 Jan 2006",
	"Jan 2006",
	"January 2006",
	"Jan-06",
	"2006-01",
}

// ParseDate interprets a TTM column header as a date. Headers such as
// "TTM" or "Current" are not dates.
func ParseDate(header string) (time.Time, bool) {
	header = strings.TrimSpace(header)
	if len(header) < 4 {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if when, err := time.Parse(layout, header); err == nil {
			return when, true
		}
	}

	if strings.ContainsAny(header, "-/") {
		if when, err := now.Parse(header); err == nil {
			return when, true
		}
	}

	return time.Time{}, false
}
