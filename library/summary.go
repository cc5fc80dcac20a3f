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
	"strings"
	"time"

	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary returns a description of the library in markdown
func (myLibrary *Library) Summary(ctx context.Context) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	if _, err := builder.WriteString(fmt.Sprintf("# %s\n", myLibrary.Name)); err != nil {
		return "", err
	}

	if _, err := builder.WriteString("## Details\n\n"); err != nil {
		return "", err
	}

	// Number of companies
	numCompanies, err := myLibrary.NumCompanies(ctx)
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Companies: %d\n", numCompanies)); err != nil {
		return "", err
	}

	// Company groups
	groups, err := myLibrary.Groups(ctx)
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Company Groups: %d\n", len(groups))); err != nil {
		return "", err
	}

	// Total record count
	totalRecords, err := myLibrary.TotalRecords(ctx)
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Total Records: %d\n\n", totalRecords)); err != nil {
		return "", err
	}

	// Last refresh time
	lastUpdated, err := myLibrary.LastRefresh(ctx)
	if err != nil {
		return "", err
	}

	if lastUpdated.Equal(time.Time{}) {
		if _, err := builder.WriteString("Last Refresh: Never\n\n"); err != nil {
			return "", err
		}
	} else {
		age := timeago.English.Format(lastUpdated)
		if _, err := builder.WriteString(fmt.Sprintf("Last Refresh: %s (%s)\n\n", age, lastUpdated.Local().Format("01/02/2006"))); err != nil {
			return "", err
		}
	}

	// Reference data coverage
	if _, err := builder.WriteString("## Reference Data\n\n"); err != nil {
		return "", err
	}

	rates, err := myLibrary.RiskFreeRates(ctx)
	if err != nil {
		return "", err
	}

	if len(rates) > 0 {
		if _, err := builder.WriteString(p.Sprintf("  * Risk-Free Rates: %d - %d\n", rates[0].Year, rates[len(rates)-1].Year)); err != nil {
			return "", err
		}
	}

	betas, err := myLibrary.IndustryBetas(ctx)
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Industry Buckets: %d\n\n", len(betas))); err != nil {
		return "", err
	}

	// Recent refreshes
	if _, err := builder.WriteString("## Recent Refreshes\n\n"); err != nil {
		return "", err
	}

	runs, err := myLibrary.RecentRefreshRuns(ctx, 10)
	if err != nil {
		return "", err
	}

	for _, run := range runs {
		if _, err := builder.WriteString(p.Sprintf("  * %s %s: %d companies, %d failures [%s]\n", run.Finished.Local().Format("01/02/2006 15:04"),
			run.Metric, run.Companies, run.Failures, run.ID.String()[:6])); err != nil {
			return "", err
		}
	}

	return builder.String(), nil
}
