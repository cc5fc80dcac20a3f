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
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/penny-vault/pvmetrics/data"
)

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// findRow returns the first row labelled with one of labels. Labels are
// tried in priority order so a canonical label wins over a synonym that
// happens to appear earlier in the sheet.
func (sheet *Sheet) findRow(labels []string) ([]string, error) {
	for _, label := range labels {
		wanted := normalizeLabel(label)
		for _, row := range sheet.rows {
			if len(row) == 0 {
				continue
			}
			if normalizeLabel(row[0]) == wanted {
				return row, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %s in %s", ErrRowNotFound, strings.Join(labels, " | "), sheet.Name)
}

// parseNumber converts a raw cell into a float. Blank cells, placeholder
// dashes, NaN and any non-numeric text are reported as missing.
func parseNumber(cell string) (float64, bool) {
	cell = strings.TrimSpace(cell)
	switch cell {
	case "", "-", "--", "—", "N/A", "n/a", "NA":
		return 0, false
	}

	cell = strings.ReplaceAll(cell, ",", "")
	val, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(val) {
		return 0, false
	}

	return val, true
}

// headerYear returns the fiscal year of an annual column header. Headers
// that start with a year ("2022", "2022-12") are read directly; date-typed
// cells rendered with a display format ("12/31/22 00:00") go through
// ParseDate.
func headerYear(header string) (int, bool) {
	if year, ok := data.LeadingYear(header); ok {
		return year, true
	}

	if when, ok := ParseDate(header); ok {
		return when.Year(), true
	}

	return 0, false
}

// AnnualSeries reads the year-keyed values of the first row matching labels
func (sheet *Sheet) AnnualSeries(labels ...string) (data.Series, error) {
	row, err := sheet.findRow(labels)
	if err != nil {
		return nil, err
	}

	series := make(data.Series)
	for col := 1; col < len(sheet.headers) && col < len(row); col++ {
		year, ok := headerYear(sheet.headers[col])
		if !ok {
			continue
		}

		val, ok := parseNumber(row[col])
		if !ok {
			continue
		}

		series[year] = val
	}

	return series, nil
}

// LatestTTM returns the most recent non-empty value of the first row matching
// labels together with the header it was found under. When at least one
// header is a recognizable date the value under the latest date wins;
// otherwise the right-most non-empty value is returned.
func (sheet *Sheet) LatestTTM(labels ...string) (data.TTM, error) {
	row, err := sheet.findRow(labels)
	if err != nil {
		return data.TTM{}, err
	}

	var (
		latest    data.TTM
		latestAt  time.Time
		haveDate  bool
		last      data.TTM
		haveValue bool
	)

	for col := 1; col < len(row); col++ {
		val, ok := parseNumber(row[col])
		if !ok {
			continue
		}

		header := ""
		if col < len(sheet.headers) {
			header = strings.TrimSpace(sheet.headers[col])
		}

		last = data.TTM{AsOf: header, Value: val}
		haveValue = true

		if when, ok := ParseDate(header); ok {
			if !haveDate || when.After(latestAt) {
				latest = last
				latestAt = when
				haveDate = true
			}
		}
	}

	if !haveValue {
		return data.TTM{}, fmt.Errorf("%w: %s in %s", ErrNoValue, labels[0], sheet.Name)
	}

	if haveDate {
		return latest, nil
	}

	return last, nil
}

// Annual extracts the annual series of field. Optional fields that are not
// present in the workbook yield an empty series.
func (wb *Workbook) Annual(field *Field) (data.Series, error) {
	sheet, err := wb.Sheet(field.Statement.AnnualSheet())
	if err == nil {
		var series data.Series
		series, err = sheet.AnnualSeries(field.Labels...)
		if err == nil {
			return series, nil
		}
	}

	if field.Optional && errors.Is(err, ErrNotFound) {
		return data.Series{}, nil
	}

	return nil, fmt.Errorf("%s: %w", field.Metric, err)
}

// TTM extracts the latest trailing-twelve-month value of field. Optional
// fields that are not present yield a zero TTM with an empty label.
func (wb *Workbook) TTM(field *Field) (data.TTM, error) {
	sheet, err := wb.Sheet(field.Statement.TTMSheet())
	if err == nil {
		var ttm data.TTM
		ttm, err = sheet.LatestTTM(field.Labels...)
		if err == nil {
			return ttm, nil
		}
	}

	if field.Optional && errors.Is(err, ErrNotFound) {
		return data.TTM{}, nil
	}

	return data.TTM{}, fmt.Errorf("%s: %w", field.Metric, err)
}
