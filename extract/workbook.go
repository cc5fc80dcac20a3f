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
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrSheetNotFound = fmt.Errorf("%w: sheet", ErrNotFound)
	ErrRowNotFound   = fmt.Errorf("%w: row", ErrNotFound)
	ErrNoValue       = fmt.Errorf("%w: no value", ErrNotFound)
)

// Sheet is an in-memory statement sheet. The first row holds the column
// headers and the first column of every other row holds its label.
type Sheet struct {
	Name    string
	headers []string
	rows    [][]string
}

// NewSheet builds a sheet from a header row followed by data rows
func NewSheet(name string, rows [][]string) *Sheet {
	sheet := &Sheet{Name: name}
	if len(rows) == 0 {
		return sheet
	}

	sheet.headers = rows[0]
	sheet.rows = rows[1:]
	return sheet
}

// Headers returns the column headers excluding the label column
func (sheet *Sheet) Headers() []string {
	if len(sheet.headers) < 2 {
		return nil
	}
	return sheet.headers[1:]
}

// Workbook is the set of statement sheets uploaded for a single company
type Workbook struct {
	sheets map[string]*Sheet
	order  []string
}

func NewWorkbook(sheets ...*Sheet) *Workbook {
	wb := &Workbook{sheets: make(map[string]*Sheet, len(sheets))}
	for _, sheet := range sheets {
		wb.add(sheet)
	}
	return wb
}

func (wb *Workbook) add(sheet *Sheet) {
	if _, ok := wb.sheets[sheet.Name]; !ok {
		wb.order = append(wb.order, sheet.Name)
	}
	wb.sheets[sheet.Name] = sheet
}

// Open reads every sheet of an xlsx workbook. Header rows are read with
// their display formatting applied so that date headers keep their
// human-readable form; data cells are read raw to keep full precision.
func Open(r io.Reader) (*Workbook, error) {
	formatted, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer formatted.Close()

	wb := &Workbook{sheets: make(map[string]*Sheet)}
	for _, name := range formatted.GetSheetList() {
		display, err := formatted.GetRows(name)
		if err != nil {
			log.Error().Err(err).Str("Sheet", name).Msg("could not read sheet")
			return nil, err
		}

		raw, err := formatted.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			log.Error().Err(err).Str("Sheet", name).Msg("could not read raw sheet values")
			return nil, err
		}

		if len(display) > 0 && len(raw) > 0 {
			raw[0] = display[0]
		}

		wb.add(NewSheet(name, raw))
	}

	return wb, nil
}

// OpenFile is Open for a workbook on disk
func OpenFile(fn string) (*Workbook, error) {
	fh, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	return Open(fh)
}

// Sheet returns the named sheet. An exact match is preferred; otherwise the
// first sheet in workbook order whose name matches case-insensitively.
func (wb *Workbook) Sheet(name string) (*Sheet, error) {
	if sheet, ok := wb.sheets[name]; ok {
		return sheet, nil
	}

	for _, sheetName := range wb.order {
		if strings.EqualFold(strings.TrimSpace(sheetName), name) {
			return wb.sheets[sheetName], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, name)
}

// SheetNames lists the sheets present in the workbook in workbook order
func (wb *Workbook) SheetNames() []string {
	names := make([]string, len(wb.order))
	copy(names, wb.order)
	return names
}
