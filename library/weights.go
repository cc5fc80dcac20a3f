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
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/penny-vault/pvmetrics/data"
)

var (
	ErrUnknownWeightTable = errors.New("unknown weight factor table")
)

func checkWeightTable(tbl string) error {
	switch tbl {
	case data.GrowthWeightTable, data.StddevWeightTable:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownWeightTable, tbl)
	}
}

// WeightFactors returns the rows of a weight factor table ordered by id
func (myLibrary *Library) WeightFactors(ctx context.Context, tbl string) ([]*data.WeightFactor, error) {
	if err := checkWeightTable(tbl); err != nil {
		return nil, err
	}

	var factors []*data.WeightFactor
	err := pgxscan.Select(ctx, myLibrary.Pool, &factors, fmt.Sprintf(`SELECT id, factor, weight FROM %s ORDER BY id`, tbl))
	return factors, err
}

// UpdateWeightFactors sets the weight of each row id in weights. Unknown ids
// are ignored.
func (myLibrary *Library) UpdateWeightFactors(ctx context.Context, tbl string, weights map[int64]float64) error {
	if err := checkWeightTable(tbl); err != nil {
		return err
	}

	if len(weights) == 0 {
		return nil
	}

	sql := fmt.Sprintf(`UPDATE %s SET weight=$2 WHERE id=$1`, tbl)
	args := make([][]interface{}, 0, len(weights))
	for id, weight := range weights {
		args = append(args, []interface{}{id, weight})
	}

	return myLibrary.execBatch(ctx, "error updating weight factors", "", sql, args)
}
