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

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/pvmetrics/data"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var weightTables = map[string]string{
	"growth": data.GrowthWeightTable,
	"stddev": data.StddevWeightTable,
}

var (
	errWeightTable = errors.New("weight table must be growth or stddev")
	errWeightArg   = errors.New("expected <id>=<weight>")
)

func weightTable(name string) (string, error) {
	tbl, ok := weightTables[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("%w: %q", errWeightTable, name)
	}
	return tbl, nil
}

// weightsCmd represents the weights command
var weightsCmd = &cobra.Command{
	Use:   "weights <growth|stddev>",
	Short: "Show the scoring weight factors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		tbl, err := weightTable(args[0])
		if err != nil {
			return err
		}

		myLibrary, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer myLibrary.Close()

		factors, err := myLibrary.WeightFactors(ctx, tbl)
		if err != nil {
			return fmt.Errorf("could not load weight factors: %w", err)
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ID", "Factor", "Weight"})
		for _, factor := range factors {
			table.Append([]string{fmt.Sprintf("%d", factor.ID), factor.Factor, strconv.FormatFloat(factor.Weight, 'f', -1, 64)})
		}
		table.Render()

		return nil
	},
}

var weightsSetCmd = &cobra.Command{
	Use:   "set <growth|stddev> <id>=<weight>...",
	Short: "Change scoring weight factors",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		tbl, err := weightTable(args[0])
		if err != nil {
			return err
		}

		weights, err := parseWeights(args[1:])
		if err != nil {
			return err
		}

		myLibrary, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer myLibrary.Close()

		if err := myLibrary.UpdateWeightFactors(ctx, tbl, weights); err != nil {
			return fmt.Errorf("could not update %s weight factors: %w", tbl, err)
		}

		log.Info().Str("Table", tbl).Int("NumFactors", len(weights)).Msg("weight factors updated")
		return nil
	},
}

// parseWeights reads <id>=<weight> arguments
func parseWeights(args []string) (map[int64]float64, error) {
	weights := make(map[int64]float64, len(args))
	for _, arg := range args {
		idStr, weightStr, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q", errWeightArg, arg)
		}

		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid factor id in %q: %w", arg, err)
		}

		weight, err := strconv.ParseFloat(weightStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight in %q: %w", arg, err)
		}

		weights[id] = weight
	}

	return weights, nil
}

func init() {
	rootCmd.AddCommand(weightsCmd)
	weightsCmd.AddCommand(weightsSetCmd)
}
