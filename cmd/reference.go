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
	"strings"
	"time"

	"github.com/penny-vault/pvmetrics/reference"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var fredYear int

var errFredKey = errors.New("fred.apikey must be configured")

// referenceCmd represents the reference command
var referenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Manage market reference data",
}

var referenceImportCmd = &cobra.Command{
	Use:   "import <table> <file>",
	Short: "Import a reference table from a CSV file",
	Long: fmt.Sprintf(`Import loads a reference table from a CSV file. Risk-free rates, implied
equity risk premiums, country risk premiums and index price movements are
merged by year; tax rates and industry betas replace the existing table.

Available tables: %s`, strings.Join(reference.Tables(), ", ")),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		fh, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer fh.Close()

		myLibrary, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer myLibrary.Close()

		n, err := reference.ImportCSV(ctx, myLibrary, args[0], fh)
		if err != nil {
			return fmt.Errorf("import of %s from %s failed: %w", args[0], args[1], err)
		}

		log.Info().Str("Table", args[0]).Int("NumRows", n).Msg("reference table imported")
		return nil
	},
}

var referenceFredCmd = &cobra.Command{
	Use:   "fetch-fred",
	Short: "Set the USA risk-free rate from the FRED 10-year treasury yield",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		apiKey := viper.GetString("fred.apikey")
		if apiKey == "" {
			return errFredKey
		}

		myLibrary, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer myLibrary.Close()

		rate, err := reference.FetchRiskFreeRate(ctx, reference.NewFredClient(apiKey), myLibrary, fredYear)
		if err != nil {
			return fmt.Errorf("fetch %d risk-free rate failed: %w", fredYear, err)
		}

		fmt.Printf("%d USA risk-free rate: %.4f\n", fredYear, rate)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(referenceCmd)
	referenceCmd.AddCommand(referenceImportCmd)
	referenceCmd.AddCommand(referenceFredCmd)

	referenceFredCmd.Flags().IntVar(&fredYear, "year", time.Now().Year()-1, "fiscal year to fetch")
	referenceFredCmd.Flags().String("fred-apikey", "", "FRED API key")
	if err := viper.BindPFlag("fred.apikey", referenceFredCmd.Flags().Lookup("fred-apikey")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for fred-apikey failed")
	}
}
