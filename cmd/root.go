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
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/penny-vault/pvmetrics/engine"
	"github.com/penny-vault/pvmetrics/library"
	"github.com/penny-vault/pvmetrics/reference"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "pvmetrics",
	SilenceUsage:  true,
	SilenceErrors: true,
	Short:         "pvmetrics computes valuation metrics from company financial statements",
	Long: `pvmetrics is a command line utility for building and maintaining a
database of per-company fundamental metrics. Financial statement workbooks
(income statement, balance sheet, cash flow and ratios; annual and trailing
twelve months) are ingested into PostgreSQL and a chain of derived metrics is
computed from them:

	* debt to equity and levered beta
	* cost of equity, cost of debt and WACC
	* return on equity, reinvestment rate and free cash flow

Derived metrics draw on reference data (risk-free rates, equity and country
risk premiums, marginal tax rates and industry betas) that is imported from
CSV files or fetched from FRED.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pvmetrics.toml)")
	rootCmd.PersistentFlags().String("db-url", "", "database connection string")
	if err := viper.BindPFlag("db.url", rootCmd.PersistentFlags().Lookup("db-url")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for db-url failed")
	}

	viper.SetDefault("refresh.schedule", "@daily")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// a .env file in the working directory is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".pvmetrics" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".pvmetrics")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}
}

// openLibrary connects to the configured database and makes sure its schema
// is current
func openLibrary(ctx context.Context) (*library.Library, error) {
	myLibrary, err := library.New(ctx, viper.GetString("db.url"))
	if err != nil {
		return nil, fmt.Errorf("could not connect to library: %w", err)
	}

	if err := myLibrary.Init(ctx); err != nil {
		myLibrary.Close()
		return nil, fmt.Errorf("could not initialize library: %w", err)
	}

	return myLibrary, nil
}

func newEngine(myLibrary *library.Library) *engine.Engine {
	return engine.New(myLibrary, reference.NewResolver(myLibrary))
}
