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
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/jackc/pgx/v5"
	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/pvmetrics/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type dbConfig struct {
	URL string `toml:"url"`
}

type refreshConfig struct {
	Schedule string `toml:"schedule"`
}

type fredConfig struct {
	APIKey string `toml:"apikey,omitempty"`
}

type config struct {
	DB      dbConfig      `toml:"db"`
	Refresh refreshConfig `toml:"refresh"`
	Fred    fredConfig    `toml:"fred"`
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Gather database configuration and setup schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		conf := config{
			DB:      dbConfig{URL: viper.GetString("db.url")},
			Refresh: refreshConfig{Schedule: viper.GetString("refresh.schedule")},
			Fred:    fredConfig{APIKey: viper.GetString("fred.apikey")},
		}

		form := huh.NewForm(
			// Get details about the database
			huh.NewGroup(
				huh.NewInput().
					Title("Provide the DSN for connecting to your PostgreSQL database (postgres://[user[:password]@][netloc][:port][/dbname][?param1=value1&...])").
					Value(&conf.DB.URL).
					Validate(func(dsn string) error {
						_, err := pgx.ParseConfig(dsn)
						return err
					}),
			),

			// Refresh schedule and data sources
			huh.NewGroup(
				huh.NewInput().
					Title("How often should derived metrics be refreshed? (cron syntax or @daily, @weekly, ...)").
					Value(&conf.Refresh.Schedule),
				huh.NewInput().
					Title("FRED API key used to fetch treasury yields (optional)").
					Value(&conf.Fred.APIKey),
			),
		)

		err := form.Run()
		if err != nil {
			return fmt.Errorf("error gathering database settings: %w", err)
		}

		log.Info().Msg("creating database tables")

		myLibrary, err := library.New(ctx, conf.DB.URL)
		if err != nil {
			return fmt.Errorf("could not connect to database: %w", err)
		}
		defer myLibrary.Close()

		// run migration, metric tables and default reference data
		if err := myLibrary.Init(ctx); err != nil {
			return fmt.Errorf("error initializing database: %w", err)
		}

		log.Info().Msg("database tables created")

		// save database settings to config file
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not determine user home directory: %w", err)
		}

		configFN := filepath.Join(home, ".pvmetrics.toml")
		log.Info().Str("ConfigFile", configFN).Msg("Saving database connection info to config file")
		configData, err := toml.Marshal(conf)
		if err != nil {
			return fmt.Errorf("could not marshal configuration data: %w", err)
		}

		err = os.WriteFile(configFN, configData, 0600)
		if err != nil {
			return fmt.Errorf("could not save configuration to %s: %w", configFN, err)
		}

		log.Info().Msg("Your metrics library has been initialized")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
