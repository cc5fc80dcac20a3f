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

	"github.com/penny-vault/pvmetrics/backblaze"
	"github.com/penny-vault/pvmetrics/data"
	"github.com/penny-vault/pvmetrics/export"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var exportUpload bool

var errUploadConfig = errors.New("backblaze.application_id, backblaze.application_key and backblaze.bucket are required for upload")

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <dir> [metric...]",
	Short: "Write metrics to parquet files",
	Long: `Export writes one parquet file per metric (company_id, ticker,
fiscal_year, value) into dir. With no metrics every registered metric is
exported. With --upload the files are copied to the Backblaze B2 bucket
configured by backblaze.application_id, backblaze.application_key and
backblaze.bucket.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		dir := args[0]
		metrics := args[1:]
		if len(metrics) == 0 {
			metrics = data.MetricKeys()
		}

		cfg := backblaze.Config{
			KeyID:          viper.GetString("backblaze.application_id"),
			ApplicationKey: viper.GetString("backblaze.application_key"),
			Bucket:         viper.GetString("backblaze.bucket"),
			Prefix:         viper.GetString("backblaze.prefix"),
		}

		if exportUpload && !cfg.Enabled() {
			return errUploadConfig
		}

		myLibrary, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer myLibrary.Close()

		files, err := export.Metrics(ctx, myLibrary, dir, metrics)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		log.Info().Int("NumFiles", len(files)).Str("Dir", dir).Msg("metrics exported")

		if exportUpload {
			if err := backblaze.Upload(cfg, files...); err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}
			log.Info().Int("NumFiles", len(files)).Str("BucketName", cfg.Bucket).Msg("files uploaded")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().BoolVar(&exportUpload, "upload", false, "upload the exported files to Backblaze B2")
}
