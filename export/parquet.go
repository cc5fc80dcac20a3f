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

package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/penny-vault/pvmetrics/data"
	"github.com/rs/zerolog/log"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// Source lists every stored value of a metric
type Source interface {
	AnnualRecords(ctx context.Context, metricKey string) ([]*data.AnnualRecord, error)
}

// WriteParquet saves records to fn as a ZSTD compressed parquet file
func WriteParquet(fn string, records []*data.AnnualRecord) error {
	fh, err := local.NewLocalFileWriter(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("cannot create local file")
		return err
	}
	defer fh.Close()

	pw, err := writer.NewParquetWriter(fh, new(data.AnnualRecord), 4)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("parquet write failed")
		return err
	}

	pw.RowGroupSize = 128 * 1024 * 1024 // 128M
	pw.PageSize = 8 * 1024              // 8k
	pw.CompressionType = parquet.CompressionCodec_ZSTD

	for _, r := range records {
		if err = pw.Write(r); err != nil {
			log.Error().Err(err).Int64("CompanyID", r.CompanyID).Int32("Year", r.Year).Msg("parquet write failed for record")
			return err
		}
	}

	if err = pw.WriteStop(); err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("parquet write failed")
		return err
	}

	log.Info().Int("NumRecords", len(records)).Str("FileName", fn).Msg("parquet write finished")
	return nil
}

// Metrics writes one <metric>.parquet file per metric into dir and returns
// the files written
func Metrics(ctx context.Context, src Source, dir string, metrics []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	files := make([]string, 0, len(metrics))
	for _, key := range metrics {
		metric, err := data.LookupMetric(key)
		if err != nil {
			return files, err
		}

		records, err := src.AnnualRecords(ctx, metric.Key)
		if err != nil {
			return files, fmt.Errorf("%s: %w", metric.Key, err)
		}

		fn := filepath.Join(dir, metric.Key+".parquet")
		if err := WriteParquet(fn, records); err != nil {
			return files, fmt.Errorf("%s: %w", metric.Key, err)
		}

		files = append(files, fn)
	}

	return files, nil
}
