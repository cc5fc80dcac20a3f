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

package export_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/penny-vault/pvmetrics/data"
	"github.com/penny-vault/pvmetrics/export"
)

type memSource map[string][]*data.AnnualRecord

func (src memSource) AnnualRecords(_ context.Context, metricKey string) ([]*data.AnnualRecord, error) {
	return src[metricKey], nil
}

var _ = Describe("Export", func() {
	It("writes one parquet file per metric", func() {
		dir := GinkgoT().TempDir()
		src := memSource{
			data.WACCKey: {
				{CompanyID: 1, Ticker: "AAPL", Year: 2022, Value: 8.5},
				{CompanyID: 1, Ticker: "AAPL", Year: 2023, Value: 8.9},
				{CompanyID: 2, Ticker: "MSFT", Year: 2023, Value: 9.1},
			},
		}

		files, err := export.Metrics(context.Background(), src, dir, []string{"WACC"})
		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(Equal([]string{filepath.Join(dir, "wacc.parquet")}))

		fr, err := local.NewLocalFileReader(files[0])
		Expect(err).NotTo(HaveOccurred())
		defer fr.Close()

		pr, err := reader.NewParquetReader(fr, new(data.AnnualRecord), 1)
		Expect(err).NotTo(HaveOccurred())
		defer pr.ReadStop()

		Expect(pr.GetNumRows()).To(Equal(int64(3)))
	})

	It("rejects unknown metrics", func() {
		_, err := export.Metrics(context.Background(), memSource{}, GinkgoT().TempDir(), []string{"not-a-metric"})
		Expect(err).To(MatchError(data.ErrUnknownMetric))
	})
})
