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

package reference

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/penny-vault/pvmetrics/pkginfo"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	FredBaseURL = "https://api.stlouisfed.org/fred/series/observations"

	// TreasurySeries is the 10-year constant maturity treasury yield
	TreasurySeries = "DGS10"

	// FRED allows 120 requests per minute
	fredRequestsPerSecond = 2
)

type FredClient struct {
	BaseURL string

	client  *resty.Client
	limiter *rate.Limiter
}

func NewFredClient(apiKey string) *FredClient {
	return &FredClient{
		BaseURL: FredBaseURL,
		client:  resty.New().SetQueryParam("api_key", apiKey).SetHeader("User-Agent", pkginfo.UserAgent()),
		limiter: rate.NewLimiter(rate.Limit(fredRequestsPerSecond), 1),
	}
}

type fredResponse struct {
	ObservationStart string            `json:"observation_start"`
	ObservationEnd   string            `json:"observation_end"`
	Units            string            `json:"units"`
	Count            int               `json:"count"`
	Observations     []fredObservation `json:"observations"`
}

type fredObservation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

// YearlyAverage returns the mean of every observation of seriesID in the
// calendar year along with the number of observations averaged
func (fred *FredClient) YearlyAverage(ctx context.Context, seriesID string, year int) (float64, int, error) {
	if err := fred.limiter.Wait(ctx); err != nil {
		return 0, 0, err
	}

	var resp fredResponse
	req, err := fred.client.R().
		SetContext(ctx).
		SetQueryParam("file_type", "json").
		SetQueryParam("series_id", seriesID).
		SetQueryParam("observation_start", fmt.Sprintf("%d-01-01", year)).
		SetQueryParam("observation_end", fmt.Sprintf("%d-12-31", year)).
		SetResult(&resp).Get(fred.BaseURL)

	if err != nil {
		log.Error().Err(err).Str("SeriesID", seriesID).Msg("downloading FRED series failed")
		return 0, 0, err
	}

	if req.StatusCode() >= 300 {
		msg := gjson.GetBytes(req.Body(), "error_message").String()
		log.Error().Int("StatusCode", req.StatusCode()).Str("SeriesID", seriesID).Str("Message", msg).Msg("FRED returned error status code")
		return 0, 0, fmt.Errorf("fred: status %d: %s", req.StatusCode(), msg)
	}

	sum := 0.0
	n := 0
	for _, obs := range resp.Observations {
		if obs.Value == "." {
			// no observation
			continue
		}

		when, err := time.Parse("2006-01-02", obs.Date)
		if err != nil || when.Year() != year {
			continue
		}

		val, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			log.Warn().Err(err).Str("ValueStr", obs.Value).Msg("parsing observation value failed")
			continue
		}

		sum += val
		n++
	}

	if n == 0 {
		return 0, 0, fmt.Errorf("%w: %s has no observations in %d", ErrNotFound, seriesID, year)
	}

	return sum / float64(n), n, nil
}

// FetchRiskFreeRate sets the USA risk-free rate of year to the average 10-year
// treasury yield for that year. Rates for other countries are left untouched.
func FetchRiskFreeRate(ctx context.Context, fred *FredClient, writer Writer, year int) (float64, error) {
	avg, n, err := fred.YearlyAverage(ctx, TreasurySeries, year)
	if err != nil {
		return 0, err
	}

	if err := writer.UpsertUSARiskFreeRate(ctx, year, avg); err != nil {
		return 0, err
	}

	log.Info().Int("Year", year).Float64("Rate", avg).Int("NumObservations", n).Msg("updated USA risk-free rate")
	return avg, nil
}
