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

package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/penny-vault/pvmetrics/pkginfo"
)

const (
	DefaultAPIURL  = "https://healthchecks.io/api/v3"
	DefaultPingURL = "https://hc-ping.com"
)

var (
	ErrStatus = errors.New("status code is invalid")
)

type createReq struct {
	Name     string   `json:"name"`
	Grace    int      `json:"grace"`
	Schedule string   `json:"schedule"`
	Slug     string   `json:"slug"`
	Tags     string   `json:"tags"`
	Timezone string   `json:"tz"`
	Unique   []string `json:"unique"`
}

type createResp struct {
	PingURL string `json:"ping_url"`
}

// Client talks to healthchecks.io; APIKey is only needed to create checks
type Client struct {
	APIURL  string
	PingURL string
	APIKey  string

	client *resty.Client
}

func New(apiKey string) *Client {
	return &Client{
		APIURL:  DefaultAPIURL,
		PingURL: DefaultPingURL,
		APIKey:  apiKey,
		client:  resty.New().SetHeader("User-Agent", pkginfo.UserAgent()),
	}
}

// Create a cron-scheduled check, or return the existing one with the same
// slug, and return its id
func (hc *Client) Create(ctx context.Context, name, slug, schedule string, tags []string) (string, error) {
	command := createReq{
		Name:     name,
		Slug:     slug,
		Tags:     strings.Join(tags, " "),
		Grace:    3600,
		Schedule: schedule,
		Timezone: "America/New_York",
		Unique:   []string{"slug"},
	}

	result := createResp{}
	resp, err := hc.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Api-Key", hc.APIKey).
		SetBody(command).
		SetResult(&result).
		Post(hc.APIURL + "/checks/")

	if err != nil {
		return "", err
	}

	if resp.StatusCode() > 201 {
		return "", fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	checkID := strings.Split(result.PingURL, "/")
	return checkID[len(checkID)-1], nil
}

func (hc *Client) ping(ctx context.Context, id, suffix, body string) error {
	if id == "" {
		return nil
	}

	url := fmt.Sprintf("%s/%s", hc.PingURL, id)
	if suffix != "" {
		url += "/" + suffix
	}

	resp, err := hc.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(url)

	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}

// Start signals that a monitored job began; an empty id is a no-op
func (hc *Client) Start(ctx context.Context, id string) error {
	return hc.ping(ctx, id, "start", "")
}

// Success signals that a monitored job finished; msg is attached to the ping
func (hc *Client) Success(ctx context.Context, id, msg string) error {
	return hc.ping(ctx, id, "", msg)
}

// Fail signals that a monitored job failed
func (hc *Client) Fail(ctx context.Context, id, msg string) error {
	return hc.ping(ctx, id, "fail", msg)
}
