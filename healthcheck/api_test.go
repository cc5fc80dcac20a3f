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

package healthcheck_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvmetrics/healthcheck"
)

var _ = Describe("Client", func() {
	var (
		mu     sync.Mutex
		paths  []string
		bodies []string
		status int
		srv    *httptest.Server
		hc     *healthcheck.Client
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		paths = nil
		bodies = nil
		status = http.StatusOK

		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			mu.Lock()
			paths = append(paths, r.URL.Path)
			bodies = append(bodies, string(body))
			mu.Unlock()

			if r.URL.Path == "/api/checks/" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"ping_url": "https://hc-ping.com/5f3a-11"}`))
				return
			}
			w.WriteHeader(status)
		}))

		hc = healthcheck.New("secret")
		hc.APIURL = srv.URL + "/api"
		hc.PingURL = srv.URL + "/ping"
	})

	AfterEach(func() {
		srv.Close()
	})

	It("pings start, success and failure", func() {
		Expect(hc.Start(ctx, "abc")).To(Succeed())
		Expect(hc.Success(ctx, "abc", "14 metrics refreshed")).To(Succeed())
		Expect(hc.Fail(ctx, "abc", "boom")).To(Succeed())

		Expect(paths).To(Equal([]string{"/ping/abc/start", "/ping/abc", "/ping/abc/fail"}))
		Expect(bodies[1]).To(Equal("14 metrics refreshed"))
	})

	It("skips pings without a check id", func() {
		Expect(hc.Success(ctx, "", "done")).To(Succeed())
		Expect(paths).To(BeEmpty())
	})

	It("reports unexpected status codes", func() {
		status = http.StatusNotFound
		Expect(hc.Start(ctx, "abc")).To(MatchError(healthcheck.ErrStatus))
	})

	It("returns the id of a created check", func() {
		id, err := hc.Create(ctx, "pvmetrics refresh", "pvmetrics-refresh", "0 6 * * *", []string{"pvmetrics"})
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal("5f3a-11"))
	})
})
