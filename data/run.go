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

package data

import (
	"time"

	"github.com/google/uuid"
)

// RefreshRun records a batch recompute of one derived metric across every company
type RefreshRun struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Metric    string    `db:"metric" json:"metric"`
	Started   time.Time `db:"started" json:"started"`
	Finished  time.Time `db:"finished" json:"finished"`
	Companies int       `db:"companies" json:"companies"`
	Failures  int       `db:"failures" json:"failures"`
}

func NewRefreshRun(metric string) *RefreshRun {
	return &RefreshRun{
		ID:      uuid.New(),
		Metric:  metric,
		Started: time.Now(),
	}
}
