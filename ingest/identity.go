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

package ingest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrMalformedIdentity = errors.New(`company identity must look like "Company Name (TICKER)"`)

var identityRe = regexp.MustCompile(`^\s*(.*?)\s*\(([^)]+)\)\s*$`)

// ParseIdentity splits "Apple Inc. (AAPL)" into its name and upper-cased ticker
func ParseIdentity(identity string) (name string, ticker string, err error) {
	match := identityRe.FindStringSubmatch(identity)
	if match == nil {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedIdentity, identity)
	}

	name = strings.TrimSpace(match[1])
	ticker = strings.ToUpper(strings.TrimSpace(match[2]))
	if name == "" || ticker == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedIdentity, identity)
	}

	return name, ticker, nil
}
