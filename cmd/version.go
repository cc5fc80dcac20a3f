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
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pvmetrics/engine"
	"github.com/penny-vault/pvmetrics/pkginfo"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	deps        bool
	short       bool
	versionJSON bool
)

type versionDoc struct {
	Name           string   `json:"name"`
	Version        string   `json:"version"`
	Commit         string   `json:"commit"`
	BuildDate      string   `json:"buildDate"`
	DerivedMetrics []string `json:"derivedMetrics"`
	Dependencies   []string `json:"dependencies,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build info",
	Run: func(cmd *cobra.Command, args []string) {
		if versionJSON {
			doc := versionDoc{
				Name:           pkginfo.Name,
				Version:        pkginfo.Version,
				Commit:         pkginfo.CommitHash,
				BuildDate:      pkginfo.BuildDate,
				DerivedMetrics: engine.DerivedMetrics(),
			}
			if deps {
				doc.Dependencies = pkginfo.GetDependencyList()
			}

			out, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				log.Fatal().Err(err).Msg("could not encode version info")
			}
			fmt.Println(string(out))
			return
		}

		if short {
			fmt.Println(pkginfo.Version)
			return
		}

		fmt.Println(pkginfo.BuildVersionString())
		fmt.Printf("Derived metrics: %d\n", len(engine.DerivedMetrics()))

		if deps {
			fmt.Printf("\n\n")
			fmt.Println(strings.Join(pkginfo.GetDependencyList(), "\n"))
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&deps, "deps", "d", false, "print dependencies")
	versionCmd.Flags().BoolVarP(&short, "short", "s", false, "only print version number")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "print version info as JSON")
}
