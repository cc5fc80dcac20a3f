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
	"os/signal"
	"syscall"
	"time"

	"github.com/gosimple/slug"
	"github.com/hako/durafmt"
	"github.com/penny-vault/pvmetrics/engine"
	"github.com/penny-vault/pvmetrics/healthcheck"
	"github.com/penny-vault/pvmetrics/pkginfo"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runOnce bool

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Refresh derived metrics on a schedule",
	Long: `The run sub-command executes as a daemon and refreshes every derived
metric on the schedule configured by refresh.schedule (default @daily).

When healthchecks.id is set each refresh pings that check on start, success
and failure. If healthchecks.apikey is set but no id is configured a check is
created for the schedule and its id is logged so it can be saved to the
config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		myLibrary, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer myLibrary.Close()

		myEngine := newEngine(myLibrary)
		schedule := viper.GetString("refresh.schedule")

		hc := healthcheck.New(viper.GetString("healthchecks.apikey"))
		checkID := viper.GetString("healthchecks.id")
		if checkID == "" && hc.APIKey != "" {
			name := fmt.Sprintf("%s refresh", pkginfo.Name)
			id, err := hc.Create(ctx, name, slug.Make(name), schedule, []string{pkginfo.Name})
			if err != nil {
				log.Error().Err(err).Msg("creating healthcheck failed")
			} else {
				checkID = id
				log.Info().Str("CheckID", checkID).Msg("created healthcheck; set healthchecks.id to reuse it")
			}
		}

		if runOnce {
			return scheduledRefresh(ctx, myEngine, hc, checkID)
		}

		scheduler := cron.New()
		if _, err := scheduler.AddFunc(schedule, func() {
			// errors are reported through logs and the healthcheck
			_ = scheduledRefresh(ctx, myEngine, hc, checkID)
		}); err != nil {
			return fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
		}

		log.Info().Str("Schedule", schedule).Msg("starting refresh daemon")
		scheduler.Start()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		log.Info().Msg("stopping refresh daemon")
		<-scheduler.Stop().Done()
		return nil
	},
}

func scheduledRefresh(ctx context.Context, myEngine *engine.Engine, hc *healthcheck.Client, checkID string) error {
	if err := hc.Start(ctx, checkID); err != nil {
		log.Warn().Err(err).Msg("healthcheck start ping failed")
	}

	startTime := time.Now()
	summaries := myEngine.RefreshEverything(ctx)
	runTime := time.Since(startTime)

	companies := 0
	failures := 0
	for _, summary := range summaries {
		companies += summary.Run.Companies
		failures += summary.Run.Failures
	}

	msg := fmt.Sprintf("refreshed %d metrics across %d company runs with %d failures in %s",
		len(summaries), companies, failures, durafmt.Parse(runTime).String())

	log.Info().Str("RunTime", durafmt.Parse(runTime).String()).Int("NumMetrics", len(summaries)).Int("Failures", failures).Msg("scheduled refresh complete")

	if failures > 0 {
		if err := hc.Fail(ctx, checkID, msg); err != nil {
			log.Warn().Err(err).Msg("healthcheck fail ping failed")
		}
		return fmt.Errorf("%d company refreshes failed", failures)
	}

	if err := hc.Success(ctx, checkID, msg); err != nil {
		log.Warn().Err(err).Msg("healthcheck success ping failed")
	}

	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runOnce, "once", false, "refresh immediately and exit instead of running as a daemon")
}
