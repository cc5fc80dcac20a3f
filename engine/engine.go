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

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hako/durafmt"
	"github.com/hashicorp/go-multierror"
	"github.com/penny-vault/pvmetrics/data"
	"github.com/rs/zerolog/log"
)

// Engine recomputes derived metrics from raw series and reference data
type Engine struct {
	store Store
	refs  References
}

// RefreshSummary reports the outcome of a batch refresh. Err collects every
// per-company failure and is informational only.
type RefreshSummary struct {
	Run      *data.RefreshRun
	Duration time.Duration
	Err      error
}

func New(store Store, refs References) *Engine {
	return &Engine{
		store: store,
		refs:  refs,
	}
}

// persist writes the non-internal outputs of a step
func (engine *Engine) persist(ctx context.Context, step *Step, companyID int64, outputs map[string]data.Series) error {
	if step.Internal {
		return nil
	}

	var errs *multierror.Error
	for _, key := range step.Outputs {
		series, ok := outputs[key]
		if !ok {
			continue
		}

		series = series.Finite()
		if len(series) == 0 {
			continue
		}

		if err := engine.store.UpsertAnnual(ctx, key, companyID, series); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("save %s: %w", key, err))
		}
	}

	return errs.ErrorOrNil()
}

func (engine *Engine) runStep(ctx context.Context, env *env, step *Step) error {
	outputs, err := step.compute(ctx, env)
	if err != nil {
		return err
	}

	if step.Internal {
		for key, series := range outputs {
			env.internal[key] = series.Finite()
		}
		return nil
	}

	return engine.persist(ctx, step, env.companyID, outputs)
}

// ComputeAndStore recomputes metric for a single company and overwrites the
// stored years. Missing inputs produce no rows; only storage errors are
// returned.
func (engine *Engine) ComputeAndStore(ctx context.Context, metric string, companyID int64) error {
	step, err := StepFor(metric)
	if err != nil {
		return err
	}

	return engine.runStep(ctx, newEnv(engine, companyID), step)
}

// Run evaluates every step of the graph in order for one company. A failing
// step is logged and the remaining steps still run.
func (engine *Engine) Run(ctx context.Context, companyID int64) error {
	env := newEnv(engine, companyID)

	var errs *multierror.Error
	for _, step := range Graph {
		if err := engine.runStep(ctx, env, step); err != nil {
			log.Error().Err(err).Int64("CompanyID", companyID).Str("Step", step.Name).Msg("metric step failed")
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", step.Name, err))
		}
	}

	return errs.ErrorOrNil()
}

// RefreshAll recomputes metric for every company, one company at a time.
// Failures are logged and counted but never stop the batch.
func (engine *Engine) RefreshAll(ctx context.Context, metric string) *RefreshSummary {
	run := data.NewRefreshRun(metric)
	summary := &RefreshSummary{Run: run}
	subLog := log.With().Str("Metric", metric).Str("RunID", run.ID.String()).Logger()

	failures := make(map[int64]string)
	var errs *multierror.Error

	if _, err := StepFor(metric); err != nil {
		subLog.Error().Err(err).Msg("cannot refresh metric")
		errs = multierror.Append(errs, err)
	} else if companyIDs, err := engine.store.CompanyIDs(ctx); err != nil {
		subLog.Error().Err(err).Msg("could not list companies")
		errs = multierror.Append(errs, err)
	} else {
		for _, companyID := range companyIDs {
			run.Companies++
			if err := engine.ComputeAndStore(ctx, metric, companyID); err != nil {
				run.Failures++
				failures[companyID] = err.Error()
				subLog.Error().Err(err).Int64("CompanyID", companyID).Msg("refresh failed for company")
				errs = multierror.Append(errs, fmt.Errorf("company %d: %w", companyID, err))
			}
		}
	}

	run.Finished = time.Now()
	summary.Duration = run.Finished.Sub(run.Started)
	summary.Err = errs.ErrorOrNil()

	details := map[string]interface{}{
		"duration": durafmt.Parse(summary.Duration).String(),
		"failures": failures,
	}
	if err := engine.store.SaveRefreshRun(ctx, run, details); err != nil {
		subLog.Warn().Err(err).Msg("could not record refresh run")
	}

	subLog.Info().Int("Companies", run.Companies).Int("Failures", run.Failures).
		Str("RunTime", durafmt.Parse(summary.Duration).String()).Msg("refresh complete")

	return summary
}

// RefreshEverything refreshes every stored derived metric in graph order.
// Each metric is finished across all companies before the next one starts.
func (engine *Engine) RefreshEverything(ctx context.Context) []*RefreshSummary {
	metrics := DerivedMetrics()
	summaries := make([]*RefreshSummary, 0, len(metrics))
	for _, metric := range metrics {
		summaries = append(summaries, engine.RefreshAll(ctx, metric))
	}
	return summaries
}
