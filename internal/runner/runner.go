/*
 * Copyright 2025 The sourcescan Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package runner

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sourcescan/sourcescan/internal/config"
	"github.com/sourcescan/sourcescan/internal/extractor"
)

// Runner is the execution substrate around the extraction pipeline: it
// launches runs, applies the retry policy around each stage, and publishes
// progress snapshots into its registry. Runs are independent and may execute
// concurrently; each owns its ExtractionResult exclusively.
type Runner struct {
	logger   *zap.Logger
	registry *Registry
	retry    RetryOptions
	orchOpts []extractor.OrchestratorOption

	wg sync.WaitGroup
}

// NewRunner builds a runner publishing into registry. Extra orchestrator
// options (stage policy overrides, substituted stages) apply to every run it
// starts.
func NewRunner(logger *zap.Logger, registry *Registry, retry RetryOptions, orchOpts ...extractor.OrchestratorOption) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, registry: registry, retry: retry, orchOpts: orchOpts}
}

// Registry exposes the pollable run snapshots.
func (r *Runner) Registry() *Registry {
	return r.registry
}

func (r *Runner) newOrchestrator(runID string) (*extractor.Orchestrator, error) {
	opts := []extractor.OrchestratorOption{
		WithRetryPolicy(r.retry, r.logger),
		extractor.WithProgress(func(snapshot *extractor.ExtractionResult) {
			r.registry.Put(runID, snapshot)
		}),
	}
	opts = append(opts, r.orchOpts...)
	return extractor.NewOrchestrator(r.logger.With(zap.String("run_id", runID)), opts...)
}

// WithRetryPolicy wraps the orchestrator's invoker with the retry policy.
func WithRetryPolicy(opts RetryOptions, logger *zap.Logger) extractor.OrchestratorOption {
	return func(o *extractor.Orchestrator) {
		extractor.WithInvoker(NewRetryInvoker(extractor.DefaultInvoker(), opts, logger))(o)
	}
}

// Launch starts a run in the background and returns its identifier
// immediately. Progress is observable through the registry while the run is
// still in flight.
func (r *Runner) Launch(ctx context.Context, cfg config.ConnectionConfig, opts config.AnalysisOptions) (string, error) {
	runID := uuid.NewString()
	orch, err := r.newOrchestrator(runID)
	if err != nil {
		return "", err
	}

	r.registry.Put(runID, &extractor.ExtractionResult{Status: extractor.StatusRunning})

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		result := orch.Run(ctx, cfg, opts)
		r.registry.Put(runID, result)
	}()

	return runID, nil
}

// Run executes a run synchronously and returns its terminal result. The
// result is also registered under the returned run ID.
func (r *Runner) Run(ctx context.Context, cfg config.ConnectionConfig, opts config.AnalysisOptions) (string, *extractor.ExtractionResult, error) {
	runID := uuid.NewString()
	orch, err := r.newOrchestrator(runID)
	if err != nil {
		return "", nil, err
	}

	result := orch.Run(ctx, cfg, opts)
	r.registry.Put(runID, result)
	return runID, result, nil
}

// Wait blocks until every launched run has reached a terminal status.
func (r *Runner) Wait() {
	r.wg.Wait()
}
