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
package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sourcescan/sourcescan/internal/config"
	"github.com/sourcescan/sourcescan/internal/database"
)

// State of the extraction pipeline's run-level state machine.
type State string

const (
	StatePending                  State = "pending"
	StateTestingConnection        State = "testing_connection"
	StateIntrospectingSchema      State = "introspecting_schema"
	StateClassifyingSensitiveData State = "classifying_sensitive_data"
	StateAnalyzingQuality         State = "analyzing_quality"
	StateCompleted                State = "completed"
	StateFailed                   State = "failed"
)

// Step names recorded in ExtractionResult.StepsCompleted. A step is appended
// on attempt, regardless of outcome, so a failed run still carries an
// auditable progress trail.
const (
	StepConnectionTest         = "connection_test"
	StepSchemaExtraction       = "schema_extraction"
	StepSensitiveDataDetection = "sensitive_data_detection"
	StepDataQualityAnalysis    = "data_quality_analysis"
)

// legalTransitions makes the gating rules exhaustive: a transition absent
// here is a programming error, not a recoverable condition.
var legalTransitions = map[State][]State{
	StatePending:                  {StateTestingConnection},
	StateTestingConnection:        {StateIntrospectingSchema, StateCompleted, StateFailed},
	StateIntrospectingSchema:      {StateClassifyingSensitiveData, StateAnalyzingQuality, StateCompleted, StateFailed},
	StateClassifyingSensitiveData: {StateAnalyzingQuality, StateCompleted, StateFailed},
	StateAnalyzingQuality:         {StateCompleted, StateFailed},
}

// StagePolicy bounds one stage invocation.
type StagePolicy struct {
	Timeout time.Duration
}

// Invoker wraps each stage call. The default invoker applies the stage
// deadline; an external execution substrate may layer retry-with-backoff on
// top (stages themselves never retry).
type Invoker interface {
	Invoke(ctx context.Context, stage string, policy StagePolicy, fn func(context.Context) error) error
}

// DefaultInvoker returns the invoker that applies only the stage deadline.
// Substrates layering their own policy wrap it.
func DefaultInvoker() Invoker { return directInvoker{} }

type directInvoker struct{}

func (directInvoker) Invoke(ctx context.Context, stage string, policy StagePolicy, fn func(context.Context) error) error {
	if policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, policy.Timeout)
		defer cancel()
	}
	err := fn(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return &QueryTimeoutError{Stage: stage, Err: err}
	}
	return err
}

// defaultPolicies bound the catalog-heavy stages well above the probe's
// connect timeout.
var defaultPolicies = map[string]StagePolicy{
	StepConnectionTest:         {Timeout: config.DefaultConnectTimeout},
	StepSchemaExtraction:       {Timeout: 5 * time.Minute},
	StepSensitiveDataDetection: {Timeout: time.Minute},
	StepDataQualityAnalysis:    {Timeout: 10 * time.Minute},
}

// Orchestrator sequences the pipeline stages for one run at a time. It holds
// no per-run state, so a single Orchestrator may serve concurrent runs.
type Orchestrator struct {
	logger     *zap.Logger
	stages     *Stages
	classifier *Classifier
	invoker    Invoker
	policies   map[string]StagePolicy
	onProgress func(*ExtractionResult)
}

// OrchestratorOption customizes an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithStages substitutes the stage implementations.
func WithStages(stages *Stages) OrchestratorOption {
	return func(o *Orchestrator) { o.stages = stages }
}

// WithInvoker substitutes the stage invoker.
func WithInvoker(inv Invoker) OrchestratorOption {
	return func(o *Orchestrator) { o.invoker = inv }
}

// WithStagePolicy overrides the deadline policy of one stage.
func WithStagePolicy(stage string, policy StagePolicy) OrchestratorOption {
	return func(o *Orchestrator) { o.policies[stage] = policy }
}

// WithProgress registers a hook called with a snapshot after every result
// mutation. The hook receives a clone; it may retain it.
func WithProgress(fn func(*ExtractionResult)) OrchestratorOption {
	return func(o *Orchestrator) { o.onProgress = fn }
}

// NewOrchestrator builds an orchestrator with the embedded category table
// and default stage policies.
func NewOrchestrator(logger *zap.Logger, opts ...OrchestratorOption) (*Orchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	classifier, err := NewClassifier()
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		logger:     logger,
		stages:     NewStages(logger),
		classifier: classifier,
		invoker:    directInvoker{},
		policies:   make(map[string]StagePolicy, len(defaultPolicies)),
	}
	for stage, policy := range defaultPolicies {
		o.policies[stage] = policy
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

func (o *Orchestrator) policy(stage string) StagePolicy {
	return o.policies[stage]
}

func (o *Orchestrator) publish(result *ExtractionResult) {
	if o.onProgress != nil {
		o.onProgress(result.Clone())
	}
}

// transition moves the state machine to next, enforcing the legal-transition
// table.
func (o *Orchestrator) transition(current *State, next State) error {
	for _, allowed := range legalTransitions[*current] {
		if allowed == next {
			o.logger.Debug("pipeline state transition",
				zap.String("from", string(*current)),
				zap.String("to", string(next)))
			*current = next
			return nil
		}
	}
	return fmt.Errorf("illegal pipeline transition %s -> %s", *current, next)
}

// Run executes the pipeline for one connection config. The returned result
// always carries a terminal status; gating failures surface in Status and
// Error, never as a returned Go error, so callers see one shape for every
// outcome.
func (o *Orchestrator) Run(ctx context.Context, cfg config.ConnectionConfig, opts config.AnalysisOptions) *ExtractionResult {
	result := &ExtractionResult{
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	state := StatePending

	// Connection probe: the hard gate.
	if err := o.transition(&state, StateTestingConnection); err != nil {
		return o.fail(result, &state, err)
	}
	result.StepsCompleted = append(result.StepsCompleted, StepConnectionTest)
	o.publish(result)

	var probe database.ProbeResult
	err := o.invoker.Invoke(ctx, StepConnectionTest, o.policy(StepConnectionTest), func(ctx context.Context) error {
		probe = o.stages.TestConnection(ctx, cfg, o.policy(StepConnectionTest).Timeout)
		if probe.Status != database.ProbeSuccess {
			return &ConnectionError{Msg: probe.Message}
		}
		return nil
	})
	result.ConnectionTest = &probe
	if err != nil {
		return o.fail(result, &state, err)
	}
	o.publish(result)

	if opts.TestOnly {
		return o.complete(result, &state, opts)
	}

	// Schema introspection: gating.
	if err := o.transition(&state, StateIntrospectingSchema); err != nil {
		return o.fail(result, &state, err)
	}
	result.StepsCompleted = append(result.StepsCompleted, StepSchemaExtraction)
	o.publish(result)

	err = o.invoker.Invoke(ctx, StepSchemaExtraction, o.policy(StepSchemaExtraction), func(ctx context.Context) error {
		meta, err := o.stages.ExtractSchema(ctx, cfg, opts.SchemaFilter)
		if err != nil {
			return err
		}
		result.SchemaMetadata = meta
		return nil
	})
	if err != nil {
		return o.fail(result, &state, err)
	}
	o.publish(result)

	// Classification cannot fail; an empty finding set is valid output.
	if opts.DetectSensitiveData {
		if err := o.transition(&state, StateClassifyingSensitiveData); err != nil {
			return o.fail(result, &state, err)
		}
		result.StepsCompleted = append(result.StepsCompleted, StepSensitiveDataDetection)
		result.SensitiveFindings = o.classifier.Classify(result.SchemaMetadata)
		o.publish(result)
	}

	// Quality analysis: per-table failures are recorded in the metrics, so
	// only a stage-level failure (no usable connection) gates here.
	if opts.AnalyzeDataQuality {
		if err := o.transition(&state, StateAnalyzingQuality); err != nil {
			return o.fail(result, &state, err)
		}
		result.StepsCompleted = append(result.StepsCompleted, StepDataQualityAnalysis)
		o.publish(result)

		err = o.invoker.Invoke(ctx, StepDataQualityAnalysis, o.policy(StepDataQualityAnalysis), func(ctx context.Context) error {
			metrics, err := o.stages.AnalyzeQuality(ctx, cfg, result.SchemaMetadata, opts.QualityTableCap())
			if err != nil {
				return err
			}
			result.QualityMetrics = metrics
			return nil
		})
		if err != nil {
			return o.fail(result, &state, err)
		}
		o.publish(result)
	}

	return o.complete(result, &state, opts)
}

func (o *Orchestrator) complete(result *ExtractionResult, state *State, opts config.AnalysisOptions) *ExtractionResult {
	if err := o.transition(state, StateCompleted); err != nil {
		return o.fail(result, state, err)
	}
	result.Summary = summarize(result, opts)
	result.Status = StatusCompleted
	now := time.Now().UTC()
	result.FinishedAt = &now
	o.publish(result)
	o.logger.Info("extraction run completed", zap.Strings("steps", result.StepsCompleted))
	return result
}

func (o *Orchestrator) fail(result *ExtractionResult, state *State, err error) *ExtractionResult {
	*state = StateFailed
	result.Status = StatusFailed
	result.Error = err.Error()
	now := time.Now().UTC()
	result.FinishedAt = &now
	o.publish(result)
	o.logger.Warn("extraction run failed", zap.Error(err), zap.Strings("steps", result.StepsCompleted))
	return result
}

// summarize computes the run totals from the aggregated sub-results.
func summarize(result *ExtractionResult, opts config.AnalysisOptions) *ExecutionSummary {
	summary := &ExecutionSummary{TestOnly: opts.TestOnly}

	if meta := result.SchemaMetadata; meta != nil {
		summary.TotalSchemas = len(meta.Schemas)
		for _, schema := range meta.Schemas {
			summary.TotalTables += len(schema.Tables)
			for _, table := range schema.Tables {
				summary.TotalColumns += len(table.Columns)
			}
		}
	}

	summary.SensitiveColumns = len(result.SensitiveFindings)
	if len(result.SensitiveFindings) > 0 {
		summary.CategoryCounts = make(map[string]int)
		for _, finding := range result.SensitiveFindings {
			summary.CategoryCounts[finding.Category]++
		}
	}

	summary.TablesAnalyzed = len(result.QualityMetrics)
	return summary
}
