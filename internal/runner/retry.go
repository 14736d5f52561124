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
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/sourcescan/sourcescan/internal/extractor"
)

// RetryOptions configures the retry behavior applied around stage calls.
// Retry lives here, in the execution substrate; stages never retry
// internally.
type RetryOptions struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultRetryOptions provides sensible default retry settings.
var DefaultRetryOptions = RetryOptions{
	MaxAttempts:       3,
	InitialBackoff:    100 * time.Millisecond,
	MaxBackoff:        2 * time.Second,
	BackoffMultiplier: 2.0,
}

// isRetryableError determines if a stage error should trigger a retry. Only
// transient faults qualify; config validation and classification errors are
// deterministic and retrying them would reproduce the same failure.
func isRetryableError(err error) bool {
	var (
		connErr    *extractor.ConnectionError
		introErr   *extractor.IntrospectionError
		timeoutErr *extractor.QueryTimeoutError
	)
	switch {
	case errors.As(err, &connErr), errors.As(err, &introErr), errors.As(err, &timeoutErr):
		return true
	default:
		return false
	}
}

// retryInvoker wraps an inner invoker with exponential backoff. It satisfies
// extractor.Invoker, so the orchestrator stays unaware of the retry policy.
type retryInvoker struct {
	inner  extractor.Invoker
	opts   RetryOptions
	logger *zap.Logger
}

// NewRetryInvoker layers retry-with-backoff on top of inner. Stage contracts
// are idempotent against an unmodified database, which makes re-running a
// stage safe.
func NewRetryInvoker(inner extractor.Invoker, opts RetryOptions, logger *zap.Logger) extractor.Invoker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retryInvoker{inner: inner, opts: opts, logger: logger}
}

func (r *retryInvoker) Invoke(ctx context.Context, stage string, policy extractor.StagePolicy, fn func(context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < r.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			return lastErr
		}

		lastErr = r.inner.Invoke(ctx, stage, policy, fn)
		if lastErr == nil {
			return nil
		}
		if !isRetryableError(lastErr) {
			return lastErr
		}

		backoff := r.opts.InitialBackoff * time.Duration(math.Pow(r.opts.BackoffMultiplier, float64(attempt)))
		if backoff > r.opts.MaxBackoff {
			backoff = r.opts.MaxBackoff
		}
		r.logger.Warn("stage failed, retrying",
			zap.String("stage", stage),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(lastErr))

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}

	return lastErr
}
