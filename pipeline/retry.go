// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package pipeline

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

// SleepFunc waits for the given duration or until the context is done.
// Injectable so retry behavior is testable with a fake clock.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ContextSleep is the production SleepFunc.
func ContextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryPolicy retries transient failures with exponential backoff.
type RetryPolicy struct {
	// MaxAttempts is the total attempt count including the first call.
	MaxAttempts int

	// BaseDelay doubles after each failed attempt.
	BaseDelay time.Duration

	// MaxDelay caps the grown delay. Zero means uncapped.
	MaxDelay time.Duration

	// Jitter is the fraction of the delay randomized on top of it,
	// in [0, 1]. Zero disables jitter.
	Jitter float64
}

// DefaultRetryPolicy returns the standard policy for external calls.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Jitter:      0.2,
	}
}

// Validate checks the policy bounds.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	return nil
}

// Delay returns the backoff before the given retry (attempt counts from
// 1; the delay applies after that attempt fails).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			delay = p.MaxDelay
			break
		}
	}
	if p.Jitter > 0 {
		delay += time.Duration(p.Jitter * rand.Float64() * float64(delay))
	}
	return delay
}

// Execute runs the operation, retrying transient failures up to
// MaxAttempts with exponential backoff through sleep. Non-transient
// errors return immediately. The context is checked before every
// attempt.
func (p RetryPolicy) Execute(ctx context.Context, operation func() error, sleep SleepFunc) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if sleep == nil {
		sleep = ContextSleep
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		if !IsTransient(lastErr) {
			return lastErr
		}

		slog.Debug("transient failure, will retry",
			"attempt", attempt, "maxAttempts", p.MaxAttempts, "err", lastErr)

		if attempt == p.MaxAttempts {
			break
		}
		if err := sleep(ctx, p.Delay(attempt)); err != nil {
			return err
		}
	}

	return lastErr
}
