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

package reembed

import (
	"context"
	"log/slog"
	"time"
)

// Backoff is an exponential retry policy.
type Backoff struct {
	Attempts  int           // total tries, including the first
	BaseDelay time.Duration // wait before the second try, doubled each time after
	MaxDelay  time.Duration // upper bound per wait; zero means unbounded
}

// Delay returns the wait after the given failed attempt (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	d := b.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if b.MaxDelay > 0 && d >= b.MaxDelay {
			return b.MaxDelay
		}
	}
	if b.MaxDelay > 0 && d > b.MaxDelay {
		return b.MaxDelay
	}
	return d
}

// Do calls op until it succeeds, the attempts run out, or ctx is done.
// The last error from op is returned unwrapped.
func (b Backoff) Do(ctx context.Context, logger *slog.Logger, op func(ctx context.Context) error) error {
	if b.Attempts <= 0 {
		return ErrInvalidAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}

	var err error
	for attempt := 1; attempt <= b.Attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err = op(ctx); err == nil {
			if attempt > 1 {
				logger.Debug("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if attempt == b.Attempts {
			break
		}

		delay := b.Delay(attempt)
		logger.Debug("attempt failed, retrying", "attempt", attempt, "attempts", b.Attempts, "delay", delay, "err", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
