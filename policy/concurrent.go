/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package policy

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// ConcurrentPolicy bounds the number of concurrent in-flight callers to
// Max. It is backed by a golang.org/x/sync/semaphore.Weighted used only
// through TryAcquire, a non-blocking gate with no waiter queue of its
// own; backoff retry on top of TryAcquire is only engaged when a
// Backoff schedule is configured, and any fairness between waiters
// comes from that polling loop, not from the semaphore. A policy with
// no backoff is a plain atomic admission check.
type ConcurrentPolicy struct {
	// Name labels this policy in log lines. Optional.
	Name string

	max     int64
	sem     *semaphore.Weighted
	backoff Backoff

	inFlight atomic.Int64
}

// NewConcurrentPolicy builds a policy with no backoff: a denied
// TryAcquire fails the call immediately.
func NewConcurrentPolicy(max int) *ConcurrentPolicy {
	return &ConcurrentPolicy{max: int64(max), sem: semaphore.NewWeighted(int64(max))}
}

// NewConcurrentPolicyWithBackoff builds a policy that retries on denial
// according to backoff until ctx is done. A nil backoff makes this
// equivalent to NewConcurrentPolicy.
func NewConcurrentPolicyWithBackoff(max int, backoff Backoff) *ConcurrentPolicy {
	return &ConcurrentPolicy{max: int64(max), sem: semaphore.NewWeighted(int64(max)), backoff: backoff}
}

// Max returns the configured concurrency bound.
func (p *ConcurrentPolicy) Max() int { return int(p.max) }

// InFlight returns the current number of held permits. Intended for
// tests and metrics; it is not part of the acquire/release contract.
func (p *ConcurrentPolicy) InFlight() int64 { return p.inFlight.Load() }

// TryAcquire attempts to reserve a slot without waiting.
func (p *ConcurrentPolicy) TryAcquire() (Release, bool) {
	if !p.sem.TryAcquire(1) {
		return nil, false
	}
	p.inFlight.Add(1)
	var released atomic.Bool
	return func() {
		if !released.CompareAndSwap(false, true) {
			panic("policy: permit released more than once")
		}
		p.inFlight.Add(-1)
		p.sem.Release(1)
	}, true
}

// Acquire implements Policy. With no backoff configured it behaves
// exactly like TryAcquire. With a backoff configured, a denied
// TryAcquire enters a retry loop: sleep Delay(attempt), retry, until a
// slot frees up, ctx is cancelled (ErrCancelled), or ctx's own deadline
// expires (ErrLimitExceeded) — the two context.Context failure modes
// map directly onto the two ways a wait can end without a slot.
func (p *ConcurrentPolicy) Acquire(ctx context.Context) (Release, error) {
	if release, ok := p.TryAcquire(); ok {
		return release, nil
	}
	if p.backoff == nil {
		return nil, ErrLimitExceeded
	}

	for attempt := 0; ; attempt++ {
		delay := p.backoff.Delay(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			if errors.Is(ctx.Err(), context.Canceled) {
				log.Debugf("policy %s: acquire cancelled after %d attempts", p.Name, attempt)
				return nil, ErrCancelled
			}
			log.Debugf("policy %s: acquire deadline exceeded after %d attempts", p.Name, attempt)
			return nil, ErrLimitExceeded
		case <-timer.C:
		}
		if release, ok := p.TryAcquire(); ok {
			return release, nil
		}
		log.Debugf("policy %s: denied, retrying (attempt %d)", p.Name, attempt+1)
	}
}
