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
	"math"
	"math/rand"
	"time"
)

// Backoff produces the sleep duration for a given (zero-based) retry
// attempt. Implementations are stateless: the same attempt index always
// maps to the same distribution of delays.
type Backoff interface {
	Delay(attempt int) time.Duration
}

// ExponentialBackoff is the default schedule: delay(i) = min(Cap, Base *
// Factor^i), scaled down by a uniform jitter factor in
// [1-Jitter, 1]. Jitter 0 disables randomization, which is what the
// monotonicity property (delay(i+1) >= delay(i) until Cap) is defined
// against; the jittered value this produces at runtime trades that
// strict guarantee for spread under bursty concurrent retries.
type ExponentialBackoff struct {
	Base   time.Duration
	Cap    time.Duration
	Factor float64
	Jitter float64

	// randFloat is overridable for deterministic tests; defaults to
	// rand.Float64.
	randFloat func() float64
}

// NewExponentialBackoff returns the default schedule: 10ms base, 2x
// factor, capped at 1s, with moderate jitter.
func NewExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		Base:   10 * time.Millisecond,
		Cap:    time.Second,
		Factor: 2.0,
		Jitter: 0.3,
	}
}

// Delay implements Backoff.
func (b *ExponentialBackoff) Delay(attempt int) time.Duration {
	d := b.unjittered(attempt)
	if b.Jitter <= 0 {
		return d
	}
	r := rand.Float64()
	if b.randFloat != nil {
		r = b.randFloat()
	}
	factor := 1 - b.Jitter*r
	return time.Duration(float64(d) * factor)
}

// unjittered computes the capped exponential delay before jitter is
// applied. Exported indirectly via Delay when Jitter == 0, which is how
// tests exercise the monotonicity property without fighting randomness.
func (b *ExponentialBackoff) unjittered(attempt int) time.Duration {
	d := float64(b.Base) * math.Pow(b.Factor, float64(attempt))
	capF := float64(b.Cap)
	if d > capF || math.IsInf(d, 1) {
		d = capF
	}
	return time.Duration(d)
}
