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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestExponentialBackoffMonotonic verifies that delay(i+1) >= delay(i)
// until Cap, and delay(i) <= Cap always. Jitter is disabled so the
// formula's own monotonicity, not a random draw, is what's tested.
func TestExponentialBackoffMonotonic(t *testing.T) {
	b := &ExponentialBackoff{Base: time.Millisecond, Cap: 500 * time.Millisecond, Factor: 2.0}

	var prev time.Duration
	for i := 0; i < 20; i++ {
		d := b.Delay(i)
		require.LessOrEqual(t, d, b.Cap)
		require.GreaterOrEqual(t, d, prev)
		prev = d
	}
	require.Equal(t, b.Cap, prev)
}

func TestExponentialBackoffJitterStaysBounded(t *testing.T) {
	b := NewExponentialBackoff()
	for i := 0; i < 10; i++ {
		d := b.Delay(i)
		require.GreaterOrEqual(t, d, time.Duration(0))
		require.LessOrEqual(t, d, b.unjittered(i))
	}
}

func TestExponentialBackoffDefaultHasSaneShape(t *testing.T) {
	b := NewExponentialBackoff()
	require.Equal(t, 10*time.Millisecond, b.Base)
	require.Equal(t, time.Second, b.Cap)
	require.Equal(t, 2.0, b.Factor)
}
