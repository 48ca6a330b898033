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

package admission_test

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/matchgate/admission/actx"
	"github.com/matchgate/admission/admission"
	"github.com/matchgate/admission/matcher"
	"github.com/matchgate/admission/policy"
	"github.com/stretchr/testify/require"
)

// dumpCountersOnFailure spew-dumps every counting matcher's hit count
// when the calling test fails, so a selection-uniqueness regression
// shows exactly which rows were (and weren't) evaluated instead of just
// "expected 0, got 1".
func dumpCountersOnFailure(t *testing.T, label string, counters map[string]*countingMatcher) {
	t.Helper()
	t.Cleanup(func() {
		if !t.Failed() {
			return
		}
		counts := make(map[string]int64, len(counters))
		for name, c := range counters {
			counts[name] = c.count.Load()
		}
		t.Logf("%s row evaluation counts:\n%s", label, spew.Sdump(counts))
	})
}

type req struct {
	path   string
	method string
}

func (r req) RequestPath() string   { return r.path }
func (r req) RequestMethod() string { return r.method }

func ctxFrom(peerIP string) *actx.Context[struct{}] {
	c := actx.New(struct{}{})
	actx.Set(c.Extensions(), actx.SocketInfo{Peer: &net.TCPAddr{IP: net.ParseIP(peerIP), Port: 12345}})
	return c
}

func echoService(_ *actx.Context[struct{}], subject any) (any, error) {
	return subject, nil
}

func sleepingService(d time.Duration) admission.Service[struct{}] {
	return func(_ *actx.Context[struct{}], subject any) (any, error) {
		time.Sleep(d)
		return subject, nil
	}
}

// countingMatcher wraps m and counts how many times it was evaluated,
// letting a test assert that a row after the winning one is never
// consulted.
type countingMatcher struct {
	inner matcher.Matcher[struct{}]
	count atomic.Int64
}

func (c *countingMatcher) Matches(ext *actx.Extensions, ctx *actx.Context[struct{}], subject any) bool {
	c.count.Add(1)
	return c.inner.Matches(ext, ctx, subject)
}

// TestLoopbackBypassesSaturatedPolicy verifies that a row matching
// every non-loopback peer denies a second concurrent caller once its
// single slot is held, while a loopback peer reaches no row at all and
// is admitted unconditionally.
func TestLoopbackBypassesSaturatedPolicy(t *testing.T) {
	p := policy.NewConcurrentPolicy(1)
	table := admission.Table[struct{}]{
		{Matcher: matcher.Negate[struct{}](matcher.NewLoopback[struct{}]()), Cell: admission.Leaf[struct{}](p)},
	}
	e := admission.New(table, echoService)

	_, err := e.Handle(context.Background(), ctxFrom("203.0.113.5"), req{path: "/x"})
	require.NoError(t, err)
	defer func() { require.EqualValues(t, 0, p.InFlight()) }()

	release, acquired := p.TryAcquire()
	require.True(t, acquired)
	_, handleErr := e.Handle(context.Background(), ctxFrom("203.0.113.5"), req{path: "/x"})
	require.ErrorIs(t, handleErr, admission.ErrLimitExceeded)

	_, err2 := e.Handle(context.Background(), ctxFrom("127.0.0.1"), req{path: "/x"})
	require.NoError(t, err2, "loopback peers bypass the table entirely")
	release()
}

// TestUnconditionalCellBypassesLimits verifies that a row with no
// policy admits every matching call unconditionally while leaving
// non-matching calls untouched.
func TestUnconditionalCellBypassesLimits(t *testing.T) {
	path, err := matcher.NewPath[struct{}]("/admin/*")
	require.NoError(t, err)
	table := admission.Table[struct{}]{
		{Matcher: path, Cell: admission.None[struct{}]()},
	}
	e := admission.New(table, echoService)

	resp, err := e.Handle(context.Background(), actx.New(struct{}{}), req{path: "/admin/users"})
	require.NoError(t, err)
	require.Equal(t, req{path: "/admin/users"}, resp)

	resp, err = e.Handle(context.Background(), actx.New(struct{}{}), req{path: "/user"})
	require.NoError(t, err)
	require.Equal(t, req{path: "/user"}, resp)
}

// TestBackoffAdmitsThirdCallerAfterRelease runs a fast-clock check that
// a caller denied by a saturated policy is admitted once a release
// frees a slot, rather than failing outright.
func TestBackoffAdmitsThirdCallerAfterRelease(t *testing.T) {
	path, err := matcher.NewPath[struct{}]("/limit/*")
	require.NoError(t, err)
	p := policy.NewConcurrentPolicyWithBackoff(2, &policy.ExponentialBackoff{Base: time.Millisecond, Cap: 10 * time.Millisecond, Factor: 2})
	table := admission.Table[struct{}]{
		{Matcher: path, Cell: admission.Leaf[struct{}](p)},
	}
	e := admission.New(table, sleepingService(50*time.Millisecond))

	results := make(chan error, 3)
	for i := 0; i < 3; i++ {
		go func() {
			_, err := e.Handle(context.Background(), actx.New(struct{}{}), req{path: "/limit/slow"})
			results <- err
		}()
	}

	for i := 0; i < 3; i++ {
		require.NoError(t, <-results)
	}
	require.EqualValues(t, 0, p.InFlight())
}

// TestTimeoutCancelsWaiter models an external timeout wrapper as a
// cancel-based deadline (see policy.ConcurrentPolicy.Acquire doc): once
// the wrapper's timer fires it cancels the context, which the engine
// reports as Cancelled.
func TestTimeoutCancelsWaiter(t *testing.T) {
	path, err := matcher.NewPath[struct{}]("/limit/*")
	require.NoError(t, err)
	p := policy.NewConcurrentPolicyWithBackoff(2, &policy.ExponentialBackoff{Base: time.Millisecond, Cap: 5 * time.Millisecond, Factor: 2})
	table := admission.Table[struct{}]{
		{Matcher: path, Cell: admission.Leaf[struct{}](p)},
	}
	e := admission.New(table, sleepingService(time.Second))

	for i := 0; i < 2; i++ {
		go e.Handle(context.Background(), actx.New(struct{}{}), req{path: "/limit/slow"})
	}
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	_, err = e.Handle(ctx, actx.New(struct{}{}), req{path: "/limit/slow"})
	require.ErrorIs(t, err, admission.ErrCancelled)
}

// TestNestedTreeSelectsLeafOrFallback verifies that a Tree cell
// recurses into its nested table, using each leaf's own policy when a
// row matches and its fallback policy when none do, and that a call
// reaching no row anywhere passes through unchanged.
func TestNestedTreeSelectsLeafOrFallback(t *testing.T) {
	apiPath, err := matcher.NewPath[struct{}]("/api/*")
	require.NoError(t, err)
	slowPath, err := matcher.NewPath[struct{}]("/api/slow")
	require.NoError(t, err)
	fastPath, err := matcher.NewPath[struct{}]("/api/fast")
	require.NoError(t, err)

	slowPolicy := policy.NewConcurrentPolicyWithBackoff(1, policy.NewExponentialBackoff())
	fallbackPolicy := policy.NewConcurrentPolicyWithBackoff(5, policy.NewExponentialBackoff())

	sub := admission.Table[struct{}]{
		{Matcher: slowPath, Cell: admission.Leaf[struct{}](slowPolicy)},
		{Matcher: fastPath, Cell: admission.None[struct{}]()},
	}
	table := admission.Table[struct{}]{
		{Matcher: apiPath, Cell: admission.Sub(sub, fallbackPolicy)},
	}
	e := admission.New(table, echoService)

	_, err = e.Handle(context.Background(), actx.New(struct{}{}), req{path: "/api/slow"})
	require.NoError(t, err)
	require.EqualValues(t, 0, slowPolicy.InFlight())

	_, err = e.Handle(context.Background(), actx.New(struct{}{}), req{path: "/api/fast"})
	require.NoError(t, err)

	_, err = e.Handle(context.Background(), actx.New(struct{}{}), req{path: "/api/other"})
	require.NoError(t, err)
	require.EqualValues(t, 0, fallbackPolicy.InFlight())

	resp, err := e.Handle(context.Background(), actx.New(struct{}{}), req{path: "/unrelated"})
	require.NoError(t, err)
	require.Equal(t, req{path: "/unrelated"}, resp)
}

// TestSelectionUniqueness verifies that at most one row's policy is
// consulted per call: rows after the first match are never evaluated.
func TestSelectionUniqueness(t *testing.T) {
	firstPath, err := matcher.NewPath[struct{}]("/x")
	require.NoError(t, err)
	secondPath, err := matcher.NewPath[struct{}]("/x")
	require.NoError(t, err)

	first := &countingMatcher{inner: firstPath}
	second := &countingMatcher{inner: secondPath}
	dumpCountersOnFailure(t, "TestSelectionUniqueness", map[string]*countingMatcher{"first": first, "second": second})

	table := admission.Table[struct{}]{
		{Matcher: first, Cell: admission.None[struct{}]()},
		{Matcher: second, Cell: admission.None[struct{}]()},
	}
	e := admission.New(table, echoService)

	_, err = e.Handle(context.Background(), actx.New(struct{}{}), req{path: "/x"})
	require.NoError(t, err)
	require.EqualValues(t, 1, first.count.Load())
	require.EqualValues(t, 0, second.count.Load(), "a row after the first match must not be evaluated")
}

// TestPassThroughWhenNoRowMatches verifies that an unmatched call
// reaches the inner service unchanged.
func TestPassThroughWhenNoRowMatches(t *testing.T) {
	table := admission.Table[struct{}]{}
	e := admission.New(table, echoService)
	resp, err := e.Handle(context.Background(), actx.New(struct{}{}), req{path: "/anything"})
	require.NoError(t, err)
	require.Equal(t, req{path: "/anything"}, resp)
}

// TestNoSlotLeakOnPanic verifies that a panicking service does not leak
// its held slot: the permit's release is attached via defer in
// acquireAndRun, so it runs during panic unwinding even though the
// panic itself still propagates.
func TestNoSlotLeakOnPanic(t *testing.T) {
	p := policy.NewConcurrentPolicy(1)
	table := admission.Table[struct{}]{
		{Matcher: matcher.Func[struct{}](func(*actx.Extensions, *actx.Context[struct{}], any) bool { return true }), Cell: admission.Leaf[struct{}](p)},
	}
	panicking := admission.Service[struct{}](func(*actx.Context[struct{}], any) (any, error) {
		panic("boom")
	})
	e := admission.New(table, panicking)

	require.Panics(t, func() {
		_, _ = e.Handle(context.Background(), actx.New(struct{}{}), req{path: "/x"})
	})
	require.EqualValues(t, 0, p.InFlight())
}
