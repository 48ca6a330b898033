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

package admission

import (
	"context"
	"errors"

	"github.com/matchgate/admission/actx"
	m "github.com/matchgate/admission/matcher"
	"github.com/matchgate/admission/policy"
	log "github.com/sirupsen/logrus"
)

// ErrLimitExceeded is returned when the selected policy denied the call
// without a successful retry.
var ErrLimitExceeded = policy.ErrLimitExceeded

// ErrCancelled is returned when ctx was cancelled while the call waited
// for a slot.
var ErrCancelled = policy.ErrCancelled

// Service is the inner collaborator the engine guards. It must not be
// invoked more than once per call, and the engine never retries it.
type Service[State any] func(ctx *actx.Context[State], subject any) (any, error)

// Engine is the matcher-indexed concurrency admission middleware. Build
// one with New and call Handle per inbound request or stream.
type Engine[State any] struct {
	table   Table[State]
	service Service[State]
	stats   Stats
}

// Option configures an Engine at construction time.
type Option[State any] func(*Engine[State])

// WithStats attaches a Stats collaborator. Nil (the default) disables
// metrics entirely.
func WithStats[State any](stats Stats) Option[State] {
	return func(e *Engine[State]) { e.stats = stats }
}

// New builds an Engine over table, guarding service.
func New[State any](table Table[State], service Service[State], opts ...Option[State]) *Engine[State] {
	e := &Engine[State]{table: table, service: service}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle walks the table for subject, admits it under at most one
// policy, and runs the guarded service while holding that policy's
// slot (if any). ctx governs cancellation/deadline of the wait for a
// slot, including any backoff wait; it is not passed to the service, so
// cancelling ctx does not interrupt a service that is already running.
func (e *Engine[State]) Handle(ctx context.Context, actxCtx *actx.Context[State], subject any) (any, error) {
	matched, resp, err := dispatch(ctx, actxCtx, subject, e.table, e.service, e.stats)
	if matched {
		return resp, err
	}
	return e.service(actxCtx, subject)
}

// dispatch walks rows in order: the first match wins and remaining
// rows are not evaluated. matched is false when no row matched,
// leaving the caller (the top-level Engine, or an enclosing Tree cell)
// to decide what "no row matched" means at its level.
func dispatch[State any](ctx context.Context, actxCtx *actx.Context[State], subject any, table Table[State], service Service[State], stats Stats) (matched bool, resp any, err error) {
	ext := actxCtx.Extensions()
	for _, row := range table {
		if !m.EvalTop(ext, actxCtx, subject, row.Matcher) {
			continue
		}
		resp, err = admitCell(ctx, actxCtx, subject, row.Cell, service, stats)
		return true, resp, err
	}
	return false, nil, nil
}

func admitCell[State any](ctx context.Context, actxCtx *actx.Context[State], subject any, cell Cell[State], service Service[State], stats Stats) (any, error) {
	switch cell.kind {
	case cellNone:
		return service(actxCtx, subject)
	case cellLeaf:
		return acquireAndRun(ctx, cell.leaf, actxCtx, subject, service, stats)
	case cellTree:
		matched, resp, err := dispatch(ctx, actxCtx, subject, cell.tree.Table, service, stats)
		if matched {
			return resp, err
		}
		if cell.tree.Fallback == nil {
			return service(actxCtx, subject)
		}
		return acquireAndRun(ctx, cell.tree.Fallback, actxCtx, subject, service, stats)
	default:
		return service(actxCtx, subject)
	}
}

// acquireAndRun reserves a slot under p, runs the service while holding
// it, and releases exactly once via defer — covering normal return,
// service-returned error, and panic/unwind alike.
func acquireAndRun[State any](ctx context.Context, p policy.Policy, actxCtx *actx.Context[State], subject any, service Service[State], stats Stats) (any, error) {
	release, err := p.Acquire(ctx)
	if err != nil {
		if errors.Is(err, policy.ErrCancelled) {
			if stats != nil {
				stats.IncCancelled()
			}
			return nil, ErrCancelled
		}
		if stats != nil {
			stats.IncRejected()
		}
		log.Debugf("admission: denied: %v", err)
		return nil, ErrLimitExceeded
	}
	defer release()
	if stats != nil {
		stats.IncAdmitted()
	}
	return service(actxCtx, subject)
}
