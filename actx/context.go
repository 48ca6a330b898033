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

package actx

import "github.com/google/uuid"

// Context is the per-call companion object threaded through a matcher
// table and into the guarded service. It owns one immutable State value
// plus a mutable typed extension bag. A Context is built once per
// inbound request or stream and is never shared across calls.
type Context[State any] struct {
	id    uuid.UUID
	state State
	ext   *Extensions
}

// New builds a fresh per-call Context around the given state.
func New[State any](state State) *Context[State] {
	return &Context[State]{
		id:    uuid.New(),
		state: state,
		ext:   NewExtensions(),
	}
}

// ID is a correlation identifier, stable for the lifetime of the call,
// suitable for structured log lines.
func (c *Context[State]) ID() uuid.UUID {
	return c.id
}

// State returns the user-supplied state. The core never inspects it.
func (c *Context[State]) State() State {
	return c.state
}

// Extensions returns the call's extension bag. Matchers and services
// may read and write it; only a matcher's own top-level invocation (see
// package matcher's EvalTop) is allowed to commit writes made by nested
// matchers.
func (c *Context[State]) Extensions() *Extensions {
	return c.ext
}
