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

package matcher

import (
	"fmt"

	"github.com/matchgate/admission/actx"
)

// Loopback matches iff the peer IP is in the standard loopback range
// for its family (127.0.0.0/8 or ::1).
type Loopback[State any] struct {
	optional bool
}

// NewLoopback builds a strict loopback matcher.
func NewLoopback[State any]() *Loopback[State] {
	return &Loopback[State]{}
}

// OptionalLoopback is like NewLoopback but matches when the peer
// endpoint cannot be determined.
func OptionalLoopback[State any]() *Loopback[State] {
	return &Loopback[State]{optional: true}
}

// Matches implements Matcher.
func (m *Loopback[State]) Matches(_ *actx.Extensions, ctx *actx.Context[State], subject any) bool {
	ap, ok := peerAddr(ctx, subject)
	if !ok {
		return m.optional
	}
	return ap.Addr().IsLoopback()
}

// Describe implements Describer.
func (m *Loopback[State]) Describe() string {
	return fmt.Sprintf("loopback(optional=%v)", m.optional)
}
