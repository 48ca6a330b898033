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

// Port matches iff the peer port equals the configured port. The peer
// IP, if any, is ignored.
type Port[State any] struct {
	port     uint16
	optional bool
}

// NewPort builds a strict port matcher.
func NewPort[State any](port uint16) *Port[State] {
	return &Port[State]{port: port}
}

// OptionalPort is like NewPort but matches when the peer endpoint cannot
// be determined.
func OptionalPort[State any](port uint16) *Port[State] {
	return &Port[State]{port: port, optional: true}
}

// Matches implements Matcher.
func (m *Port[State]) Matches(_ *actx.Extensions, ctx *actx.Context[State], subject any) bool {
	ap, ok := peerAddr(ctx, subject)
	if !ok {
		return m.optional
	}
	return ap.Port() == m.port
}

// Describe implements Describer.
func (m *Port[State]) Describe() string {
	return fmt.Sprintf("port(%d, optional=%v)", m.port, m.optional)
}
