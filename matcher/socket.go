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
	"net/netip"

	"github.com/matchgate/admission/actx"
)

// SocketAddr matches iff the peer endpoint equals a configured
// (ip, port) pair exactly.
type SocketAddr[State any] struct {
	target   netip.AddrPort
	optional bool
}

// NewSocketAddr builds a strict socket-address matcher. It fails fast on
// a malformed address string so construction errors never surface at
// match time.
func NewSocketAddr[State any](addr string) (*SocketAddr[State], error) {
	ap, err := netip.ParseAddrPort(addr)
	if err != nil {
		return nil, fmt.Errorf("matcher: invalid socket address %q: %w", addr, err)
	}
	return &SocketAddr[State]{target: ap}, nil
}

// OptionalSocketAddr is like NewSocketAddr but matches when the peer
// endpoint cannot be determined.
func OptionalSocketAddr[State any](addr string) (*SocketAddr[State], error) {
	m, err := NewSocketAddr[State](addr)
	if err != nil {
		return nil, err
	}
	m.optional = true
	return m, nil
}

// Matches implements Matcher.
func (m *SocketAddr[State]) Matches(_ *actx.Extensions, ctx *actx.Context[State], subject any) bool {
	ap, ok := peerAddr(ctx, subject)
	if !ok {
		return m.optional
	}
	return ap == m.target
}

// Describe implements Describer.
func (m *SocketAddr[State]) Describe() string {
	return fmt.Sprintf("socket(%s, optional=%v)", m.target, m.optional)
}
