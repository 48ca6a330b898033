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
	"github.com/gaissmai/bart"
)

// IPNetwork matches iff the peer IP is contained in one of the
// configured prefixes. Containment is family-strict: an IPv4 prefix
// never contains an IPv6 peer and vice versa, which falls out of
// bart.Table keeping separate v4/v6 tries rather than anything this
// matcher has to special-case.
type IPNetwork[State any] struct {
	table    *bart.Table[struct{}]
	optional bool
}

// NewIPNetwork builds a strict IP-network matcher over one or more CIDR
// literals. Malformed literals are rejected here, at construction time.
func NewIPNetwork[State any](cidrs ...string) (*IPNetwork[State], error) {
	table := new(bart.Table[struct{}])
	for _, cidr := range cidrs {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("matcher: invalid ip network %q: %w", cidr, err)
		}
		table.Insert(prefix, struct{}{})
	}
	return &IPNetwork[State]{table: table}, nil
}

// OptionalIPNetwork is like NewIPNetwork but matches when the peer IP
// cannot be determined.
func OptionalIPNetwork[State any](cidrs ...string) (*IPNetwork[State], error) {
	m, err := NewIPNetwork[State](cidrs...)
	if err != nil {
		return nil, err
	}
	m.optional = true
	return m, nil
}

// Matches implements Matcher.
func (m *IPNetwork[State]) Matches(_ *actx.Extensions, ctx *actx.Context[State], subject any) bool {
	ap, ok := peerAddr(ctx, subject)
	if !ok {
		return m.optional
	}
	return m.table.Contains(ap.Addr())
}

// Describe implements Describer.
func (m *IPNetwork[State]) Describe() string {
	return fmt.Sprintf("ip_network(%d prefixes, optional=%v)", m.table.Size(), m.optional)
}
