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
	"net"
	"net/netip"

	"github.com/matchgate/admission/actx"
)

// PeerAddressable is the capability a raw stream subject exposes to let
// peer-address matchers find the remote endpoint directly, without
// going through the context's SocketInfo extension.
type PeerAddressable interface {
	PeerAddr() (net.Addr, bool)
}

// peerAddr resolves the peer endpoint of the current call. It prefers
// the context's SocketInfo extension (the shape a parsed request
// carries it in) and falls back to the subject's own PeerAddr method
// (the shape a raw stream carries it in). The second return value is
// false when neither source could produce an endpoint, e.g. a missing
// extension or a socket error.
func peerAddr[State any](ctx *actx.Context[State], subject any) (netip.AddrPort, bool) {
	if ctx != nil {
		if info, ok := actx.Get[actx.SocketInfo](ctx.Extensions()); ok && info.Peer != nil {
			if ap, ok := addrPortFromNetAddr(info.Peer); ok {
				return ap, true
			}
		}
	}
	if pa, ok := subject.(PeerAddressable); ok {
		if addr, ok := pa.PeerAddr(); ok && addr != nil {
			if ap, ok := addrPortFromNetAddr(addr); ok {
				return ap, true
			}
		}
	}
	return netip.AddrPort{}, false
}

func addrPortFromNetAddr(addr net.Addr) (netip.AddrPort, bool) {
	switch a := addr.(type) {
	case *net.TCPAddr:
		ip, ok := netip.AddrFromSlice(a.IP)
		if !ok {
			return netip.AddrPort{}, false
		}
		return netip.AddrPortFrom(ip.Unmap(), uint16(a.Port)), true
	case *net.UDPAddr:
		ip, ok := netip.AddrFromSlice(a.IP)
		if !ok {
			return netip.AddrPort{}, false
		}
		return netip.AddrPortFrom(ip.Unmap(), uint16(a.Port)), true
	default:
		host, port, err := net.SplitHostPort(addr.String())
		if err != nil {
			return netip.AddrPort{}, false
		}
		ip, err := netip.ParseAddr(host)
		if err != nil {
			return netip.AddrPort{}, false
		}
		var p uint64
		for _, c := range port {
			if c < '0' || c > '9' {
				return netip.AddrPort{}, false
			}
			p = p*10 + uint64(c-'0')
		}
		return netip.AddrPortFrom(ip.Unmap(), uint16(p)), true
	}
}
