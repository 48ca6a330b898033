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

package matcher_test

import (
	"net"

	"github.com/matchgate/admission/actx"
)

// fakeRequest is a minimal request-shaped subject for tests: it
// implements PathSubject and MethodSubject directly, mirroring how an
// HTTP adapter in examples/httpserver would.
type fakeRequest struct {
	path   string
	method string
}

func (r fakeRequest) RequestPath() string   { return r.path }
func (r fakeRequest) RequestMethod() string { return r.method }

// fakeStream is a minimal stream-shaped subject: it implements
// PeerAddressable directly instead of relying on the context's
// SocketInfo extension.
type fakeStream struct {
	peer net.Addr
	ok   bool
}

func (s fakeStream) PeerAddr() (net.Addr, bool) { return s.peer, s.ok }

func tcpAddr(ip string, port int) *net.TCPAddr {
	return &net.TCPAddr{IP: net.ParseIP(ip), Port: port}
}

func ctxWithPeer(peer net.Addr) *actx.Context[struct{}] {
	c := actx.New(struct{}{})
	actx.Set(c.Extensions(), actx.SocketInfo{Peer: peer})
	return c
}

func emptyCtx() *actx.Context[struct{}] {
	return actx.New(struct{}{})
}
