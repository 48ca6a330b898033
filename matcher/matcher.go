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

// Package matcher implements the predicate dispatch used by the
// admission engine: peer-address matchers (socket/ip-net/port/loopback),
// request matchers (path/method) and the all/any/negate combinators that
// compose them into a tree.
//
// A Matcher never mutates the subject. It may record sub-matches (e.g. a
// captured path suffix) into the *actx.Extensions handle it is given, but
// only EvalTop is allowed to commit those writes into a caller's real
// scratch bag: a matcher that ultimately fails to match must leave the
// caller's context unchanged.
package matcher

import "github.com/matchgate/admission/actx"

// Matcher is a predicate over (extensions, context, subject). Subject is
// deliberately untyped: it is either a parsed request or a raw stream,
// and individual matchers type-assert the capability they need (e.g.
// PathSubject, PeerAddressable) rather than constraining the type
// parameter, since no single interface is implemented by both request
// and stream subjects.
type Matcher[State any] interface {
	Matches(ext *actx.Extensions, ctx *actx.Context[State], subject any) bool
}

// Func adapts a plain function to the Matcher interface.
type Func[State any] func(ext *actx.Extensions, ctx *actx.Context[State], subject any) bool

// Matches implements Matcher.
func (f Func[State]) Matches(ext *actx.Extensions, ctx *actx.Context[State], subject any) bool {
	return f(ext, ctx, subject)
}

// EvalTop evaluates m against subject using a private shadow scratch
// layer, and merges that shadow into parent only if m matched. This is
// the two-phase commit discipline described in the package doc, used
// both by the combinators below and by the admission engine when it
// evaluates a table row's matcher.
func EvalTop[State any](parent *actx.Extensions, ctx *actx.Context[State], subject any, m Matcher[State]) bool {
	if m == nil {
		return false
	}
	shadow := actx.NewExtensions()
	ok := m.Matches(shadow, ctx, subject)
	if ok {
		parent.Merge(shadow)
	}
	return ok
}
