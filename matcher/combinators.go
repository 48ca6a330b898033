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
	"strings"

	"github.com/matchgate/admission/actx"
)

type allMatcher[State any] struct {
	members []Matcher[State]
}

// All returns a matcher that matches iff every one of ms matches,
// short-circuiting on the first false. Matches of later members are not
// evaluated once one fails.
func All[State any](ms ...Matcher[State]) Matcher[State] {
	return &allMatcher[State]{members: append([]Matcher[State]{}, ms...)}
}

func (a *allMatcher[State]) Matches(ext *actx.Extensions, ctx *actx.Context[State], subject any) bool {
	shadow := actx.NewExtensions()
	for _, m := range a.members {
		if !EvalTop(shadow, ctx, subject, m) {
			return false
		}
	}
	ext.Merge(shadow)
	return true
}

func (a *allMatcher[State]) Describe() string {
	return "all(" + describeJoin(a.members) + ")"
}

type anyMatcher[State any] struct {
	members []Matcher[State]
}

// Any returns a matcher that matches iff at least one of ms matches,
// short-circuiting on the first true. Only the winning member's
// captures are committed.
func Any[State any](ms ...Matcher[State]) Matcher[State] {
	return &anyMatcher[State]{members: append([]Matcher[State]{}, ms...)}
}

func (a *anyMatcher[State]) Matches(ext *actx.Extensions, ctx *actx.Context[State], subject any) bool {
	for _, m := range a.members {
		shadow := actx.NewExtensions()
		if EvalTop(shadow, ctx, subject, m) {
			ext.Merge(shadow)
			return true
		}
	}
	return false
}

func (a *anyMatcher[State]) Describe() string {
	return "any(" + describeJoin(a.members) + ")"
}

type negateMatcher[State any] struct {
	inner Matcher[State]
}

// Negate inverts the result of m. Because negate flips the truth value,
// a match of m that causes Negate to report false never has its
// captures committed, and the empty shadow it leaves behind when m
// fails is harmless to merge.
func Negate[State any](m Matcher[State]) Matcher[State] {
	return &negateMatcher[State]{inner: m}
}

func (n *negateMatcher[State]) Matches(ext *actx.Extensions, ctx *actx.Context[State], subject any) bool {
	shadow := actx.NewExtensions()
	matched := EvalTop(shadow, ctx, subject, n.inner)
	if matched {
		return false
	}
	ext.Merge(shadow)
	return true
}

func (n *negateMatcher[State]) Describe() string {
	return "negate(" + Describe(n.inner) + ")"
}

// Describer is implemented by matchers that can render themselves for
// diagnostics. It is optional: matchers built from Func describe as
// "matcher".
type Describer interface {
	Describe() string
}

// Describe renders m for operator-facing diagnostics, e.g. printing the
// table an admission engine was built with.
func Describe[State any](m Matcher[State]) string {
	if d, ok := m.(Describer); ok {
		return d.Describe()
	}
	return "matcher"
}

func describeJoin[State any](ms []Matcher[State]) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = Describe(m)
	}
	return strings.Join(parts, ", ")
}
