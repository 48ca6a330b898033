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

// Package admission implements the matcher-indexed concurrency
// admission engine: the middleware that walks an ordered table of
// (matcher, policy) rows, selects at most one policy for the call,
// acquires and releases a concurrency slot around the guarded service,
// and never invokes more than one policy per call.
package admission

import (
	m "github.com/matchgate/admission/matcher"
	"github.com/matchgate/admission/policy"
)

// matcher is a local alias for matcher.Matcher, kept unexported so Row's
// field type reads naturally without repeating the package name.
type matcher[State any] = m.Matcher[State]

type cellKind byte

const (
	cellNone cellKind = iota
	cellLeaf
	cellTree
)

// Cell is an admission-table cell. None admits unconditionally, Leaf
// consults a single policy, and Tree recurses into a nested Table with
// its own fallback.
type Cell[State any] struct {
	kind cellKind
	leaf policy.Policy
	tree *Tree[State]
}

// None builds a cell that admits every call that reaches it
// unconditionally, without consulting any policy.
func None[State any]() Cell[State] {
	return Cell[State]{kind: cellNone}
}

// Leaf builds a cell that consults p for every call that reaches it.
func Leaf[State any](p policy.Policy) Cell[State] {
	return Cell[State]{kind: cellLeaf, leaf: p}
}

// Sub builds a cell that recurses into a nested table. fallback is
// consulted when no row of sub matches; a nil fallback admits
// unconditionally in that case, matching the semantics of None.
func Sub[State any](sub Table[State], fallback policy.Policy) Cell[State] {
	return Cell[State]{kind: cellTree, tree: &Tree[State]{Table: sub, Fallback: fallback}}
}

// Tree pairs a nested table with the policy to fall back on when none
// of its rows match.
type Tree[State any] struct {
	Table    Table[State]
	Fallback policy.Policy
}

// Row is one entry of an admission Table: a matcher and the cell to
// consult when it is the first row to match.
type Row[State any] struct {
	Matcher matcher[State]
	Cell    Cell[State]
}

// Table is an ordered sequence of rows, walked in declaration order.
// The first matching row wins; later rows are not evaluated.
type Table[State any] []Row[State]
