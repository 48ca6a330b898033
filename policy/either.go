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

package policy

import "context"

// Either2 holds exactly one of two Policy-shaped arms, chosen at
// construction with EitherA/EitherB. It lets a single admission-table
// cell type-check against heterogeneous Policy implementations (a
// nested subtable is not a Policy and is not one of them) without
// routing every row through a common interface value.
type Either2[A, B Policy] struct {
	tag byte
	a   A
	b   B
}

// EitherA wraps arm a as the active arm of an Either2.
func EitherA[A, B Policy](a A) Either2[A, B] {
	return Either2[A, B]{tag: 0, a: a}
}

// EitherB wraps arm b as the active arm of an Either2.
func EitherB[A, B Policy](b B) Either2[A, B] {
	return Either2[A, B]{tag: 1, b: b}
}

// Acquire implements Policy by delegating to whichever arm is active.
func (e Either2[A, B]) Acquire(ctx context.Context) (Release, error) {
	if e.tag == 0 {
		return e.a.Acquire(ctx)
	}
	return e.b.Acquire(ctx)
}

// Either3 is Either2 with a third arm, for tables whose cells need one
// of three heterogeneous policy shapes.
type Either3[A, B, C Policy] struct {
	tag byte
	a   A
	b   B
	c   C
}

// Either3A wraps arm a as the active arm of an Either3.
func Either3A[A, B, C Policy](a A) Either3[A, B, C] {
	return Either3[A, B, C]{tag: 0, a: a}
}

// Either3B wraps arm b as the active arm of an Either3.
func Either3B[A, B, C Policy](b B) Either3[A, B, C] {
	return Either3[A, B, C]{tag: 1, b: b}
}

// Either3C wraps arm c as the active arm of an Either3.
func Either3C[A, B, C Policy](c C) Either3[A, B, C] {
	return Either3[A, B, C]{tag: 2, c: c}
}

// Acquire implements Policy by delegating to whichever arm is active.
func (e Either3[A, B, C]) Acquire(ctx context.Context) (Release, error) {
	switch e.tag {
	case 0:
		return e.a.Acquire(ctx)
	case 1:
		return e.b.Acquire(ctx)
	default:
		return e.c.Acquire(ctx)
	}
}
