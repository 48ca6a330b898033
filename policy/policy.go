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

// Package policy implements the concurrent-slot admission primitive
// (ConcurrentPolicy), its optional capped-exponential backoff, and the
// Either-N combinator that lets a single admission-table cell carry one
// of several concrete policy shapes without boxing every row behind an
// interface.
package policy

import (
	"context"
	"errors"
)

// ErrLimitExceeded is returned by Acquire when a slot could not be
// reserved: either try_acquire failed and there is no backoff, or the
// per-call deadline carried by ctx expired before a slot freed up.
var ErrLimitExceeded = errors.New("policy: concurrency limit exceeded")

// ErrCancelled is returned by Acquire when ctx was cancelled while
// waiting for a slot.
var ErrCancelled = errors.New("policy: acquire cancelled")

// Release drops the permit acquired by a successful Acquire, returning
// its slot to the policy. It is safe to defer immediately after a
// successful Acquire: it runs exactly once regardless of whether the
// guarded call returns normally, returns an error, or panics.
type Release func()

// Policy is satisfied by anything that can admit a bounded number of
// concurrent callers. ConcurrentPolicy is the only leaf implementation;
// Either2/Either3 let a table cell hold one of several Policy values
// without an interface indirection at the call site. admission.Tree does
// not implement Policy: nested subtables are carried by admission's own
// Tree cell kind, so an Either arm cannot hold one.
type Policy interface {
	Acquire(ctx context.Context) (Release, error)
}
