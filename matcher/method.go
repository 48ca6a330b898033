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
	"strings"

	"github.com/matchgate/admission/actx"
)

// MethodSubject is implemented by request subjects that can report
// their HTTP verb.
type MethodSubject interface {
	RequestMethod() string
}

// Method matches the request's HTTP verb, case-insensitively.
type Method[State any] struct {
	verb string
}

// NewMethod builds a matcher for the given HTTP verb.
func NewMethod[State any](verb string) *Method[State] {
	return &Method[State]{verb: verb}
}

// Matches implements Matcher.
func (m *Method[State]) Matches(_ *actx.Extensions, _ *actx.Context[State], subject any) bool {
	ms, ok := subject.(MethodSubject)
	if !ok {
		return false
	}
	return strings.EqualFold(ms.RequestMethod(), m.verb)
}

// Describe implements Describer.
func (m *Method[State]) Describe() string {
	return fmt.Sprintf("method(%s)", strings.ToUpper(m.verb))
}
