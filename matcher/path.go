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

// PathSubject is implemented by request subjects that can report the
// path being routed. Stream subjects don't implement it, so Path never
// matches a raw stream.
type PathSubject interface {
	RequestPath() string
}

// PathCapture is recorded into the extension bag when a glob path
// matcher matches, holding the suffix consumed by the trailing "*".
type PathCapture struct {
	Pattern string
	Suffix  string
}

// Path matches a request path against a glob pattern. Two forms are
// supported: "/exact", matching that path only, and "/prefix/*",
// matching "/prefix" itself never (the trailing slash is part of the
// match) and any "/prefix/<suffix>", including an empty suffix.
type Path[State any] struct {
	pattern string
	prefix  string
	isGlob  bool
}

// NewPath parses pattern and builds a matcher for it, rejecting any
// other glob shape at construction time.
func NewPath[State any](pattern string) (*Path[State], error) {
	if !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("matcher: path pattern %q must start with /", pattern)
	}
	if strings.HasSuffix(pattern, "/*") {
		return &Path[State]{
			pattern: pattern,
			prefix:  pattern[:len(pattern)-1], // keep the trailing slash
			isGlob:  true,
		}, nil
	}
	if strings.Contains(pattern, "*") {
		return nil, fmt.Errorf("matcher: path pattern %q: only a trailing /* glob is supported", pattern)
	}
	return &Path[State]{pattern: pattern}, nil
}

// Matches implements Matcher.
func (m *Path[State]) Matches(ext *actx.Extensions, _ *actx.Context[State], subject any) bool {
	ps, ok := subject.(PathSubject)
	if !ok {
		return false
	}
	path := ps.RequestPath()
	if !m.isGlob {
		return path == m.pattern
	}
	if !strings.HasPrefix(path, m.prefix) {
		return false
	}
	actx.Set(ext, PathCapture{Pattern: m.pattern, Suffix: strings.TrimPrefix(path, m.prefix)})
	return true
}

// Describe implements Describer.
func (m *Path[State]) Describe() string {
	return fmt.Sprintf("path(%q)", m.pattern)
}
