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

package admission

import (
	"fmt"
	"strings"

	m "github.com/matchgate/admission/matcher"
)

// Explain renders table for operators, one line per row, indenting
// nested Tree cells. It never touches a live call: it only walks the
// static table an Engine was built with.
func Explain[State any](table Table[State]) string {
	var b strings.Builder
	explain(&b, table, 0)
	return b.String()
}

func explain[State any](b *strings.Builder, table Table[State], depth int) {
	indent := strings.Repeat("  ", depth)
	for i, row := range table {
		fmt.Fprintf(b, "%s[%d] %s -> ", indent, i, m.Describe(row.Matcher))
		switch row.Cell.kind {
		case cellNone:
			b.WriteString("admit (no policy)\n")
		case cellLeaf:
			b.WriteString("leaf policy\n")
		case cellTree:
			fmt.Fprintf(b, "tree (fallback set=%v)\n", row.Cell.tree.Fallback != nil)
			explain(b, row.Cell.tree.Table, depth+1)
		}
	}
}
