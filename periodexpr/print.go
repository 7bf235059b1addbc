//
// Copyright 2019 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS-IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
//
package periodexpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/traceperiods/tracedata"
)

// String renders the canonical textual form of a LogicalAnd, satisfying the
// Parse(String(expr)) == expr round-trip property.
func (e LogicalAnd) String() string {
	return fmt.Sprintf("%s && %s", e.LHS, e.RHS)
}

// String renders a LogicalNot. `!=` expressions print back as `!=` rather
// than `!(... == ...)`, since that is the only surface form the grammar
// accepts for negated equality.
func (e LogicalNot) String() string {
	if rel, ok := e.Inner.(Relational); ok && rel.Op == OpEq {
		return fmt.Sprintf("%s != %s", rel.LHS, rel.RHS)
	}
	return fmt.Sprintf("!(%s)", e.Inner)
}

func (e Relational) String() string {
	return fmt.Sprintf("%s %s %s", e.LHS, e.Op, e.RHS)
}

func (f EventField) String() string {
	prefix := "$evt."
	if f.IsBegin {
		prefix = "$begin.$evt."
	}
	if f.Scope == tracedata.AUTO {
		return prefix + f.Name
	}
	return prefix + f.Scope.String() + "." + f.Name
}

func (n EventName) String() string {
	if n.IsBegin {
		return "$begin.$evt.$name"
	}
	return "$evt.$name"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func escapeString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
