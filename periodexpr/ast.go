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
// Package periodexpr implements the period mini-language: a typed
// expression AST, a validator, a recursive-descent parser, and a matcher
// that evaluates a validated expression against one or two event contexts.
package periodexpr

import "github.com/google/traceperiods/tracedata"

// Expression is the closed sum type of period predicate nodes. Concrete
// types are the structs below; callers exhaustively type-switch
// on Expression the way a tagged-variant dispatch would.
type Expression interface {
	// isExpression is unexported so Expression cannot be implemented
	// outside this package, keeping the sum type closed.
	isExpression()
	String() string
}

// LogicalAnd is a short-circuiting conjunction of two expressions.
type LogicalAnd struct {
	LHS, RHS Expression
}

func (LogicalAnd) isExpression() {}

// LogicalNot inverts its operand.
type LogicalNot struct {
	Inner Expression
}

func (LogicalNot) isExpression() {}

// RelOp names a relational comparison operator.
type RelOp int

// The relational operators other than `!=`, which has no RelOp of its own;
// the parser represents `!=` as LogicalNot{Eq{...}} per spec §3.
const (
	OpEq RelOp = iota
	OpLt
	OpLtEq
	OpGt
	OpGtEq
)

func (op RelOp) String() string {
	switch op {
	case OpEq:
		return "=="
	case OpLt:
		return "<"
	case OpLtEq:
		return "<="
	case OpGt:
		return ">"
	case OpGtEq:
		return ">="
	default:
		return "?"
	}
}

// Relational is a binary comparison node. Only relational nodes may hold
// leaf operands (Number, String, EventField, EventName); logical nodes
// compose relational nodes, never leaves directly.
type Relational struct {
	Op       RelOp
	LHS, RHS Expression
}

func (Relational) isExpression() {}

// Number is a floating-point literal leaf.
type Number struct {
	Value float64
}

func (Number) isExpression() {}

func (n Number) String() string { return formatNumber(n.Value) }

// String is a double-quoted string literal leaf.
type String struct {
	Value string
}

func (String) isExpression() {}

func (s String) String() string { return `"` + escapeString(s.Value) + `"` }

// EventField references a single scoped field of an event. IsBegin selects
// the period's begin-snapshot event instead of the current event; it is
// illegal inside a period's begin expression (validator-enforced).
type EventField struct {
	IsBegin bool
	Scope   tracedata.Scope
	Name    string
}

func (EventField) isExpression() {}

// EventName references an event's Name field for `$evt.$name` comparisons.
type EventName struct {
	IsBegin bool
}

func (EventName) isExpression() {}

// Eq builds an equality relational node.
func Eq(lhs, rhs Expression) Expression { return Relational{Op: OpEq, LHS: lhs, RHS: rhs} }

// Ne builds `!=` as LogicalNot{Eq{...}}, per spec §3.
func Ne(lhs, rhs Expression) Expression { return LogicalNot{Inner: Eq(lhs, rhs)} }

// Lt, LtEq, Gt, GtEq build the ordering relational nodes.
func Lt(lhs, rhs Expression) Expression   { return Relational{Op: OpLt, LHS: lhs, RHS: rhs} }
func LtEq(lhs, rhs Expression) Expression { return Relational{Op: OpLtEq, LHS: lhs, RHS: rhs} }
func Gt(lhs, rhs Expression) Expression   { return Relational{Op: OpGt, LHS: lhs, RHS: rhs} }
func GtEq(lhs, rhs Expression) Expression { return Relational{Op: OpGtEq, LHS: lhs, RHS: rhs} }

// And builds a LogicalAnd conjunction.
func And(lhs, rhs Expression) Expression { return LogicalAnd{LHS: lhs, RHS: rhs} }

// Not builds a LogicalNot negation.
func Not(inner Expression) Expression { return LogicalNot{Inner: inner} }

func isLeaf(e Expression) bool {
	switch e.(type) {
	case Number, String, EventField, EventName:
		return true
	default:
		return false
	}
}
