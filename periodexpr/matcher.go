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

import "github.com/google/traceperiods/tracedata"

// Eval evaluates a validated Expression against ctx. A missing field, a
// missing begin context, or a type mismatch between operands all degrade to
// false rather than propagating an error — spec §7 treats these as
// MissingField/TypeMismatch, both non-fatal to the match.
func Eval(expr Expression, ctx tracedata.MatchContext) bool {
	switch e := expr.(type) {
	case LogicalAnd:
		return Eval(e.LHS, ctx) && Eval(e.RHS, ctx)
	case LogicalNot:
		return !Eval(e.Inner, ctx)
	case Relational:
		return evalRelational(e, ctx)
	default:
		// A bare leaf at top level (no relational wrapper) has no truth
		// value; treat as non-match rather than panicking.
		return false
	}
}

func evalRelational(rel Relational, ctx tracedata.MatchContext) bool {
	// $evt.$name comparisons are resolved specially: string equality
	// against the event's Name, not a generic value resolution.
	if nameRef, ok := rel.LHS.(EventName); ok {
		return evalNameComparison(nameRef, rel.RHS, rel.Op, ctx)
	}
	if nameRef, ok := rel.RHS.(EventName); ok {
		return evalNameComparison(nameRef, rel.LHS, rel.Op, ctx)
	}

	lv, lok := resolveOperand(rel.LHS, ctx)
	rv, rok := resolveOperand(rel.RHS, ctx)
	if !lok || !rok {
		return false
	}
	return compare(rel.Op, lv, rv)
}

func evalNameComparison(nameRef EventName, other Expression, op RelOp, ctx tracedata.MatchContext) bool {
	if op != OpEq {
		// Ordering relations are never produced against EventName by the
		// validator/parser; defensively treat as non-match.
		return false
	}
	lit, ok := other.(String)
	if !ok {
		return false
	}
	ev, ok := ctx.EventFor(nameRef.IsBegin)
	if !ok {
		return false
	}
	return ev.Name == lit.Value
}

// resolvedValue is an internal comparison operand, mirroring
// tracedata.FieldValue's kind split plus the AST's untyped Number literal
// (which resolveOperand treats as a non-integer numeric until it is forced
// to integer by comparison against an integer-kind field, per spec §4.C).
type resolvedValue struct {
	isString  bool
	str       string
	isInteger bool
	i         int64
	f         float64
}

func resolveOperand(expr Expression, ctx tracedata.MatchContext) (resolvedValue, bool) {
	switch e := expr.(type) {
	case Number:
		return resolvedValue{f: e.Value}, true
	case String:
		return resolvedValue{isString: true, str: e.Value}, true
	case EventField:
		ev, ok := ctx.EventFor(e.IsBegin)
		if !ok {
			return resolvedValue{}, false
		}
		fv, ok := ev.Field(e.Scope, e.Name)
		if !ok {
			return resolvedValue{}, false
		}
		switch fv.Kind {
		case tracedata.KindString:
			return resolvedValue{isString: true, str: fv.Str}, true
		case tracedata.KindInteger:
			return resolvedValue{isInteger: true, i: fv.Int, f: float64(fv.Int)}, true
		default:
			return resolvedValue{f: fv.Flt}, true
		}
	default:
		return resolvedValue{}, false
	}
}

// compare applies op to two resolved operands per spec §4.C: identical
// kinds compare directly; when exactly one side is integer-kind, the other
// numeric side (a literal or a float field) is truncated to an integer
// before comparing; a string paired with a non-string, or an ordering
// relation applied to strings, yields false.
func compare(op RelOp, lhs, rhs resolvedValue) bool {
	if lhs.isString != rhs.isString {
		return false
	}
	if lhs.isString {
		if op != OpEq {
			return false
		}
		return lhs.str == rhs.str
	}

	if lhs.isInteger && rhs.isInteger {
		return compareInt64(op, lhs.i, rhs.i)
	}
	if lhs.isInteger != rhs.isInteger {
		// Exactly one side is integer-kind: truncate the other toward zero.
		if lhs.isInteger {
			return compareInt64(op, lhs.i, int64(rhs.f))
		}
		return compareInt64(op, int64(lhs.f), rhs.i)
	}
	return compareFloat64(op, lhs.f, rhs.f)
}

func compareInt64(op RelOp, l, r int64) bool {
	switch op {
	case OpEq:
		return l == r
	case OpLt:
		return l < r
	case OpLtEq:
		return l <= r
	case OpGt:
		return l > r
	case OpGtEq:
		return l >= r
	default:
		return false
	}
}

func compareFloat64(op RelOp, l, r float64) bool {
	switch op {
	case OpEq:
		return l == r
	case OpLt:
		return l < r
	case OpLtEq:
		return l <= r
	case OpGt:
		return l > r
	case OpGtEq:
		return l >= r
	default:
		return false
	}
}
