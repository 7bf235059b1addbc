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

// Validate walks expr and fails with an *IllegalExpressionError if it finds
// a structural violation of spec §4.A's invariants:
//   - a $begin.-qualified EventField/EventName on the begin side of a
//     period (isBeginSide == true): begin predicates cannot reference the
//     begin context, since it does not exist until the period opens;
//   - an Eq/Ne node whose one side is EventName and whose other side is not
//     a String literal;
//   - a logical node (LogicalAnd/LogicalNot) directly composing a leaf
//     (Number, String, EventField, EventName) instead of a relational or
//     logical node.
//
// It does not type-check relational operand kinds against each other
// (integer vs string, etc.) — that happens at match time per spec §4.C.
func Validate(expr Expression, isBeginSide bool) error {
	return validate(expr, isBeginSide, false)
}

// inLogical is set when the current node is a direct operand of a logical
// node. It is not read: the leaf-under-logical-node invariant is checked by
// the LogicalAnd/LogicalNot cases themselves, via isLeaf on their operands.
func validate(expr Expression, isBeginSide bool, inLogical bool) error {
	switch e := expr.(type) {
	case LogicalAnd:
		if isLeaf(e.LHS) || isLeaf(e.RHS) {
			return &IllegalExpressionError{Reason: "logical node must compose relational nodes, not leaves", Node: e}
		}
		if err := validate(e.LHS, isBeginSide, true); err != nil {
			return err
		}
		return validate(e.RHS, isBeginSide, true)
	case LogicalNot:
		if isLeaf(e.Inner) {
			return &IllegalExpressionError{Reason: "logical node must compose relational nodes, not leaves", Node: e}
		}
		return validate(e.Inner, isBeginSide, true)
	case Relational:
		if err := validateBeginRefs(e.LHS, isBeginSide); err != nil {
			return err
		}
		if err := validateBeginRefs(e.RHS, isBeginSide); err != nil {
			return err
		}
		if e.Op == OpEq {
			if err := validateNameComparand(e.LHS, e.RHS); err != nil {
				return err
			}
			if err := validateNameComparand(e.RHS, e.LHS); err != nil {
				return err
			}
		}
		return nil
	case Number, String, EventField, EventName:
		// A bare leaf at the top of an expression (or as a direct relational
		// operand, handled by the caller) is only illegal when it sits
		// directly under a logical node; that case is caught above.
		return validateBeginRefs(e, isBeginSide)
	default:
		return &IllegalExpressionError{Reason: "unrecognized node type", Node: expr}
	}
}

// validateBeginRefs rejects $begin.-qualified leaves when isBeginSide is
// true, recursing through relational operands.
func validateBeginRefs(expr Expression, isBeginSide bool) error {
	switch e := expr.(type) {
	case EventField:
		if isBeginSide && e.IsBegin {
			return &IllegalExpressionError{Reason: "begin-side expression cannot reference $begin context", Node: e}
		}
	case EventName:
		if isBeginSide && e.IsBegin {
			return &IllegalExpressionError{Reason: "begin-side expression cannot reference $begin context", Node: e}
		}
	case Relational:
		if err := validateBeginRefs(e.LHS, isBeginSide); err != nil {
			return err
		}
		return validateBeginRefs(e.RHS, isBeginSide)
	case LogicalAnd:
		if err := validateBeginRefs(e.LHS, isBeginSide); err != nil {
			return err
		}
		return validateBeginRefs(e.RHS, isBeginSide)
	case LogicalNot:
		return validateBeginRefs(e.Inner, isBeginSide)
	}
	return nil
}

// validateNameComparand enforces that whenever one side of an Eq is an
// EventName, the other side must be a String literal.
func validateNameComparand(side, other Expression) error {
	if _, ok := side.(EventName); !ok {
		return nil
	}
	if _, ok := other.(String); !ok {
		return &IllegalExpressionError{Reason: "$evt.$name may only be compared against a string literal", Node: other}
	}
	return nil
}
