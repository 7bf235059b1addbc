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
	"testing"

	"github.com/google/traceperiods/tracedata"
)

func TestEvalEventName(t *testing.T) {
	ev := tracedata.NewEvent(100, "sched_switch", 0)
	ctx := tracedata.NewMatchContext(ev)
	if !Eval(Eq(EventName{}, String{Value: "sched_switch"}), ctx) {
		t.Errorf("expected name match")
	}
	if Eval(Eq(EventName{}, String{Value: "sched_wakeup"}), ctx) {
		t.Errorf("expected non-match")
	}
	if !Eval(Ne(EventName{}, String{Value: "sched_wakeup"}), ctx) {
		t.Errorf("expected Ne match")
	}
}

func TestEvalMissingFieldIsFalseNotError(t *testing.T) {
	ev := tracedata.NewEvent(100, "sched_switch", 0)
	ctx := tracedata.NewMatchContext(ev)
	expr := Eq(EventField{Name: "next_tid"}, Number{Value: 1})
	if Eval(expr, ctx) {
		t.Errorf("missing field should compare false")
	}
	if !Eval(Not(expr), ctx) {
		t.Errorf("negating a missing-field comparison must yield true (spec §9 design note)")
	}
}

func TestEvalFieldToField(t *testing.T) {
	beginEv := tracedata.NewEvent(10, "sched_switch", 0).WithField(tracedata.Payload, "prev_tid", tracedata.IntValue(5))
	curEv := tracedata.NewEvent(20, "sched_switch", 0).WithField(tracedata.Payload, "next_tid", tracedata.IntValue(5))
	ctx := tracedata.NewMatchContext(curEv).WithBegin(beginEv)

	expr := Eq(EventField{Name: "next_tid"}, EventField{IsBegin: true, Name: "prev_tid"})
	if !Eval(expr, ctx) {
		t.Errorf("expected field-to-field match")
	}
}

func TestEvalIntegerLiteralTruncation(t *testing.T) {
	ev := tracedata.NewEvent(10, "irq", 0).WithField(tracedata.Payload, "irq", tracedata.IntValue(3))
	ctx := tracedata.NewMatchContext(ev)
	// 3.7 truncates to 3, per spec §4.C.
	if !Eval(Eq(EventField{Name: "irq"}, Number{Value: 3.7}), ctx) {
		t.Errorf("expected integer field to match truncated float literal")
	}
	if Eval(Eq(EventField{Name: "irq"}, Number{Value: 4.1}), ctx) {
		t.Errorf("truncated 4.1 should not equal 3")
	}
}

func TestEvalTypeMismatchIsFalse(t *testing.T) {
	ev := tracedata.NewEvent(10, "irq", 0).WithField(tracedata.Payload, "name", tracedata.StringValue("eth0"))
	ctx := tracedata.NewMatchContext(ev)
	if Eval(Eq(EventField{Name: "name"}, Number{Value: 1}), ctx) {
		t.Errorf("string field vs number literal should be false, not a type error")
	}
	if Eval(Lt(EventField{Name: "name"}, String{Value: "a"}), ctx) {
		t.Errorf("ordering relation on strings must yield false")
	}
}

func TestEvalAndShortCircuitsAndBothSidesRequired(t *testing.T) {
	ev := tracedata.NewEvent(10, "irq", 0).WithField(tracedata.Payload, "irq", tracedata.IntValue(7))
	ctx := tracedata.NewMatchContext(ev)
	expr := And(
		Eq(EventField{Name: "irq"}, Number{Value: 7}),
		Eq(EventField{Name: "missing"}, Number{Value: 1}),
	)
	if Eval(expr, ctx) {
		t.Errorf("conjunction with one missing-field side must be false")
	}
}

func TestEvalBeginContextUnavailable(t *testing.T) {
	ev := tracedata.NewEvent(10, "irq", 0)
	ctx := tracedata.NewMatchContext(ev) // no begin snapshot attached
	expr := Eq(EventField{IsBegin: true, Name: "irq"}, Number{Value: 1})
	if Eval(expr, ctx) {
		t.Errorf("referencing an absent begin context must be false, not a panic")
	}
}
