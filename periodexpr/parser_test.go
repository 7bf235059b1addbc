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

	"github.com/google/go-cmp/cmp"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/google/traceperiods/tracedata"
)

func TestParseNameCmp(t *testing.T) {
	pp, err := Parse(`sys:$evt.$name == "sched_switch"`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !pp.HasName || pp.Name != "sys" {
		t.Errorf("expected name %q, got %q (has=%v)", "sys", pp.Name, pp.HasName)
	}
	want := Eq(EventName{}, String{Value: "sched_switch"})
	if diff := cmp.Diff(want, pp.Begin); diff != "" {
		t.Errorf("Begin mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(pp.Begin, pp.End); diff != "" {
		t.Errorf("expected End == Begin when no second conj given:\n%s", diff)
	}
}

func TestParseFieldCmpField(t *testing.T) {
	pp, err := Parse(`sys:$evt.$name == "sched_switch" : $evt.$name == "sched_switch" && $evt.next_tid == $begin.$evt.prev_tid`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := And(
		Eq(EventName{}, String{Value: "sched_switch"}),
		Eq(EventField{Name: "next_tid"}, EventField{IsBegin: true, Name: "prev_tid"}),
	)
	if diff := cmp.Diff(want, pp.End); diff != "" {
		t.Errorf("End mismatch (-want +got):\n%s", diff)
	}
}

func TestParseNumberCmp(t *testing.T) {
	pp, err := Parse(`:$evt.$payload.irq == 42`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Eq(EventField{Scope: tracedata.Payload, Name: "irq"}, Number{Value: 42})
	if diff := cmp.Diff(want, pp.Begin); diff != "" {
		t.Errorf("Begin mismatch (-want +got):\n%s", diff)
	}
}

func TestParseNotEquals(t *testing.T) {
	pp, err := Parse(`:$evt.irq != 7`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Ne(EventField{Name: "irq"}, Number{Value: 7})
	if diff := cmp.Diff(want, pp.Begin); diff != "" {
		t.Errorf("Begin mismatch (-want +got):\n%s", diff)
	}
}

func TestParseOrdering(t *testing.T) {
	cases := []struct {
		input string
		op    RelOp
	}{
		{`:$evt.x < 1`, OpLt},
		{`:$evt.x <= 1`, OpLtEq},
		{`:$evt.x > 1`, OpGt},
		{`:$evt.x >= 1`, OpGtEq},
	}
	for _, c := range cases {
		pp, err := Parse(c.input)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.input, err)
		}
		rel, ok := pp.Begin.(Relational)
		if !ok || rel.Op != c.op {
			t.Errorf("Parse(%q) = %#v, want op %v", c.input, pp.Begin, c.op)
		}
	}
}

func TestParseMalformed(t *testing.T) {
	inputs := []string{
		``,
		`:`,
		`:$evt.x ==`,
		`:$evt.x == "unterminated`,
		`:$evt.$name < "x"`,
		`:$evt.$name == 5`,
		`name:$evt.x == 1 extra-garbage`,
		`:$begin.$evt.x == 1 &&`,
	}
	for _, in := range inputs {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) = nil error, want MalformedExpressionError", in)
		} else if status.Code(err) != codes.InvalidArgument {
			t.Errorf("Parse(%q) error code = %v, want InvalidArgument", in, status.Code(err))
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	inputs := []string{
		`sys:$evt.$name == "sched_switch"`,
		`:$evt.irq == 42 && $evt.$payload.name != "eth0"`,
		`:$evt.x < 3.5`,
	}
	for _, in := range inputs {
		pp, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		printed := pp.Begin.String()
		pp2, err := Parse(":" + printed)
		if err != nil {
			t.Fatalf("Parse(round-tripped %q): %v", printed, err)
		}
		if diff := cmp.Diff(pp.Begin, pp2.Begin); diff != "" {
			t.Errorf("round trip mismatch for %q (-orig +reparsed):\n%s", in, diff)
		}
	}
}
