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
package tracedata

import (
	"testing"
)

func TestFieldAutoLookup(t *testing.T) {
	ev := NewEvent(1000, "irq_handler_entry", 0).
		WithField(PacketHeader, "irq", IntValue(7)).
		WithField(Payload, "irq", IntValue(42))

	v, ok := ev.Field(AUTO, "irq")
	if !ok {
		t.Fatalf("expected irq field to resolve")
	}
	if v.Int != 42 {
		t.Errorf("AUTO lookup should prefer payload scope, got %d", v.Int)
	}

	v, ok = ev.Field(PacketHeader, "irq")
	if !ok || v.Int != 7 {
		t.Errorf("explicit scope lookup should bypass AUTO order, got %v, ok=%v", v, ok)
	}
}

func TestFieldMissing(t *testing.T) {
	ev := NewEvent(1000, "sched_switch", 2)
	if _, ok := ev.Field(AUTO, "next_pid"); ok {
		t.Errorf("expected missing field to report ok=false")
	}
}

func TestFieldValueAsFloat(t *testing.T) {
	cases := []struct {
		name    string
		v       FieldValue
		want    float64
		wantOK  bool
	}{
		{"integer", IntValue(5), 5, true},
		{"float", FloatValue(2.5), 2.5, true},
		{"string", StringValue("x"), 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := c.v.AsFloat()
			if ok != c.wantOK || (ok && got != c.want) {
				t.Errorf("AsFloat() = (%v, %v), want (%v, %v)", got, ok, c.want, c.wantOK)
			}
		})
	}
}
