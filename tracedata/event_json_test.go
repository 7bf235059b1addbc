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
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEventJSONRoundTrip(t *testing.T) {
	want := NewEvent(12345, "irq_handler_entry", 3).
		WithField(AUTO, "irq", IntValue(42)).
		WithField(Payload, "name", StringValue("eth0")).
		WithField(AUTO, "ratio", FloatValue(0.5))

	data, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(Event{}, scopedField{})); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEventJSONUnknownScopeErrors(t *testing.T) {
	in := `{"ts":1,"name":"x","cpu":0,"fields":[{"scope":"not_a_scope","name":"f","kind":"integer","int":1}]}`
	var ev Event
	if err := json.Unmarshal([]byte(in), &ev); err == nil {
		t.Fatal("expected an error for an unknown field scope")
	}
}

func TestEventJSONUnknownKindErrors(t *testing.T) {
	in := `{"ts":1,"name":"x","cpu":0,"fields":[{"scope":"payload","name":"f","kind":"not_a_kind"}]}`
	var ev Event
	if err := json.Unmarshal([]byte(in), &ev); err == nil {
		t.Fatal("expected an error for an unknown field kind")
	}
}

func TestEventJSONNoFields(t *testing.T) {
	want := NewEvent(1, "sched_switch", 0)
	data, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Name != "sched_switch" || got.Timestamp != 1 || got.CPU != 0 {
		t.Errorf("got = %+v", got)
	}
}
