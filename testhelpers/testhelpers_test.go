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
package testhelpers

import (
	"testing"

	"github.com/google/traceperiods/tracedata"
)

func TestDiffEventsEqual(t *testing.T) {
	ev := tracedata.NewEvent(1, "sched_switch", 0).
		WithField(tracedata.AUTO, "next_tid", tracedata.IntValue(7))
	if _, equal := DiffEvents(t, ev, ev); !equal {
		t.Error("expected equal events to report equal")
	}
}

func TestDiffEventsDiffer(t *testing.T) {
	a := tracedata.NewEvent(1, "sched_switch", 0)
	b := tracedata.NewEvent(2, "sched_switch", 0)
	diff, equal := DiffEvents(t, a, b)
	if equal {
		t.Fatal("expected differing timestamps to report unequal")
	}
	if diff == "" {
		t.Error("expected a non-empty diff")
	}
}
