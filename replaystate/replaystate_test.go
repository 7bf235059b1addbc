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
package replaystate_test

import (
	"testing"

	"github.com/google/traceperiods/analysis"
	"github.com/google/traceperiods/replaystate"
	"github.com/google/traceperiods/tracedata"
)

type call struct {
	name string
	args []interface{}
}

type spyNotifier struct {
	calls []call
}

func (s *spyNotifier) HardIrqBegin(cpu, irq uint32, name string, ts uint64) {
	s.calls = append(s.calls, call{"HardIrqBegin", []interface{}{cpu, irq, name, ts}})
}
func (s *spyNotifier) HardIrqEnd(cpu, irq uint32, ts uint64) {
	s.calls = append(s.calls, call{"HardIrqEnd", []interface{}{cpu, irq, ts}})
}
func (s *spyNotifier) SoftIrqRaise(cpu, irq uint32, name string, ts uint64) {
	s.calls = append(s.calls, call{"SoftIrqRaise", []interface{}{cpu, irq, name, ts}})
}
func (s *spyNotifier) SoftIrqBegin(cpu, irq uint32, name string, ts uint64) {
	s.calls = append(s.calls, call{"SoftIrqBegin", []interface{}{cpu, irq, name, ts}})
}
func (s *spyNotifier) SoftIrqEnd(cpu, irq uint32, ts uint64) {
	s.calls = append(s.calls, call{"SoftIrqEnd", []interface{}{cpu, irq, ts}})
}
func (s *spyNotifier) SchedSwitchPerTid(cpu uint32, nextTid uint64, nextComm string, waker, wakeupTS uint64, prio int64, ts uint64) {
	s.calls = append(s.calls, call{"SchedSwitchPerTid", []interface{}{cpu, nextTid, nextComm, waker, wakeupTS, prio, ts}})
}
func (s *spyNotifier) PrioChanged(tid, ts uint64, prio int64) {
	s.calls = append(s.calls, call{"PrioChanged", []interface{}{tid, ts, prio}})
}

var _ analysis.Notifier = (*spyNotifier)(nil)

func (s *spyNotifier) only(t *testing.T, name string) call {
	t.Helper()
	var found []call
	for _, c := range s.calls {
		if c.name == name {
			found = append(found, c)
		}
	}
	if len(found) != 1 {
		t.Fatalf("expected exactly one %s call, got %d (all calls: %+v)", name, len(found), s.calls)
	}
	return found[0]
}

func TestHardIrqPairTranslatesToBeginEnd(t *testing.T) {
	r := replaystate.NewReplayer()
	n := &spyNotifier{}

	entry := tracedata.NewEvent(100, "irq_handler_entry", 2).
		WithField(tracedata.AUTO, "irq", tracedata.IntValue(42)).
		WithField(tracedata.AUTO, "name", tracedata.StringValue("eth0"))
	exit := tracedata.NewEvent(500, "irq_handler_exit", 2).
		WithField(tracedata.AUTO, "irq", tracedata.IntValue(42))

	r.IngestEvent(entry, n)
	r.IngestEvent(exit, n)

	begin := n.only(t, "HardIrqBegin")
	if begin.args[1] != uint32(42) || begin.args[2] != "eth0" {
		t.Errorf("HardIrqBegin args = %+v", begin.args)
	}
	end := n.only(t, "HardIrqEnd")
	if end.args[1] != uint32(42) || end.args[2] != uint64(500) {
		t.Errorf("HardIrqEnd args = %+v", end.args)
	}
}

func TestSoftIrqRaiseEntryExit(t *testing.T) {
	r := replaystate.NewReplayer()
	n := &spyNotifier{}

	r.IngestEvent(tracedata.NewEvent(100, "softirq_raise", 0).
		WithField(tracedata.AUTO, "vec", tracedata.IntValue(7)).
		WithField(tracedata.AUTO, "name", tracedata.StringValue("net_rx")), n)
	r.IngestEvent(tracedata.NewEvent(300, "softirq_entry", 0).
		WithField(tracedata.AUTO, "vec", tracedata.IntValue(7)).
		WithField(tracedata.AUTO, "name", tracedata.StringValue("net_rx")), n)
	r.IngestEvent(tracedata.NewEvent(900, "softirq_exit", 0).
		WithField(tracedata.AUTO, "vec", tracedata.IntValue(7)), n)

	n.only(t, "SoftIrqRaise")
	n.only(t, "SoftIrqBegin")
	n.only(t, "SoftIrqEnd")
}

// TestSchedSwitchOnlyFiresAfterWakeup checks that SchedSwitchPerTid is
// emitted only once a sched_wakeup primed the thread's wakeup state, and
// that the wakeup is consumed (not re-fired on a second switch).
func TestSchedSwitchOnlyFiresAfterWakeup(t *testing.T) {
	r := replaystate.NewReplayer()
	n := &spyNotifier{}

	wakeup := tracedata.NewEvent(10, "sched_wakeup", 0).
		WithField(tracedata.AUTO, "tid", tracedata.IntValue(99)).
		WithField(tracedata.AUTO, "comm", tracedata.StringValue("worker")).
		WithField(tracedata.AUTO, "waker_tid", tracedata.IntValue(1))
	r.IngestEvent(wakeup, n)

	sw1 := tracedata.NewEvent(20, "sched_switch", 0).
		WithField(tracedata.AUTO, "next_tid", tracedata.IntValue(99)).
		WithField(tracedata.AUTO, "next_comm", tracedata.StringValue("worker")).
		WithField(tracedata.AUTO, "next_prio", tracedata.IntValue(120))
	r.IngestEvent(sw1, n)

	sw := n.only(t, "SchedSwitchPerTid")
	if sw.args[1] != uint64(99) || sw.args[4] != uint64(10) {
		t.Errorf("SchedSwitchPerTid args = %+v, want tid=99 wakeupTS=10", sw.args)
	}

	// A second switch with no intervening wakeup must not re-fire.
	sw2 := tracedata.NewEvent(30, "sched_switch", 0).
		WithField(tracedata.AUTO, "next_tid", tracedata.IntValue(99)).
		WithField(tracedata.AUTO, "next_comm", tracedata.StringValue("worker")).
		WithField(tracedata.AUTO, "next_prio", tracedata.IntValue(120))
	r.IngestEvent(sw2, n)

	var switchCount int
	for _, c := range n.calls {
		if c.name == "SchedSwitchPerTid" {
			switchCount++
		}
	}
	if switchCount != 1 {
		t.Errorf("SchedSwitchPerTid fired %d times, want 1", switchCount)
	}
}

func TestPrioChangedOnlyOnDelta(t *testing.T) {
	r := replaystate.NewReplayer()
	n := &spyNotifier{}

	mkSwitch := func(ts uint64, prio int64) tracedata.Event {
		return tracedata.NewEvent(tracedata.Timestamp(ts), "sched_switch", 0).
			WithField(tracedata.AUTO, "next_tid", tracedata.IntValue(7)).
			WithField(tracedata.AUTO, "next_comm", tracedata.StringValue("x")).
			WithField(tracedata.AUTO, "next_prio", tracedata.IntValue(prio))
	}

	r.IngestEvent(mkSwitch(1, 120), n) // first sighting: fires
	r.IngestEvent(mkSwitch(2, 120), n) // unchanged: no fire
	r.IngestEvent(mkSwitch(3, 100), n) // changed: fires

	var fires int
	for _, c := range n.calls {
		if c.name == "PrioChanged" {
			fires++
		}
	}
	if fires != 2 {
		t.Errorf("PrioChanged fired %d times, want 2", fires)
	}
}
