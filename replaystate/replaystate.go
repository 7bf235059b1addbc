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
// Package replaystate provides a reference analysis.StateLayer: it derives
// hard/soft-IRQ and scheduling notifications from raw kernel tracepoints,
// the way lttng-analyses' linuxautomaton state tracker does (see
// lttnganalyses/core/sched.py and cli/irq.py in the distilled source this
// repo reimplements), field-extracted in the style of
// analysis/sched/sched_event_loaders.go. Interval bookkeeping (matching a
// begin to its end, a raise to its begin) is the dispatcher's
// responsibility per spec.md §4.F; this layer only tracks what it cannot
// derive from begin/end pairing alone — per-thread wakeup and priority
// state.
package replaystate

import (
	"github.com/google/traceperiods/analysis"
	"github.com/google/traceperiods/tracedata"
)

type threadState struct {
	lastWakeupTS uint64
	hasWakeup    bool
	lastWaker    uint64
	comm         string
	prio         int64
	hasPrio      bool
}

// Replayer tracks per-thread wakeup and priority state across the event
// stream and emits the notifications analysis.Notifier exposes. It holds
// no period-engine state of its own: it is shared across all open period
// instances, exactly as lttng-analyses' single state tracker feeds every
// concurrently running analysis.
type Replayer struct {
	threads map[uint64]*threadState
}

// NewReplayer constructs an empty Replayer.
func NewReplayer() *Replayer {
	return &Replayer{threads: map[uint64]*threadState{}}
}

func fieldUint(ev tracedata.Event, name string) (uint64, bool) {
	v, ok := ev.Field(tracedata.AUTO, name)
	if !ok || v.Kind != tracedata.KindInteger {
		return 0, false
	}
	return uint64(v.Int), true
}

func fieldInt(ev tracedata.Event, name string) (int64, bool) {
	v, ok := ev.Field(tracedata.AUTO, name)
	if !ok || v.Kind != tracedata.KindInteger {
		return 0, false
	}
	return v.Int, true
}

func fieldStr(ev tracedata.Event, name string) string {
	v, ok := ev.Field(tracedata.AUTO, name)
	if !ok || v.Kind != tracedata.KindString {
		return ""
	}
	return v.Str
}

func (r *Replayer) thread(tid uint64) *threadState {
	ts, ok := r.threads[tid]
	if !ok {
		ts = &threadState{}
		r.threads[tid] = ts
	}
	return ts
}

// IngestEvent implements analysis.StateLayer. It switches on the raw
// tracepoint name, the way sched_event_loaders.go's DefaultEventLoaders
// dispatch table does, but emits dispatcher notifications instead of
// building thread-transition sets.
func (r *Replayer) IngestEvent(ev tracedata.Event, n analysis.Notifier) {
	switch ev.Name {
	case "irq_handler_entry":
		irq, _ := fieldUint(ev, "irq")
		n.HardIrqBegin(ev.CPU, uint32(irq), fieldStr(ev, "name"), uint64(ev.Timestamp))

	case "irq_handler_exit":
		irq, _ := fieldUint(ev, "irq")
		n.HardIrqEnd(ev.CPU, uint32(irq), uint64(ev.Timestamp))

	case "softirq_raise":
		vec, _ := fieldUint(ev, "vec")
		n.SoftIrqRaise(ev.CPU, uint32(vec), fieldStr(ev, "name"), uint64(ev.Timestamp))

	case "softirq_entry":
		vec, _ := fieldUint(ev, "vec")
		n.SoftIrqBegin(ev.CPU, uint32(vec), fieldStr(ev, "name"), uint64(ev.Timestamp))

	case "softirq_exit":
		vec, _ := fieldUint(ev, "vec")
		n.SoftIrqEnd(ev.CPU, uint32(vec), uint64(ev.Timestamp))

	case "sched_wakeup", "sched_wakeup_new":
		tid, _ := fieldUint(ev, "tid")
		comm := fieldStr(ev, "comm")
		state := r.thread(tid)
		state.lastWakeupTS, state.hasWakeup = uint64(ev.Timestamp), true
		if waker, ok := fieldUint(ev, "waker_tid"); ok {
			state.lastWaker = waker
		}
		if comm != "" {
			state.comm = comm
		}

	case "sched_switch":
		nextTid, _ := fieldUint(ev, "next_tid")
		nextComm := fieldStr(ev, "next_comm")
		prio, hasPrio := fieldInt(ev, "next_prio")
		state := r.thread(nextTid)
		if nextComm != "" {
			state.comm = nextComm
		}
		if state.hasWakeup {
			n.SchedSwitchPerTid(ev.CPU, nextTid, state.comm, state.lastWaker, state.lastWakeupTS, prio, uint64(ev.Timestamp))
			state.hasWakeup = false
		}
		if hasPrio && (!state.hasPrio || prio != state.prio) {
			state.prio, state.hasPrio = prio, true
			n.PrioChanged(nextTid, uint64(ev.Timestamp), prio)
		}
	}
}
