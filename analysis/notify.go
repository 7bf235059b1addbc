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
package analysis

import (
	"github.com/google/traceperiods/results"
	"github.com/google/traceperiods/tracedata"
)

func tsTimestamp(ns uint64) tracedata.Timestamp { return tracedata.Timestamp(ns) }

// HardIrqBegin implements Notifier: it records the begin timestamp on
// every instance open at the start of this event, for later pairing with
// HardIrqEnd (spec.md §4.F).
func (d *Dispatcher) HardIrqBegin(cpu uint32, irq uint32, name string, ts uint64) {
	if !d.cfg.cpuAllowed(cpu) || !d.cfg.hardIrqAllowed(irq) {
		return
	}
	for _, inst := range d.pendingActive {
		agg := inst.Aggregator.(*instanceAgg)
		agg.hardIrqOpen[irq] = ts
		agg.irqStats(true, irq, d.names, name)
	}
}

// HardIrqEnd implements Notifier: it credits a completed hard IRQ's
// duration to every instance that recorded a matching begin.
func (d *Dispatcher) HardIrqEnd(cpu uint32, irq uint32, ts uint64) {
	if !d.cfg.cpuAllowed(cpu) || !d.cfg.hardIrqAllowed(irq) {
		return
	}
	for _, inst := range d.pendingActive {
		agg := inst.Aggregator.(*instanceAgg)
		begin, ok := agg.hardIrqOpen[irq]
		if !ok || ts < begin {
			continue
		}
		delete(agg.hardIrqOpen, irq)
		dur := ts - begin
		if !d.cfg.inDuration(dur) {
			continue
		}
		agg.irqStats(true, irq, d.names, "").creditDuration(dur)
		agg.logRows = append(agg.logRows, results.NewRow(
			[]string{"time_range", "raised_ts", "cpu", "irq"},
			[]results.Cell{
				results.TimeRangeCell(tsTimestamp(begin), tsTimestamp(ts)),
				results.TimestampCell(tsTimestamp(begin)),
				results.CpuCell(cpu),
				results.IrqCell(true, irq, d.names.stringFor(agg.irqs[irqID{isHard: true, nr: irq}].name)),
			},
		))
	}
}

// SoftIrqRaise implements Notifier: it records the raise timestamp so a
// subsequent SoftIrqBegin can compute raise latency.
func (d *Dispatcher) SoftIrqRaise(cpu uint32, irq uint32, name string, ts uint64) {
	if !d.cfg.cpuAllowed(cpu) || !d.cfg.softIrqAllowed(irq) {
		return
	}
	for _, inst := range d.pendingActive {
		agg := inst.Aggregator.(*instanceAgg)
		agg.softRaiseTS[irq] = ts
		agg.irqStats(false, irq, d.names, name)
	}
}

// SoftIrqBegin implements Notifier: it records the begin timestamp and,
// when a prior raise is present, credits the raise latency.
func (d *Dispatcher) SoftIrqBegin(cpu uint32, irq uint32, name string, ts uint64) {
	if !d.cfg.cpuAllowed(cpu) || !d.cfg.softIrqAllowed(irq) {
		return
	}
	for _, inst := range d.pendingActive {
		agg := inst.Aggregator.(*instanceAgg)
		agg.softIrqOpen[irq] = ts
		s := agg.irqStats(false, irq, d.names, name)
		if raiseTS, ok := agg.softRaiseTS[irq]; ok && ts >= raiseTS {
			latency := ts - raiseTS
			if d.cfg.inDuration(latency) {
				s.creditRaiseLatency(latency)
			}
			delete(agg.softRaiseTS, irq)
		}
	}
}

// SoftIrqEnd implements Notifier: it credits a completed soft IRQ's
// duration to every instance that recorded a matching begin.
func (d *Dispatcher) SoftIrqEnd(cpu uint32, irq uint32, ts uint64) {
	if !d.cfg.cpuAllowed(cpu) || !d.cfg.softIrqAllowed(irq) {
		return
	}
	for _, inst := range d.pendingActive {
		agg := inst.Aggregator.(*instanceAgg)
		begin, ok := agg.softIrqOpen[irq]
		if !ok || ts < begin {
			continue
		}
		delete(agg.softIrqOpen, irq)
		dur := ts - begin
		if !d.cfg.inDuration(dur) {
			continue
		}
		agg.irqStats(false, irq, d.names, "").creditDuration(dur)
	}
}

// SchedSwitchPerTid implements Notifier: it credits wakeup-to-switch
// latency for the given thread to every active instance, subject to
// process/tid/cpu and duration filters (spec.md §4.F).
func (d *Dispatcher) SchedSwitchPerTid(cpu uint32, nextTid uint64, nextComm string, waker uint64, wakeupTS uint64, prio int64, ts uint64) {
	if !d.cfg.cpuAllowed(cpu) || !d.cfg.tidAllowed(nextTid) || !d.cfg.procAllowed(nextComm) || ts < wakeupTS {
		return
	}
	latency := ts - wakeupTS
	if !d.cfg.inDuration(latency) {
		return
	}
	for _, inst := range d.pendingActive {
		agg := inst.Aggregator.(*instanceAgg)
		s := agg.procStats(nextTid, d.names, nextComm)
		s.creditSwitch(SchedEvent{
			WakeupTS:  wakeupTS,
			SwitchTS:  ts,
			Wakee:     nextTid,
			Waker:     waker,
			TargetCPU: cpu,
			Prio:      prio,
			LatencyNS: latency,
		})
	}
}

// PrioChanged implements Notifier: in every active instance that already
// holds sched stats for tid, it appends a priority sample to that thread's
// history (SPEC_FULL.md §13). A change for a thread with no stats entry in
// an instance is not recorded there.
func (d *Dispatcher) PrioChanged(tid uint64, ts uint64, prio int64) {
	for _, inst := range d.pendingActive {
		agg := inst.Aggregator.(*instanceAgg)
		if s, ok := agg.sched[tid]; ok {
			s.recordPrioChange(ts, prio)
		}
	}
}
