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
	"math"
)

// sampleSet accumulates a running count/total/min/max alongside the full
// sample vector, mirroring the teacher's sched_metrics.go metric/finalize
// split: accumulate during ingest, derive stdev/histogram lazily when a
// period closes.
type sampleSet struct {
	count    uint64
	total    uint64
	min      uint64
	max      uint64
	samples  []uint64
}

func (s *sampleSet) record(v uint64) {
	if s.count == 0 || v < s.min {
		s.min = v
	}
	if s.count == 0 || v > s.max {
		s.max = v
	}
	s.total += v
	s.count++
	s.samples = append(s.samples, v)
}

func (s *sampleSet) avg() float64 {
	if s.count == 0 {
		return 0
	}
	return float64(s.total) / float64(s.count)
}

// stdev returns the unbiased sample standard deviation, and false when
// count < 2 (spec.md §4.G, §8 invariant 3).
func (s *sampleSet) stdev() (float64, bool) {
	if s.count < 2 {
		return 0, false
	}
	mean := s.avg()
	var sumSq float64
	for _, v := range s.samples {
		d := float64(v) - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(s.count-1)), true
}

// histogramBin is one bucket of a frequency table, covering
// [lowerBound, lowerBound+step) except the final bin, which is closed.
type histogramBin struct {
	lowerBound float64
	upperBound float64
	count      uint64
}

// histogram buckets s.samples into resolution bins between s.min and
// s.max (in microseconds), per spec.md §4.G. Returns no bins when
// min == max (step zero, spec.md §8 boundary behavior).
func (s *sampleSet) histogram(resolution int) []histogramBin {
	if resolution <= 0 || s.count == 0 {
		return nil
	}
	minUS := float64(s.min) / 1000.0
	maxUS := float64(s.max) / 1000.0
	if minUS == maxUS {
		return nil
	}
	step := (maxUS - minUS) / float64(resolution)
	bins := make([]histogramBin, resolution)
	for i := range bins {
		bins[i].lowerBound = minUS + float64(i)*step
		bins[i].upperBound = minUS + float64(i+1)*step
	}
	for _, v := range s.samples {
		us := float64(v) / 1000.0
		idx := int((us - minUS) / step)
		if idx >= resolution {
			idx = resolution - 1
		}
		bins[idx].count++
	}
	return bins
}

// IrqStats accumulates per-IRQ completion durations and, for soft IRQs,
// raise-to-begin latencies, within one period instance. It is owned by
// the PeriodInstance and discarded when the instance closes (spec.md §3).
type IrqStats struct {
	IsHard bool
	Nr     uint32
	name   stringID

	durations sampleSet
	raises    sampleSet
}

func newIrqStats(isHard bool, nr uint32, name stringID) *IrqStats {
	return &IrqStats{IsHard: isHard, Nr: nr, name: name}
}

func (s *IrqStats) creditDuration(ns uint64)     { s.durations.record(ns) }
func (s *IrqStats) creditRaiseLatency(ns uint64) { s.raises.record(ns) }

// PrioSample is one entry of a thread's priority-change history,
// supplementing the distilled spec per SPEC_FULL.md §13 from
// original_source/lttnganalyses/core/sched.py.
type PrioSample struct {
	TS   uint64
	Prio int64
}

// SchedEvent is one completed wakeup-to-switch transition (spec.md §3).
type SchedEvent struct {
	WakeupTS   uint64
	SwitchTS   uint64
	Wakee      uint64
	Waker      uint64
	TargetCPU  uint32
	Prio       int64
	LatencyNS  uint64
}

// ProcessSchedStats accumulates per-(pid,tid) scheduling latency and
// priority history within one period instance (spec.md §3).
type ProcessSchedStats struct {
	PID  uint64
	TID  uint64
	comm stringID

	latency      sampleSet
	schedEvents  []SchedEvent
	prioHistory  []PrioSample
}

func newProcessSchedStats(pid, tid uint64, comm stringID) *ProcessSchedStats {
	return &ProcessSchedStats{PID: pid, TID: tid, comm: comm}
}

func (s *ProcessSchedStats) creditSwitch(ev SchedEvent) {
	s.latency.record(ev.LatencyNS)
	s.schedEvents = append(s.schedEvents, ev)
}

func (s *ProcessSchedStats) recordPrioChange(ts uint64, prio int64) {
	s.prioHistory = append(s.prioHistory, PrioSample{TS: ts, Prio: prio})
}
