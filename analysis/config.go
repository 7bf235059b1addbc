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
// Package analysis drives a trace event stream through the period engine,
// dispatching state-layer notifications into per-period statistics
// aggregators and materialising result tables on period close.
package analysis

import (
	"github.com/google/traceperiods/period"
	"github.com/google/traceperiods/tracedata"
)

type config struct {
	beginTS         tracedata.Timestamp
	hasBeginTS      bool
	endTS           tracedata.Timestamp
	hasEndTS        bool
	refreshPeriodNS uint64

	minDurationNS uint64
	maxDurationNS uint64
	hasMaxDuration bool

	procFilter     map[string]struct{}
	tidFilter      map[uint64]struct{}
	cpuFilter      map[uint32]struct{}
	hardIrqFilter  map[uint32]struct{}
	softIrqFilter  map[uint32]struct{}

	periodDefs []*period.Definition

	freqResolution int
}

// Option configures a Dispatcher, generalizing the teacher's
// analysis/sched_query_filter.go Filter func(*filter) pattern from
// collection-query filters to dispatcher-wide configuration.
type Option func(*config)

// BeginTimestamp starts the dispatcher only once an event's timestamp is
// at or after ts (spec.md §4.F item 2).
func BeginTimestamp(ts tracedata.Timestamp) Option {
	return func(c *config) { c.beginTS, c.hasBeginTS = ts, true }
}

// EndTimestamp stops the dispatcher once an event's timestamp exceeds ts
// (spec.md §4.F item 1).
func EndTimestamp(ts tracedata.Timestamp) Option {
	return func(c *config) { c.endTS, c.hasEndTS = ts, true }
}

// RefreshPeriod sets the wall-clock rotation interval applied to active
// period instances (spec.md §4.F item 6). Zero disables refresh rotation.
func RefreshPeriod(ns uint64) Option {
	return func(c *config) { c.refreshPeriodNS = ns }
}

// DurationRange sets the inclusive [min, max] sample filter applied to
// IRQ and sched-wakeup latency credits (spec.md §8's closed-interval
// boundary behavior). max == 0 means unbounded.
func DurationRange(minNS, maxNS uint64) Option {
	return func(c *config) {
		c.minDurationNS = minNS
		if maxNS > 0 {
			c.maxDurationNS, c.hasMaxDuration = maxNS, true
		}
	}
}

// ProcessFilter restricts sched credit to the named commands.
func ProcessFilter(commands ...string) Option {
	return func(c *config) {
		c.procFilter = map[string]struct{}{}
		for _, cm := range commands {
			c.procFilter[cm] = struct{}{}
		}
	}
}

// TidFilter restricts sched credit to the given thread ids.
func TidFilter(tids ...uint64) Option {
	return func(c *config) {
		c.tidFilter = map[uint64]struct{}{}
		for _, tid := range tids {
			c.tidFilter[tid] = struct{}{}
		}
	}
}

// CPUFilter restricts IRQ and sched credit to the given CPUs, applied at
// credit time for both hard and soft IRQs (supplemented from
// original_source/lttnganalyses/core/irq.py per SPEC_FULL.md §13).
func CPUFilter(cpus ...uint32) Option {
	return func(c *config) {
		c.cpuFilter = map[uint32]struct{}{}
		for _, cpu := range cpus {
			c.cpuFilter[cpu] = struct{}{}
		}
	}
}

// IrqFilter restricts hard-IRQ stats to the given IRQ numbers, ordered
// ascending in the emitted stats table (spec.md §8 scenario 4; the CLI's
// `--irq` flag).
func IrqFilter(irqs ...uint32) Option {
	return func(c *config) {
		c.hardIrqFilter = map[uint32]struct{}{}
		for _, irq := range irqs {
			c.hardIrqFilter[irq] = struct{}{}
		}
	}
}

// SoftIrqFilter restricts soft-IRQ (the CLI's `--softirq` flag) stats to
// the given vector numbers, independent of IrqFilter's hard-IRQ list.
func SoftIrqFilter(irqs ...uint32) Option {
	return func(c *config) {
		c.softIrqFilter = map[uint32]struct{}{}
		for _, irq := range irqs {
			c.softIrqFilter[irq] = struct{}{}
		}
	}
}

// Periods configures the set of PeriodDefinitions the engine matches
// against. If omitted, the engine synthesises the anonymous single
// instance described in spec.md §4.E.
func Periods(defs ...*period.Definition) Option {
	return func(c *config) { c.periodDefs = defs }
}

// FreqResolution sets the number of bins a frequency-distribution table
// uses (spec.md §4.G/§8). Zero (the default) disables freq table output.
func FreqResolution(n int) Option {
	return func(c *config) { c.freqResolution = n }
}

func buildConfig(opts []Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *config) inDuration(ns uint64) bool {
	if ns < c.minDurationNS {
		return false
	}
	if c.hasMaxDuration && ns > c.maxDurationNS {
		return false
	}
	return true
}

func (c *config) cpuAllowed(cpu uint32) bool {
	if len(c.cpuFilter) == 0 {
		return true
	}
	_, ok := c.cpuFilter[cpu]
	return ok
}

func (c *config) hardIrqAllowed(irq uint32) bool {
	if len(c.hardIrqFilter) == 0 {
		return true
	}
	_, ok := c.hardIrqFilter[irq]
	return ok
}

func (c *config) softIrqAllowed(irq uint32) bool {
	if len(c.softIrqFilter) == 0 {
		return true
	}
	_, ok := c.softIrqFilter[irq]
	return ok
}

func (c *config) procAllowed(comm string) bool {
	if len(c.procFilter) == 0 {
		return true
	}
	_, ok := c.procFilter[comm]
	return ok
}

func (c *config) tidAllowed(tid uint64) bool {
	if len(c.tidFilter) == 0 {
		return true
	}
	_, ok := c.tidFilter[tid]
	return ok
}
