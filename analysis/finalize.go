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
	"fmt"
	"sort"
	"strings"

	"github.com/google/traceperiods/period"
	"github.com/google/traceperiods/results"
)

func stdevCell(ok bool, v float64) results.Cell {
	if !ok {
		return results.UnknownCell()
	}
	return results.DurationCell(uint64(v))
}

// buildTables materialises every result table an instance's aggregator
// state can produce. Close-time materialisation never fails (spec.md §7):
// an instance with no credited samples yields tables with zero or
// suppressed rows, never an error.
func (d *Dispatcher) buildTables(inst *period.Instance) []*results.Table {
	agg, ok := inst.Aggregator.(*instanceAgg)
	if !ok || agg == nil {
		return nil
	}
	timeRange := results.TimeRangeCell(inst.Start, d.curEventTS)

	var out []*results.Table

	if len(agg.logRows) > 0 {
		logTable := results.NewTable(results.ClassLog, timeRange)
		logTable.Rows = agg.logRows
		out = append(out, logTable)
	}

	hardNrs, softNrs := partitionIrqIDs(agg.irqs)

	var statsRows []results.Row
	for _, nr := range hardNrs {
		s := agg.irqs[irqID{isHard: true, nr: nr}]
		if s.durations.count == 0 {
			continue // no End ever paired with this Begin before close (spec.md §8)
		}
		statsRows = append(statsRows, irqStatsRow(s, d.names))
	}
	for _, nr := range softNrs {
		s := agg.irqs[irqID{isHard: false, nr: nr}]
		if s.durations.count == 0 {
			continue // raised or entered but never exited before close
		}
		statsRows = append(statsRows, irqStatsRow(s, d.names))
	}
	if len(statsRows) > 0 {
		statsTable := results.NewTable(results.ClassStats, timeRange)
		statsTable.Rows = statsRows
		out = append(out, statsTable)
	}

	var raiseRows []results.Row
	for _, nr := range softNrs {
		s := agg.irqs[irqID{isHard: false, nr: nr}]
		if s.raises.count == 0 {
			continue // raised but never entered before close (spec.md §8)
		}
		raiseRows = append(raiseRows, irqRaiseStatsRow(s, d.names))
	}
	if len(raiseRows) > 0 {
		raiseTable := results.NewTable(results.ClassRaiseStats, timeRange)
		raiseTable.Rows = raiseRows
		out = append(out, raiseTable)
	}

	var schedRows []results.Row
	for _, tid := range sortedTids(agg.sched) {
		s := agg.sched[tid]
		if s.latency.count == 0 {
			continue // no completed wakeup-to-switch credited before close
		}
		schedRows = append(schedRows, schedStatsRow(s, d.names))
	}
	if len(schedRows) > 0 {
		schedTable := results.NewTable(results.ClassStats, timeRange)
		schedTable.Rows = schedRows
		out = append(out, schedTable)
	}

	if d.cfg.freqResolution > 0 && len(hardNrs) > 0 {
		freqTable := results.NewTable(results.ClassFreq, timeRange)
		for _, nr := range hardNrs {
			s := agg.irqs[irqID{isHard: true, nr: nr}]
			for _, bin := range s.durations.histogram(d.cfg.freqResolution) {
				freqTable.Append(results.NewRow(
					[]string{"duration_lower", "duration_upper", "count"},
					[]results.Cell{
						results.DurationCell(uint64(bin.lowerBound * 1000.0)),
						results.DurationCell(uint64(bin.upperBound * 1000.0)),
						results.IntegerCell(bin.count),
					},
				))
			}
		}
		out = append(out, freqTable)
	}

	return out
}

func partitionIrqIDs(m map[irqID]*IrqStats) (hard, soft []uint32) {
	for k := range m {
		if k.isHard {
			hard = append(hard, k.nr)
		} else {
			soft = append(soft, k.nr)
		}
	}
	sort.Slice(hard, func(i, j int) bool { return hard[i] < hard[j] })
	sort.Slice(soft, func(i, j int) bool { return soft[i] < soft[j] })
	return hard, soft
}

func sortedTids(m map[uint64]*ProcessSchedStats) []uint64 {
	out := make([]uint64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// irqStatsRow renders one completed-duration IRQ's stats. Callers only
// invoke this once s.durations.count > 0 (spec.md §8: a count==0
// aggregator is suppressed entirely, not rendered with empty cells).
func irqStatsRow(s *IrqStats, names *stringBank) results.Row {
	stdev, hasStdev := s.durations.stdev()
	return results.NewRow(
		[]string{"irq", "count", "min_duration", "avg_duration", "max_duration", "stdev_duration"},
		[]results.Cell{
			results.IrqCell(s.IsHard, s.Nr, names.stringFor(s.name)),
			results.IntegerCell(s.durations.count),
			results.DurationCell(s.durations.min),
			results.DurationCell(uint64(s.durations.avg())),
			results.DurationCell(s.durations.max),
			stdevCell(hasStdev, stdev),
		},
	)
}

// irqRaiseStatsRow renders one completed raise-latency IRQ's stats.
// Callers only invoke this once s.raises.count > 0 (spec.md §8).
func irqRaiseStatsRow(s *IrqStats, names *stringBank) results.Row {
	stdev, hasStdev := s.raises.stdev()
	return results.NewRow(
		[]string{"irq", "count", "min_latency", "avg_latency", "max_latency", "stdev_latency"},
		[]results.Cell{
			results.IrqCell(s.IsHard, s.Nr, names.stringFor(s.name)),
			results.IntegerCell(s.raises.count),
			results.DurationCell(s.raises.min),
			results.DurationCell(uint64(s.raises.avg())),
			results.DurationCell(s.raises.max),
			stdevCell(hasStdev, stdev),
		},
	)
}

// prioHistoryCell renders a thread's priority-change samples as a single
// compact string cell (ts@prio, oldest first), supplementing the
// distilled spec per SPEC_FULL.md §13 from original_source's sched.py,
// which surfaces the same history in its per-tid text output.
func prioHistoryCell(samples []PrioSample) results.Cell {
	if len(samples) == 0 {
		return results.EmptyCell()
	}
	parts := make([]string, len(samples))
	for i, s := range samples {
		parts[i] = fmt.Sprintf("%d@%d", s.TS, s.Prio)
	}
	return results.StringCell(strings.Join(parts, ","))
}

// schedStatsRow renders one thread's sched-switch latency stats. Callers
// only invoke this once s.latency.count > 0 (spec.md §8).
func schedStatsRow(s *ProcessSchedStats, names *stringBank) results.Row {
	cols := []string{"tid", "comm", "count", "min_latency", "avg_latency", "max_latency", "stdev_latency", "prio_history"}
	stdev, hasStdev := s.latency.stdev()
	return results.NewRow(cols,
		[]results.Cell{
			results.IntegerCell(s.TID),
			results.StringCell(names.stringFor(s.comm)),
			results.IntegerCell(s.latency.count),
			results.DurationCell(s.latency.min),
			results.DurationCell(uint64(s.latency.avg())),
			results.DurationCell(s.latency.max),
			stdevCell(hasStdev, stdev),
			prioHistoryCell(s.prioHistory),
		},
	)
}
