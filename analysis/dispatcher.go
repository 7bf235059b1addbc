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
	log "github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/google/traceperiods/period"
	"github.com/google/traceperiods/results"
	"github.com/google/traceperiods/tracedata"
)

type irqID struct {
	isHard bool
	nr     uint32
}

// instanceAgg is the per-PeriodInstance state a Dispatcher attaches on
// open and tears down on close, per spec.md §3's "per-instance aggregators
// live only from period open to period close" invariant.
type instanceAgg struct {
	irqs  map[irqID]*IrqStats
	sched map[uint64]*ProcessSchedStats

	hardIrqOpen map[uint32]uint64 // irq -> begin ts, per cpu folded in by caller
	softIrqOpen map[uint32]uint64
	softRaiseTS map[uint32]uint64

	logRows []results.Row
}

func newInstanceAgg() *instanceAgg {
	return &instanceAgg{
		irqs:        map[irqID]*IrqStats{},
		sched:       map[uint64]*ProcessSchedStats{},
		hardIrqOpen: map[uint32]uint64{},
		softIrqOpen: map[uint32]uint64{},
		softRaiseTS: map[uint32]uint64{},
	}
}

func (a *instanceAgg) irqStats(isHard bool, nr uint32, names *stringBank, name string) *IrqStats {
	key := irqID{isHard: isHard, nr: nr}
	s, ok := a.irqs[key]
	if !ok {
		s = newIrqStats(isHard, nr, names.idFor(name))
		a.irqs[key] = s
	}
	return s
}

func (a *instanceAgg) procStats(tid uint64, comms *stringBank, comm string) *ProcessSchedStats {
	s, ok := a.sched[tid]
	if !ok {
		s = newProcessSchedStats(0, tid, comms.idFor(comm))
		a.sched[tid] = s
	}
	return s
}

// Dispatcher drives one trace event stream through a period.Engine,
// routing StateLayer notifications into per-instance aggregators and
// materialising result tables as instances close (spec.md §4.F).
type Dispatcher struct {
	cfg    *config
	engine *period.Engine
	state  StateLayer

	names *stringBank

	started bool
	ended   bool

	pendingActive []*period.Instance
	curEventTS    tracedata.Timestamp

	doc *results.Document

	collectingEOS bool
	eosClosed     []*period.Instance
}

// NewDispatcher builds a Dispatcher over the given StateLayer, applying
// opts to configure begin/end bounds, filters, refresh, and period
// definitions (spec.md §4.F).
func NewDispatcher(state StateLayer, opts ...Option) *Dispatcher {
	cfg := buildConfig(opts)
	d := &Dispatcher{
		cfg:   cfg,
		state: state,
		names: newStringBank(),
		doc:   results.NewDocument(),
	}
	d.engine = period.NewEngine(cfg.periodDefs, d.onOpen, d.onClose)
	return d
}

func (d *Dispatcher) onOpen(inst *period.Instance) {
	inst.Aggregator = newInstanceAgg()
}

func (d *Dispatcher) onClose(inst *period.Instance) {
	if d.collectingEOS {
		d.eosClosed = append(d.eosClosed, inst)
		return
	}
	d.finalize(inst)
}

// Ingest advances the dispatcher by one event, per spec.md §4.F's ordered
// per-event steps: end check, start gating, state-layer notification,
// period-engine step, refresh check. With no period definitions the engine
// is stepped before the state layer instead, so the anonymous instance
// opened by the first event also receives that event's notifications.
func (d *Dispatcher) Ingest(ev tracedata.Event) {
	if d.ended {
		return
	}
	if d.cfg.hasEndTS && ev.Timestamp > d.cfg.endTS {
		d.ended = true
		log.V(1).Infof("analysis ended at ts=%d (end_ts=%d)", ev.Timestamp, d.cfg.endTS)
		return
	}
	if !d.started {
		if d.cfg.hasBeginTS && ev.Timestamp < d.cfg.beginTS {
			return
		}
		d.started = true
	}

	d.curEventTS = ev.Timestamp
	anonymous := len(d.cfg.periodDefs) == 0
	if anonymous {
		d.engine.Step(ev)
	}
	d.pendingActive = d.engine.Active()
	d.state.IngestEvent(ev, d)
	if !anonymous {
		d.engine.Step(ev)
	}
	if d.cfg.refreshPeriodNS > 0 {
		d.engine.Refresh(ev.Timestamp, d.cfg.refreshPeriodNS)
	}
}

// End closes every active instance (in parallel via errgroup, since
// finalisation of each closed period is independent work performed after
// the single-threaded ingest loop has stopped, per SPEC_FULL.md §12.4)
// and returns the completed result Document, including the summary table.
func (d *Dispatcher) End() *results.Document {
	d.collectingEOS = true
	d.eosClosed = nil
	d.engine.EndOfStream()
	d.collectingEOS = false

	tables := make([][]*results.Table, len(d.eosClosed))
	var g errgroup.Group
	for i, inst := range d.eosClosed {
		i, inst := i, inst
		g.Go(func() error {
			tables[i] = d.buildTables(inst)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Errorf("period finalisation error: %v", err)
	}
	for _, ts := range tables {
		for _, t := range ts {
			d.doc.Add(t)
		}
	}
	d.doc.Add(d.doc.Summary())
	return d.doc
}

func (d *Dispatcher) finalize(inst *period.Instance) {
	for _, t := range d.buildTables(inst) {
		d.doc.Add(t)
	}
}

var _ Notifier = (*Dispatcher)(nil)
