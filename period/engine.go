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
package period

import (
	"github.com/google/uuid"

	"github.com/google/traceperiods/periodexpr"
	"github.com/google/traceperiods/tracedata"
)

// OpenFunc is called synchronously when Engine opens a new Instance, before
// the Instance is indexed as active. Implementations typically attach a
// fresh aggregator to inst.Aggregator.
type OpenFunc func(inst *Instance)

// CloseFunc is called synchronously when Engine closes an Instance, after
// it is removed from the active set. Implementations typically materialise
// result rows from inst.Aggregator.
type CloseFunc func(inst *Instance)

// Engine holds the set of configured Definitions and the currently active
// Instances, and drives period open/close transitions from the event
// stream per spec §4.E. It performs no internal concurrency: Step must be
// called from a single goroutine, in strict event timestamp order.
type Engine struct {
	defs    []*Definition
	onOpen  OpenFunc
	onClose CloseFunc

	active map[uuid.UUID]*Instance
	order  []uuid.UUID // insertion order, for deterministic close iteration

	started bool // true once the anonymous-definition special case has fired
}

// NewEngine constructs an Engine over the given Definitions. If defs is
// empty, Step synthesises a single anonymous Instance on the first call,
// per spec §4.E's special case.
func NewEngine(defs []*Definition, onOpen OpenFunc, onClose CloseFunc) *Engine {
	return &Engine{
		defs:    defs,
		onOpen:  onOpen,
		onClose: onClose,
		active:  map[uuid.UUID]*Instance{},
	}
}

// Active returns the Instances currently open, in open order.
func (e *Engine) Active() []*Instance {
	out := make([]*Instance, 0, len(e.order))
	for _, id := range e.order {
		if inst, ok := e.active[id]; ok {
			out = append(out, inst)
		}
	}
	return out
}

// Step advances the engine by one event: it closes every Instance whose
// end expression matches ev, then opens a new Instance for every Definition
// whose begin expression matches ev. Close always precedes open within one
// event, even for a Definition whose begin and end expressions are
// identical — spec §4.E and §9's Open Question resolution.
func (e *Engine) Step(ev tracedata.Event) {
	if len(e.defs) == 0 {
		e.stepAnonymous(ev)
		return
	}

	curCtx := tracedata.NewMatchContext(ev)

	var toClose []uuid.UUID
	for _, id := range e.order {
		inst, ok := e.active[id]
		if !ok {
			continue
		}
		ctx := curCtx
		if inst.HasBeginContext {
			ctx = curCtx.WithBegin(inst.BeginContext)
		}
		if periodexpr.Eval(inst.Def.End, ctx) {
			toClose = append(toClose, id)
		}
	}
	for _, id := range toClose {
		e.close(id)
	}

	for _, def := range e.defs {
		if periodexpr.Eval(def.Begin, curCtx) {
			e.open(def, ev.Timestamp, ev, true)
		}
	}
}

// stepAnonymous implements the no-Definitions special case: a single
// instance opens at the first event and persists until Refresh or
// EndOfStream closes it.
func (e *Engine) stepAnonymous(ev tracedata.Event) {
	if e.started {
		return
	}
	e.started = true
	e.open(anonymousDefinition, ev.Timestamp, tracedata.Event{}, false)
}

// Refresh closes every active Instance whose age (now − inst.Start) is at
// least period, then immediately reopens a replacement Instance for the
// same Definition at now, with no begin context — spec §4.F item 6.
func (e *Engine) Refresh(now tracedata.Timestamp, period uint64) {
	if period == 0 {
		return
	}
	var toRotate []uuid.UUID
	for _, id := range e.order {
		inst, ok := e.active[id]
		if !ok {
			continue
		}
		if uint64(now-inst.Start) >= period {
			toRotate = append(toRotate, id)
		}
	}
	for _, id := range toRotate {
		def := e.active[id].Def
		e.close(id)
		e.open(def, now, tracedata.Event{}, false)
	}
}

// EndOfStream closes every active Instance; called once when the upstream
// trace reader signals end-of-stream (spec §7's UpstreamEnded handling).
func (e *Engine) EndOfStream() {
	ids := append([]uuid.UUID(nil), e.order...)
	for _, id := range ids {
		if _, ok := e.active[id]; ok {
			e.close(id)
		}
	}
}

func (e *Engine) open(def *Definition, start tracedata.Timestamp, beginEvent tracedata.Event, hasBegin bool) {
	inst := &Instance{
		ID:              uuid.New(),
		Def:             def,
		Start:           start,
		BeginContext:    beginEvent,
		HasBeginContext: hasBegin,
		open:            true,
	}
	e.active[inst.ID] = inst
	e.order = append(e.order, inst.ID)
	if e.onOpen != nil {
		e.onOpen(inst)
	}
}

func (e *Engine) close(id uuid.UUID) {
	inst, ok := e.active[id]
	if !ok {
		return
	}
	delete(e.active, id)
	for i, oid := range e.order {
		if oid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	inst.open = false
	if e.onClose != nil {
		e.onClose(inst)
	}
}
