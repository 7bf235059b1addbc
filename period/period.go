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
// Package period implements the period engine: it opens and closes named,
// possibly-overlapping observation windows ("periods") over an event
// stream, driven by the begin/end predicates of periodexpr.Expression.
package period

import (
	"github.com/google/uuid"

	"github.com/google/traceperiods/periodexpr"
	"github.com/google/traceperiods/tracedata"
)

// Definition is an immutable, shared period definition: a name and a pair
// of validated begin/end expressions. When the input grammar supplied no
// end clause, End is the same Expression value as Begin (spec §3).
type Definition struct {
	Name  string
	Begin periodexpr.Expression
	End   periodexpr.Expression
}

// NewDefinition validates begin and end (begin may not reference a begin
// context; end may) and returns the shared Definition, or an
// *periodexpr.IllegalExpressionError.
func NewDefinition(name string, begin, end periodexpr.Expression) (*Definition, error) {
	if err := periodexpr.Validate(begin, true); err != nil {
		return nil, err
	}
	if err := periodexpr.Validate(end, false); err != nil {
		return nil, err
	}
	return &Definition{Name: name, Begin: begin, End: end}, nil
}

// FromParsed builds a Definition from a parsed period argument string.
func FromParsed(pp *periodexpr.ParsedPeriod) (*Definition, error) {
	return NewDefinition(pp.Name, pp.Begin, pp.End)
}

// anonymousDefinition is used for the no-definitions-configured special
// case (spec §4.E): its begin/end expressions are never evaluated.
var anonymousDefinition = &Definition{Name: ""}

// Instance is one live occurrence of a Definition. Identity is the
// Instance, not the Definition: matching the same Definition's begin twice
// concurrently yields two Instances, distinguished by ID.
type Instance struct {
	ID    uuid.UUID
	Def   *Definition
	Start tracedata.Timestamp

	// BeginContext is the snapshot of the event that opened this instance.
	// HasBeginContext is false for refresh-rotated replacement instances
	// and for the anonymous synthesized instance, per spec §4.F item 6 and
	// §4.E's special case: an end expression referencing $begin. then
	// simply never matches for such an instance, rather than erroring.
	BeginContext    tracedata.Event
	HasBeginContext bool

	// Aggregator is owned by the analysis package: whatever per-period
	// accumulator state (IrqStats, ProcessSchedStats, ...) the dispatcher
	// attaches when the instance opens. The period engine never reads it.
	Aggregator interface{}

	// open is true while the instance is active, indexed by ID in the
	// Engine's active map.
	open bool
}
