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
package tracedata

// MatchContext carries the current event and, when evaluating a period's
// end expression, the event that opened the period (its "begin context").
// Both references are immutable snapshots; MatchContext itself is a cheap,
// copyable value.
type MatchContext struct {
	Current Event
	// Begin is the snapshot of the event that opened the period, or the
	// zero Event with HasBegin false when no period is open yet (i.e. when
	// evaluating a begin expression).
	Begin    Event
	HasBegin bool
}

// NewMatchContext builds a MatchContext for evaluating a begin expression,
// where no begin snapshot exists yet.
func NewMatchContext(current Event) MatchContext {
	return MatchContext{Current: current}
}

// WithBegin returns a copy of ctx with the given begin snapshot attached,
// for evaluating an end expression against a live period instance.
func (ctx MatchContext) WithBegin(begin Event) MatchContext {
	return MatchContext{Current: ctx.Current, Begin: begin, HasBegin: true}
}

// EventFor resolves which event a field or name reference should read from:
// the begin snapshot if isBegin is set, the current event otherwise.
func (ctx MatchContext) EventFor(isBegin bool) (Event, bool) {
	if isBegin {
		return ctx.Begin, ctx.HasBegin
	}
	return ctx.Current, true
}
