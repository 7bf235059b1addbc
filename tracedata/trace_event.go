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
// Package tracedata holds the immutable decoded-event representation
// consumed by the period engine and analysis dispatcher. Decoding a raw
// trace into tracedata.Events is an upstream concern; this package only
// describes the shape events take once decoded.
package tracedata

import (
	"fmt"
	"sort"
	"strings"
)

// Timestamp is a trace event timestamp in nanoseconds.
type Timestamp uint64

// UnknownTimestamp represents an unspecified event timestamp.
const UnknownTimestamp Timestamp = 0

// Scope names a CTF field namespace. A field may be looked up within one
// explicit scope, or via AUTO, which searches every scope in a fixed order.
type Scope int

// The six CTF scopes, plus the AUTO pseudo-scope used when a field reference
// carries no explicit scope prefix.
const (
	AUTO Scope = iota
	Payload
	EventContext
	StreamEventContext
	StreamEventHeader
	PacketContext
	PacketHeader
)

// scopeSearchOrder is the AUTO lookup order mandated by spec §4.C: payload,
// event-context, stream-event-context, stream-event-header, packet-context,
// packet-header.
var scopeSearchOrder = []Scope{
	Payload, EventContext, StreamEventContext, StreamEventHeader, PacketContext, PacketHeader,
}

func (s Scope) String() string {
	switch s {
	case Payload:
		return "$payload"
	case EventContext:
		return "$ctx"
	case StreamEventContext:
		return "$stream_ctx"
	case StreamEventHeader:
		return "$header"
	case PacketContext:
		return "$pkt_ctx"
	case PacketHeader:
		return "$pkt_header"
	default:
		return "$auto"
	}
}

// ValueKind distinguishes the three typed_value kinds a field may hold.
type ValueKind int

// The three field value kinds.
const (
	KindInteger ValueKind = iota
	KindFloat
	KindString
)

// FieldValue is one of integer, float, or string, per spec §3's typed_value.
type FieldValue struct {
	Kind ValueKind
	Int  int64
	Flt  float64
	Str  string
}

// IntValue constructs an integer FieldValue.
func IntValue(v int64) FieldValue { return FieldValue{Kind: KindInteger, Int: v} }

// FloatValue constructs a float FieldValue.
func FloatValue(v float64) FieldValue { return FieldValue{Kind: KindFloat, Flt: v} }

// StringValue constructs a string FieldValue.
func StringValue(v string) FieldValue { return FieldValue{Kind: KindString, Str: v} }

// AsFloat returns the value's numeric magnitude and whether it is numeric at
// all (KindString is not).
func (v FieldValue) AsFloat() (float64, bool) {
	switch v.Kind {
	case KindInteger:
		return float64(v.Int), true
	case KindFloat:
		return v.Flt, true
	default:
		return 0, false
	}
}

func (v FieldValue) String() string {
	switch v.Kind {
	case KindInteger:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Flt)
	default:
		return v.Str
	}
}

// scopedField is a field keyed by both its scope and its name, so the same
// identifier can be present in more than one scope.
type scopedField struct {
	scope Scope
	name  string
}

// Event is a single immutable decoded trace event.
type Event struct {
	Timestamp Timestamp
	Name      string
	CPU       uint32
	fields    map[scopedField]FieldValue
}

// NewEvent constructs an Event with no fields set; use WithField to attach
// scoped field values before the Event is considered complete.
func NewEvent(ts Timestamp, name string, cpu uint32) Event {
	return Event{Timestamp: ts, Name: name, CPU: cpu, fields: map[scopedField]FieldValue{}}
}

// WithField returns a copy of ev with the given scoped field set. A field
// set with AUTO is stored in the Payload scope, the first scope AUTO lookup
// searches. Events are treated as immutable once handed to the period
// engine or dispatcher; WithField is a construction-time helper only (used
// by decoders and tests), never called on an Event already in flight.
func (ev Event) WithField(scope Scope, name string, v FieldValue) Event {
	if scope == AUTO {
		scope = Payload
	}
	out := Event{Timestamp: ev.Timestamp, Name: ev.Name, CPU: ev.CPU, fields: map[scopedField]FieldValue{}}
	for k, val := range ev.fields {
		out.fields[k] = val
	}
	out.fields[scopedField{scope, name}] = v
	return out
}

// Field resolves name within the given scope. AUTO searches scopeSearchOrder
// and returns the first match. Missing fields return ok=false rather than an
// error; spec §7 treats a missing field as "no match", not a failure.
func (ev Event) Field(scope Scope, name string) (FieldValue, bool) {
	if scope != AUTO {
		v, ok := ev.fields[scopedField{scope, name}]
		return v, ok
	}
	for _, s := range scopeSearchOrder {
		if v, ok := ev.fields[scopedField{s, name}]; ok {
			return v, true
		}
	}
	return FieldValue{}, false
}

// String renders ev as one line, its fields sorted by their
// "scope.name=value" text so output is deterministic.
func (ev Event) String() string {
	var props []string
	for k, v := range ev.fields {
		props = append(props, fmt.Sprintf("%s.%s=%s", k.scope, k.name, v))
	}
	sort.Strings(props)
	parts := append([]string{fmt.Sprintf("%-18d (CPU %d) %s", ev.Timestamp, ev.CPU, ev.Name)}, props...)
	return strings.Join(parts, " ")
}
