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

import (
	"encoding/json"
	"fmt"
)

// scopeNames/scopeByName give each Scope a stable wire name for the decoded
// event JSON line format cmd/* reads, independent of Scope.String()'s
// CTF-printer rendering (used by periodexpr's canonical printer instead).
var scopeNames = map[Scope]string{
	Payload:            "payload",
	EventContext:       "event_context",
	StreamEventContext: "stream_event_context",
	StreamEventHeader:  "stream_event_header",
	PacketContext:      "packet_context",
	PacketHeader:       "packet_header",
}

var scopeByName = func() map[string]Scope {
	m := map[string]Scope{}
	for s, n := range scopeNames {
		m[n] = s
	}
	return m
}()

type jsonField struct {
	Scope string  `json:"scope"`
	Name  string  `json:"name"`
	Kind  string  `json:"kind"`
	Int   int64   `json:"int,omitempty"`
	Float float64 `json:"float,omitempty"`
	Str   string  `json:"str,omitempty"`
}

type jsonEvent struct {
	Timestamp Timestamp   `json:"ts"`
	Name      string      `json:"name"`
	CPU       uint32      `json:"cpu"`
	Fields    []jsonField `json:"fields,omitempty"`
}

// MarshalJSON renders ev as one decoded-event JSON line, the wire format
// cmd/* reads from an upstream trace decoder (decoding the raw trace itself
// stays out of scope, per spec.md §1).
func (ev Event) MarshalJSON() ([]byte, error) {
	je := jsonEvent{Timestamp: ev.Timestamp, Name: ev.Name, CPU: ev.CPU}
	for k, v := range ev.fields {
		jf := jsonField{Scope: scopeNames[k.scope], Name: k.name}
		switch v.Kind {
		case KindInteger:
			jf.Kind, jf.Int = "integer", v.Int
		case KindFloat:
			jf.Kind, jf.Float = "float", v.Flt
		case KindString:
			jf.Kind, jf.Str = "string", v.Str
		}
		je.Fields = append(je.Fields, jf)
	}
	return json.Marshal(je)
}

// UnmarshalJSON decodes one event JSON line produced by MarshalJSON.
func (ev *Event) UnmarshalJSON(data []byte) error {
	var je jsonEvent
	if err := json.Unmarshal(data, &je); err != nil {
		return err
	}
	out := NewEvent(je.Timestamp, je.Name, je.CPU)
	for _, jf := range je.Fields {
		scope, ok := scopeByName[jf.Scope]
		if !ok {
			return fmt.Errorf("tracedata: unknown field scope %q", jf.Scope)
		}
		var v FieldValue
		switch jf.Kind {
		case "integer":
			v = IntValue(jf.Int)
		case "float":
			v = FloatValue(jf.Float)
		case "string":
			v = StringValue(jf.Str)
		default:
			return fmt.Errorf("tracedata: unknown field kind %q", jf.Kind)
		}
		out = out.WithField(scope, jf.Name, v)
	}
	*ev = out
	return nil
}
