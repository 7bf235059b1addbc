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
// Package results holds the typed, append-only row and table model that
// analysis dispatchers materialise into: log, stats, raise-stats, freq,
// and summary tables, per spec.md §4.H.
package results

import (
	"encoding/json"
	"fmt"

	"github.com/google/traceperiods/tracedata"
)

// CellKind tags which variant a Cell holds.
type CellKind int

const (
	KindEmpty CellKind = iota
	KindUnknown
	KindTimeRange
	KindTimestamp
	KindDuration
	KindInteger
	KindIrq
	KindCpu
	KindString
)

// Cell is a closed sum type for one result-table column value. Exactly one
// of the typed fields is meaningful, selected by Kind.
type Cell struct {
	Kind CellKind

	RangeBegin, RangeEnd tracedata.Timestamp
	Timestamp            tracedata.Timestamp
	DurationNS           uint64
	Integer               uint64
	IrqIsHard             bool
	IrqNr                 uint32
	IrqName               string
	Cpu                   uint32
	Str                   string
}

// EmptyCell renders as the explicit absence of a value (as opposed to a
// zero value), such as a thread with no priority history or a table with
// no time range.
func EmptyCell() Cell { return Cell{Kind: KindEmpty} }

// UnknownCell renders a value that is mathematically undefined, such as
// standard deviation with fewer than two samples (spec.md §4.G).
func UnknownCell() Cell { return Cell{Kind: KindUnknown} }

func TimeRangeCell(begin, end tracedata.Timestamp) Cell {
	return Cell{Kind: KindTimeRange, RangeBegin: begin, RangeEnd: end}
}

func TimestampCell(ts tracedata.Timestamp) Cell {
	return Cell{Kind: KindTimestamp, Timestamp: ts}
}

// DurationCell holds a duration in nanoseconds; DurationMicros exposes the
// microsecond rendering used throughout spec.md §8's worked examples.
func DurationCell(ns uint64) Cell {
	return Cell{Kind: KindDuration, DurationNS: ns}
}

func (c Cell) DurationMicros() float64 { return float64(c.DurationNS) / 1000.0 }

func IntegerCell(v uint64) Cell { return Cell{Kind: KindInteger, Integer: v} }

func IrqCell(isHard bool, nr uint32, name string) Cell {
	return Cell{Kind: KindIrq, IrqIsHard: isHard, IrqNr: nr, IrqName: name}
}

func CpuCell(cpu uint32) Cell { return Cell{Kind: KindCpu, Cpu: cpu} }

func StringCell(s string) Cell { return Cell{Kind: KindString, Str: s} }

// String renders a Cell for text-mode table output.
func (c Cell) String() string {
	switch c.Kind {
	case KindEmpty:
		return ""
	case KindUnknown:
		return "?"
	case KindTimeRange:
		return fmt.Sprintf("[%d, %d]", c.RangeBegin, c.RangeEnd)
	case KindTimestamp:
		return fmt.Sprintf("%d", c.Timestamp)
	case KindDuration:
		return fmt.Sprintf("%.3fus", c.DurationMicros())
	case KindInteger:
		return fmt.Sprintf("%d", c.Integer)
	case KindIrq:
		kind := "soft"
		if c.IrqIsHard {
			kind = "hard"
		}
		return fmt.Sprintf("%s:%d:%s", kind, c.IrqNr, c.IrqName)
	case KindCpu:
		return fmt.Sprintf("cpu%d", c.Cpu)
	case KindString:
		return c.Str
	default:
		return ""
	}
}

// jsonCell is the explicit wire shape for a Cell, mirroring the teacher's
// convertXStructToProto style of naming every field rather than leaning on
// struct-tag reflection over the internal Cell layout.
type jsonCell struct {
	Kind string `json:"kind"`

	RangeBegin *tracedata.Timestamp `json:"rangeBegin,omitempty"`
	RangeEnd   *tracedata.Timestamp `json:"rangeEnd,omitempty"`
	Timestamp  *tracedata.Timestamp `json:"timestamp,omitempty"`
	DurationNS *uint64              `json:"durationNs,omitempty"`
	Integer    *uint64              `json:"integer,omitempty"`
	IrqIsHard  *bool                `json:"irqIsHard,omitempty"`
	IrqNr      *uint32              `json:"irqNr,omitempty"`
	IrqName    *string              `json:"irqName,omitempty"`
	Cpu        *uint32              `json:"cpu,omitempty"`
	Str        *string              `json:"str,omitempty"`
}

func (k CellKind) jsonName() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindUnknown:
		return "unknown"
	case KindTimeRange:
		return "timeRange"
	case KindTimestamp:
		return "timestamp"
	case KindDuration:
		return "duration"
	case KindInteger:
		return "integer"
	case KindIrq:
		return "irq"
	case KindCpu:
		return "cpu"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

func (c Cell) MarshalJSON() ([]byte, error) {
	jc := jsonCell{Kind: c.Kind.jsonName()}
	switch c.Kind {
	case KindTimeRange:
		jc.RangeBegin, jc.RangeEnd = &c.RangeBegin, &c.RangeEnd
	case KindTimestamp:
		jc.Timestamp = &c.Timestamp
	case KindDuration:
		jc.DurationNS = &c.DurationNS
	case KindInteger:
		jc.Integer = &c.Integer
	case KindIrq:
		jc.IrqIsHard, jc.IrqNr, jc.IrqName = &c.IrqIsHard, &c.IrqNr, &c.IrqName
	case KindCpu:
		jc.Cpu = &c.Cpu
	case KindString:
		jc.Str = &c.Str
	}
	return json.Marshal(jc)
}
