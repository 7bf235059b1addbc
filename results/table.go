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
package results

import "encoding/json"

// Class names the five table kinds spec.md §4.H and §6 define.
type Class string

const (
	ClassLog         Class = "log"
	ClassStats       Class = "stats"
	ClassRaiseStats  Class = "raise-stats"
	ClassFreq        Class = "freq"
	ClassSummary     Class = "summary"
)

// Row is one append-only record: an ordered, named set of Cells.
type Row struct {
	Columns []string
	Cells   []Cell
}

// NewRow builds a Row from parallel column-name and Cell slices, in the
// declaration order callers use when materialising an aggregator.
func NewRow(columns []string, cells []Cell) Row {
	return Row{Columns: columns, Cells: cells}
}

// Table is an ordered, append-only list of Rows of one Class, scoped to
// one period instance's time range.
type Table struct {
	Class     Class
	TimeRange Cell // KindTimeRange, or KindEmpty for tables with no range
	Rows      []Row
}

func NewTable(class Class, timeRange Cell) *Table {
	return &Table{Class: class, TimeRange: timeRange}
}

func (t *Table) Append(r Row) { t.Rows = append(t.Rows, r) }

// jsonTable mirrors Table's wire shape explicitly, per the conversion style
// grounded in server/storage_proto_converters.go.
type jsonTable struct {
	Class     Class     `json:"class"`
	TimeRange Cell      `json:"timeRange"`
	Rows      []jsonRow `json:"rows"`
}

type jsonRow struct {
	Columns []string `json:"columns"`
	Cells   []Cell   `json:"cells"`
}

func (t *Table) toJSON() jsonTable {
	jt := jsonTable{Class: t.Class, TimeRange: t.TimeRange}
	for _, r := range t.Rows {
		jt.Rows = append(jt.Rows, jsonRow{Columns: r.Columns, Cells: r.Cells})
	}
	return jt
}

// MarshalJSON encodes t in its jsonTable wire shape.
func (t *Table) MarshalJSON() ([]byte, error) { return json.Marshal(t.toJSON()) }

// Document is the machine-interface payload spec.md §6 describes: result
// tables keyed by class.
type Document struct {
	Tables map[Class][]*Table
}

func NewDocument() *Document {
	return &Document{Tables: map[Class][]*Table{}}
}

func (d *Document) Add(t *Table) {
	d.Tables[t.Class] = append(d.Tables[t.Class], t)
}

// Summary builds the summary table: one {time_range, total_count} row per
// emitted stats table, in emission order, per spec.md §4.H.
func (d *Document) Summary() *Table {
	sum := NewTable(ClassSummary, EmptyCell())
	for _, t := range d.Tables[ClassStats] {
		var total uint64
		for _, row := range t.Rows {
			for i, col := range row.Columns {
				if col == "count" && row.Cells[i].Kind == KindInteger {
					total += row.Cells[i].Integer
				}
			}
		}
		sum.Append(NewRow(
			[]string{"time_range", "total_count"},
			[]Cell{t.TimeRange, IntegerCell(total)},
		))
	}
	return sum
}
