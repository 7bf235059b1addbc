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
// Package clicommon holds the flag declarations, period-list parsing, event
// source reading, and table rendering shared by cmd/irq, cmd/sched, and
// cmd/freq, the way server/server.go shares one flag set and handler
// registration style across its own endpoints.
package clicommon

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"flag"

	"github.com/google/traceperiods/analysis"
	"github.com/google/traceperiods/period"
	"github.com/google/traceperiods/periodexpr"
	"github.com/google/traceperiods/results"
	"github.com/google/traceperiods/tracedata"
)

// Flags is the CLI surface spec.md §6 describes, common to all three
// entry points.
type Flags struct {
	Log            *bool
	Stats          *bool
	Freq           *bool
	FreqResolution *int
	MinUS          *int64
	MaxUS          *int64
	Irq            *string
	SoftIrq        *string
	GMT            *bool
	MultiDay       *bool
	Period         periodList
	Refresh        *uint64
	Begin          *uint64
	End            *uint64
	Events         *string
	JSON           *bool
}

// periodList accumulates repeated `--period` flag occurrences, the way
// flag.Value implementations conventionally do for repeatable string flags.
type periodList []string

func (p *periodList) String() string { return strings.Join(*p, ",") }
func (p *periodList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

// RegisterFlags declares the shared flag set on the given FlagSet (usually
// flag.CommandLine), mirroring server/server.go's flag.Int/flag.String
// declaration style.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{
		Log:            fs.Bool("log", false, "Accepted but not consulted: the log table is emitted whenever a period records log rows."),
		Stats:          fs.Bool("stats", true, "Accepted but not consulted: stats tables are emitted whenever a period has credited samples."),
		Freq:           fs.Bool("freq", false, "Emit the frequency-distribution table."),
		FreqResolution: fs.Int("freq-resolution", 20, "Number of bins in the frequency-distribution table."),
		MinUS:          fs.Int64("min", 0, "Minimum duration, in microseconds, to include in stats."),
		MaxUS:          fs.Int64("max", 0, "Maximum duration, in microseconds, to include in stats. 0 means unbounded."),
		Irq:            fs.String("irq", "", "Comma-separated list of hard IRQ numbers to restrict stats to."),
		SoftIrq:        fs.String("softirq", "", "Comma-separated list of soft IRQ (vec) numbers to restrict stats to."),
		GMT:            fs.Bool("gmt", false, "Accepted but not consulted: timestamps are always rendered as raw nanosecond values."),
		MultiDay:       fs.Bool("multi-day", false, "Accepted but not consulted: timestamps are always rendered as raw nanosecond values."),
		Refresh:        fs.Uint64("refresh", 0, "Refresh period, in nanoseconds. 0 disables refresh rotation."),
		Begin:          fs.Uint64("begin", 0, "Only analyse events at or after this timestamp, in nanoseconds."),
		End:            fs.Uint64("end", 0, "Stop analysis once an event's timestamp exceeds this value. 0 means unbounded."),
		Events:         fs.String("events", "-", "Path to a newline-delimited decoded-event JSON file, or \"-\" for stdin."),
		JSON:           fs.Bool("json", false, "Emit result tables as JSON (the machine interface) instead of plain text."),
	}
	fs.Var(&f.Period, "period", "A period expression (spec.md §6 grammar). May be repeated.")
	return f
}

func parseUint32CSV(csv string) ([]uint32, error) {
	if csv == "" {
		return nil, nil
	}
	var out []uint32
	for _, tok := range strings.Split(csv, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := strconv.ParseUint(tok, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", tok, err)
		}
		out = append(out, uint32(v))
	}
	return out, nil
}

// BuildOptions translates Flags into analysis.Options, parsing each
// `--period` expression with periodexpr.Parse/period.FromParsed. A
// malformed or illegal period expression is returned as an error a caller
// should treat as fatal (exit non-zero), per spec.md §7.
func BuildOptions(f *Flags) ([]analysis.Option, error) {
	var opts []analysis.Option

	if *f.Begin > 0 {
		opts = append(opts, analysis.BeginTimestamp(tracedata.Timestamp(*f.Begin)))
	}
	if *f.End > 0 {
		opts = append(opts, analysis.EndTimestamp(tracedata.Timestamp(*f.End)))
	}
	if *f.Refresh > 0 {
		opts = append(opts, analysis.RefreshPeriod(*f.Refresh))
	}
	minNS := uint64(0)
	if *f.MinUS > 0 {
		minNS = uint64(*f.MinUS) * 1000
	}
	maxNS := uint64(0)
	if *f.MaxUS > 0 {
		maxNS = uint64(*f.MaxUS) * 1000
	}
	if minNS > 0 || maxNS > 0 {
		opts = append(opts, analysis.DurationRange(minNS, maxNS))
	}
	if *f.Freq {
		opts = append(opts, analysis.FreqResolution(*f.FreqResolution))
	}

	hardIrqs, err := parseUint32CSV(*f.Irq)
	if err != nil {
		return nil, err
	}
	if len(hardIrqs) > 0 {
		opts = append(opts, analysis.IrqFilter(hardIrqs...))
	}
	softIrqs, err := parseUint32CSV(*f.SoftIrq)
	if err != nil {
		return nil, err
	}
	if len(softIrqs) > 0 {
		opts = append(opts, analysis.SoftIrqFilter(softIrqs...))
	}

	var defs []*period.Definition
	for _, expr := range f.Period {
		parsed, err := periodexpr.Parse(expr)
		if err != nil {
			return nil, err
		}
		def, err := period.FromParsed(parsed)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if len(defs) > 0 {
		opts = append(opts, analysis.Periods(defs...))
	}

	return opts, nil
}

// ReadEvents decodes one tracedata.Event per non-empty line of r (each line
// a JSON object per tracedata.Event's MarshalJSON/UnmarshalJSON), calling
// ingest for each in order. Decoding the raw trace format itself is out of
// scope (spec.md §1); this is the minimal contract cmd/* needs from an
// upstream decoder.
func ReadEvents(r io.Reader, ingest func(tracedata.Event)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev tracedata.Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return fmt.Errorf("event line %d: %w", lineNo, err)
		}
		ingest(ev)
	}
	return scanner.Err()
}

// Render writes doc as JSON when jsonMode is set (the §6 machine interface),
// or as plain text (see RenderText) otherwise.
func Render(w io.Writer, doc *results.Document, jsonMode bool) error {
	if jsonMode {
		return RenderJSON(w, doc)
	}
	return RenderText(w, doc)
}

// RenderJSON writes doc as the §6 machine-interface JSON object, keyed by
// table class.
func RenderJSON(w io.Writer, doc *results.Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc.Tables)
}

// RenderText writes doc as plain text, in the fixed class order spec.md
// §4.H lists: each table gets a "== class" header line, an optional time
// range line, and one line of col=value pairs per row. It draws no borders
// and no bar charts.
func RenderText(w io.Writer, doc *results.Document) error {
	order := []results.Class{results.ClassLog, results.ClassStats, results.ClassRaiseStats, results.ClassFreq, results.ClassSummary}
	for _, class := range order {
		tables := doc.Tables[class]
		for i, tbl := range tables {
			fmt.Fprintf(w, "== %s", class)
			if len(tables) > 1 {
				fmt.Fprintf(w, " [%d]", i)
			}
			fmt.Fprintln(w)
			if tbl.TimeRange.Kind == results.KindTimeRange {
				fmt.Fprintf(w, "time range: %s\n", tbl.TimeRange)
			}
			for _, row := range tbl.Rows {
				var cells []string
				for i, col := range row.Columns {
					cells = append(cells, fmt.Sprintf("%s=%s", col, row.Cells[i]))
				}
				fmt.Fprintln(w, strings.Join(cells, "  "))
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}
