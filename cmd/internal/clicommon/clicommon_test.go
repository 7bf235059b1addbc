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
package clicommon

import (
	"bytes"
	"flag"
	"strings"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/google/traceperiods/results"
	"github.com/google/traceperiods/tracedata"
)

func newFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("fs.Parse: %v", err)
	}
	return f
}

func TestBuildOptionsParsesPeriodExpression(t *testing.T) {
	f := newFlags(t, `--period=:$evt.irq == 42`)
	opts, err := BuildOptions(f)
	if err != nil {
		t.Fatalf("BuildOptions: %v", err)
	}
	if len(opts) == 0 {
		t.Fatal("expected at least one option from a valid --period flag")
	}
}

func TestBuildOptionsRejectsMalformedPeriod(t *testing.T) {
	f := newFlags(t, `--period=:$evt.x ==`)
	_, err := BuildOptions(f)
	if err == nil {
		t.Fatal("expected an error for a malformed --period expression")
	}
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("error code = %v, want InvalidArgument", status.Code(err))
	}
}

func TestBuildOptionsRejectsBadIrqCSV(t *testing.T) {
	f := newFlags(t, `--irq=42,not-a-number`)
	if _, err := BuildOptions(f); err == nil {
		t.Fatal("expected an error for a non-numeric --irq entry")
	}
}

func TestBuildOptionsAppliesDurationRangeInMicros(t *testing.T) {
	f := newFlags(t, `--min=1`, `--max=2`)
	opts, err := BuildOptions(f)
	if err != nil {
		t.Fatalf("BuildOptions: %v", err)
	}
	if len(opts) != 1 {
		t.Fatalf("expected exactly one option from --min/--max, got %d", len(opts))
	}
}

func TestParseUint32CSV(t *testing.T) {
	got, err := parseUint32CSV(" 1, 2,3 ")
	if err != nil {
		t.Fatalf("parseUint32CSV: %v", err)
	}
	want := []uint32{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestParseUint32CSVEmpty(t *testing.T) {
	got, err := parseUint32CSV("")
	if err != nil {
		t.Fatalf("parseUint32CSV: %v", err)
	}
	if got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestReadEventsRoundTrip(t *testing.T) {
	ev := tracedata.NewEvent(100, "irq_handler_entry", 2).
		WithField(tracedata.AUTO, "irq", tracedata.IntValue(42)).
		WithField(tracedata.AUTO, "name", tracedata.StringValue("eth0"))
	data, err := ev.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}

	var got []tracedata.Event
	r := strings.NewReader(string(data) + "\n\n" + string(data) + "\n")
	if err := ReadEvents(r, func(e tracedata.Event) { got = append(got, e) }); err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadEvents decoded %d events, want 2 (blank lines must be skipped)", len(got))
	}
	if got[0].Name != "irq_handler_entry" || got[0].Timestamp != 100 {
		t.Errorf("got[0] = %+v", got[0])
	}
}

func TestReadEventsPropagatesDecodeError(t *testing.T) {
	r := strings.NewReader("not json\n")
	if err := ReadEvents(r, func(tracedata.Event) {}); err == nil {
		t.Fatal("expected a decode error for a malformed event line")
	}
}

func TestRenderTextOmitsEmptyClasses(t *testing.T) {
	var buf bytes.Buffer
	doc := results.NewDocument()
	if err := RenderText(&buf, doc); err != nil {
		t.Fatalf("RenderText: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output for a Document with no tables, got %q", buf.String())
	}
}
