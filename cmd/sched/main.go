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
// Command sched reports scheduler wakeup-latency statistics, per thread,
// over a decoded trace event stream (spec.md §6).
package main

import (
	"flag"
	"os"

	log "github.com/golang/glog"

	"github.com/google/traceperiods/analysis"
	"github.com/google/traceperiods/cmd/internal/clicommon"
	"github.com/google/traceperiods/replaystate"
	"github.com/google/traceperiods/tracedata"
)

func main() {
	flags := clicommon.RegisterFlags(flag.CommandLine)
	flag.Parse()

	opts, err := clicommon.BuildOptions(flags)
	if err != nil {
		log.Exitf("sched: %v", err)
	}

	r := replaystate.NewReplayer()
	d := analysis.NewDispatcher(r, opts...)

	in := os.Stdin
	if *flags.Events != "-" {
		f, err := os.Open(*flags.Events)
		if err != nil {
			log.Exitf("sched: opening %s: %v", *flags.Events, err)
		}
		defer f.Close()
		in = f
	}

	if err := clicommon.ReadEvents(in, func(ev tracedata.Event) { d.Ingest(ev) }); err != nil {
		log.Exitf("sched: reading events: %v", err)
	}

	doc := d.End()
	if err := clicommon.Render(os.Stdout, doc, *flags.JSON); err != nil {
		log.Exitf("sched: rendering results: %v", err)
	}
}
