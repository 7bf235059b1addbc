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
// Command freq reports IRQ duration frequency distributions over a decoded
// trace event stream (spec.md §6). Passing --serve switches from printing
// to a small HTTP server exposing the same result tables as JSON, reusing
// server/server.go's mux.Router/JSON-response style; the CLI remains the
// default, scriptable surface.
package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"

	log "github.com/golang/glog"
	"github.com/gorilla/mux"

	"github.com/google/traceperiods/analysis"
	"github.com/google/traceperiods/cmd/internal/clicommon"
	"github.com/google/traceperiods/replaystate"
	"github.com/google/traceperiods/results"
	"github.com/google/traceperiods/tracedata"
)

var (
	serve    = flag.Bool("serve", false, "Serve the result tables over HTTP instead of printing them.")
	httpAddr = flag.String("http_addr", ":7403", "Address to listen on when --serve is set.")
)

func main() {
	flags := clicommon.RegisterFlags(flag.CommandLine)
	flag.Parse()

	opts, err := clicommon.BuildOptions(flags)
	if err != nil {
		log.Exitf("freq: %v", err)
	}
	if *flags.FreqResolution > 0 {
		opts = append(opts, analysis.FreqResolution(*flags.FreqResolution))
	}

	r := replaystate.NewReplayer()
	d := analysis.NewDispatcher(r, opts...)

	in := os.Stdin
	if *flags.Events != "-" {
		f, err := os.Open(*flags.Events)
		if err != nil {
			log.Exitf("freq: opening %s: %v", *flags.Events, err)
		}
		defer f.Close()
		in = f
	}

	if err := clicommon.ReadEvents(in, func(ev tracedata.Event) { d.Ingest(ev) }); err != nil {
		log.Exitf("freq: reading events: %v", err)
	}

	doc := d.End()

	if !*serve {
		if err := clicommon.Render(os.Stdout, doc, *flags.JSON); err != nil {
			log.Exitf("freq: rendering results: %v", err)
		}
		return
	}
	serveDocument(doc)
}

func serveDocument(doc *results.Document) {
	router := mux.NewRouter()
	router.HandleFunc("/tables", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(doc.Tables); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}).Methods("GET")
	router.HandleFunc("/tables/{class}", func(w http.ResponseWriter, req *http.Request) {
		class := results.Class(mux.Vars(req)["class"])
		tables, ok := doc.Tables[class]
		if !ok {
			http.Error(w, "no tables for class "+string(class), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(tables); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}).Methods("GET")

	log.Infof("freq: serving result tables on %s", *httpAddr)
	log.Exit(http.ListenAndServe(*httpAddr, router))
}
