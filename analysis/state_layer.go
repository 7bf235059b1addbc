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
package analysis

import "github.com/google/traceperiods/tracedata"

// Notifier receives the higher-level notifications a StateLayer derives
// from raw trace events (spec.md §4.F). The Dispatcher implements this
// interface; a StateLayer calls back into it synchronously, from within
// IngestEvent, against the set of period instances open at the start of
// the current event.
type Notifier interface {
	HardIrqBegin(cpu uint32, irq uint32, name string, ts uint64)
	HardIrqEnd(cpu uint32, irq uint32, ts uint64)
	SoftIrqRaise(cpu uint32, irq uint32, name string, ts uint64)
	SoftIrqBegin(cpu uint32, irq uint32, name string, ts uint64)
	SoftIrqEnd(cpu uint32, irq uint32, ts uint64)
	SchedSwitchPerTid(cpu uint32, nextTid uint64, nextComm string, waker uint64, wakeupTS uint64, prio int64, ts uint64)
	PrioChanged(tid uint64, ts uint64, prio int64)
}

// StateLayer derives hard/soft-IRQ and scheduling notifications from the
// raw event stream. IngestEvent is called once per event, before the
// period engine's step, per spec.md §4.F item 4.
type StateLayer interface {
	IngestEvent(ev tracedata.Event, n Notifier)
}
