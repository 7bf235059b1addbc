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
// Package testhelpers contains helpers shared by this repo's tests.
package testhelpers

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/google/traceperiods/tracedata"
)

// DiffEvents compares two decoded events via their canonical, field-sorted
// String() rendering, generalizing the teacher's DiffProto (which compared
// two proto.Messages by string representation plus proto.Equal) now that no
// generated proto package is carried (spec.md §1 drops raw trace decoding,
// and with it EventSet/proto) and Event is a plain struct with an
// unexported field map that cmp cannot reach from outside tracedata.
func DiffEvents(t *testing.T, want, got tracedata.Event) (diff string, equal bool) {
	t.Helper()
	diff = cmp.Diff(want.String(), got.String())
	return diff, diff == ""
}
