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
package periodexpr

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MalformedExpressionError reports that Parse could not consume the whole
// of its input. No partial AST is ever returned alongside this error.
// GRPCStatus lets callers across a gRPC boundary (such as the teacher's
// server/ package, which this repo's errors are designed to interoperate
// with) recover the InvalidArgument code via status.FromError.
type MalformedExpressionError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *MalformedExpressionError) Error() string {
	return fmt.Sprintf("malformed period expression %q at offset %d: %s", e.Input, e.Pos, e.Msg)
}

// GRPCStatus implements the interface grpc/status.FromError recognizes.
func (e *MalformedExpressionError) GRPCStatus() *status.Status {
	return status.New(codes.InvalidArgument, e.Error())
}

// IllegalExpressionError reports a structural validation failure: a
// `$begin.`-qualified leaf on the begin side of a period, an Eq/Ne against
// EventName whose other operand isn't a string literal, or a logical node
// composing a bare leaf instead of a relational node.
type IllegalExpressionError struct {
	Reason string
	Node   Expression
}

func (e *IllegalExpressionError) Error() string {
	return fmt.Sprintf("illegal expression %q: %s", e.Node, e.Reason)
}

// GRPCStatus implements the interface grpc/status.FromError recognizes.
func (e *IllegalExpressionError) GRPCStatus() *status.Status {
	return status.New(codes.InvalidArgument, e.Error())
}
