// Copyright 2024 The blockmark Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package blockmark

import "fmt"

// ParseInvariantError reports a violation of a block-parser invariant: an
// attempt to add a line to a closed container, or to open a child under a
// container that cannot contain it. It always indicates a bug in this
// package rather than malformed input -- no input is ever rejected outright
// (see the error handling design notes). Parse recovers it and returns it
// as its error; the exported tree methods (AppendChild, Unlink, Replace)
// panic with it directly.
type ParseInvariantError struct {
	Line    int
	Message string
}

func (e *ParseInvariantError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("blockmark: internal invariant violated at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("blockmark: internal invariant violated: %s", e.Message)
}

// DepthLimitError is returned by Parse when the container nesting depth
// exceeds Options.MaxDepth.
type DepthLimitError struct {
	Line  int
	Depth int
	Limit int
}

func (e *DepthLimitError) Error() string {
	return fmt.Sprintf("blockmark: line %d: container depth %d exceeds limit %d", e.Line, e.Depth, e.Limit)
}
