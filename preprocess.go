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
	"bytes"

	"go4.org/bytereplacer"
)

// tabStopSize is the multiple of columns that a tab advances to.
// https://spec.commonmark.org/0.30/#tabs
const tabStopSize = 4

// nulReplacer performs the single required input sanitization pass: NUL
// bytes are invalid in the eventual text model and are replaced with the
// Unicode replacement character before any scanner sees the input.
var nulReplacer = bytereplacer.New("\x00", "�")

// splitLines splits source into lines on the \r\n, \n, and \r terminator
// alternation, after replacing NUL bytes. If source ends with a line
// terminator, the trailing empty line is suppressed. Each returned line
// retains its terminator (if any); callers that need the terminator
// stripped use trimEOL.
func splitLines(source []byte) [][]byte {
	source = nulReplacer.Replace(source)
	var lines [][]byte
	for len(source) > 0 {
		i := bytes.IndexAny(source, "\r\n")
		if i < 0 {
			lines = append(lines, source)
			break
		}
		end := i + 1
		if source[i] == '\r' && end < len(source) && source[end] == '\n' {
			end++
		}
		lines = append(lines, source[:end])
		source = source[end:]
	}
	return lines
}

// trimEOL returns line with any trailing \r\n, \n, or \r removed.
func trimEOL(line []byte) []byte {
	n := len(line)
	switch {
	case n >= 2 && line[n-2] == '\r' && line[n-1] == '\n':
		return line[:n-2]
	case n >= 1 && (line[n-1] == '\n' || line[n-1] == '\r'):
		return line[:n-1]
	default:
		return line
	}
}

// detab expands tabs in line to spaces, assuming a 4-column tab stop
// measured from the start of the line (not from the start of the tab): the
// column advanced to is the next multiple of tabStopSize from the current
// column, which is why this can't be a context-free per-tab substitution.
func detab(line []byte) []byte {
	if bytes.IndexByte(line, '\t') < 0 {
		return line
	}
	out := make([]byte, 0, len(line)+8)
	col := 0
	for _, b := range line {
		if b == '\t' {
			spaces := tabStopSize - col%tabStopSize
			for i := 0; i < spaces; i++ {
				out = append(out, ' ')
			}
			col += spaces
			continue
		}
		out = append(out, b)
		col++
	}
	return out
}

// isBlankLine reports whether line has no non-space/non-tab character
// (ignoring any trailing line terminator).
func isBlankLine(line []byte) bool {
	for _, b := range line {
		if !(b == ' ' || b == '\t' || b == '\r' || b == '\n') {
			return false
		}
	}
	return true
}
