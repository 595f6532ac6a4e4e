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

import "bytes"

// indentLength returns the number of leading space/tab bytes in line.
func indentLength(line []byte) int {
	for i, b := range line {
		if b != ' ' && b != '\t' {
			return i
		}
	}
	return len(line)
}

// mightBeSpecial is the cheap first-character filter gating the expensive
// opening phase: a line whose first non-space character is none of these
// can't possibly start a new container or leaf.
func mightBeSpecial(line []byte) bool {
	i := indentLength(line)
	if i >= len(line) {
		return false
	}
	switch c := line[i]; {
	case c == '#' || c == '`' || c == '~' || c == '*' || c == '+' ||
		c == '_' || c == '=' || c == '<' || c == '>' || c == '-':
		return true
	case isASCIIDigit(c):
		return true
	default:
		return false
	}
}

func isASCIIDigit(c byte) bool { return '0' <= c && c <= '9' }

func isASCIILetter(c byte) bool {
	return 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z'
}

func hasBytePrefix(b []byte, prefix string) bool {
	return len(b) >= len(prefix) && string(b[:len(prefix)]) == prefix
}

// atxHeading describes a recognized ATX heading marker.
type atxHeading struct {
	level   int // 1..6, zero if no match
	content []byte
}

// parseATXHeading attempts to parse line (with leading indentation already
// stripped) as an ATX heading: 1-6 '#' followed by space, tab or EOL.
func parseATXHeading(line []byte) atxHeading {
	var h atxHeading
	for h.level < len(line) && line[h.level] == '#' {
		h.level++
	}
	if h.level == 0 || h.level > 6 {
		return atxHeading{}
	}

	i := h.level
	if i >= len(line) || line[i] == '\r' || line[i] == '\n' {
		h.content = line[i:i]
		return h
	}
	if line[i] != ' ' && line[i] != '\t' {
		return atxHeading{}
	}
	i++
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	start := i

	// Find the end of the content, trimming trailing spaces/tabs and then
	// an optional closing sequence of '#' (itself preceded by whitespace).
	end := len(line)
	hitHash := false
scanBack:
	for ; end > start; end-- {
		switch line[end-1] {
		case '\r', '\n':
			// Skip.
		case ' ', '\t':
			if isEndEscaped(line[:end-1]) {
				break scanBack
			}
		case '#':
			hitHash = true
			break scanBack
		default:
			break scanBack
		}
	}
	if !hitHash {
		h.content = line[start:end]
		return h
	}

scanHashes:
	for j := end - 1; ; j-- {
		if j <= start {
			end = start
			break
		}
		switch line[j] {
		case '#':
			// Keep going.
		case ' ', '\t':
			end = j + 1
			break scanHashes
		default:
			h.content = line[start:end]
			return h
		}
	}
	for ; end > start; end-- {
		if b := line[end-1]; !(b == ' ' || b == '\t') || isEndEscaped(line[:end-1]) {
			break
		}
	}
	h.content = line[start:end]
	return h
}

// codeFence describes a recognized code fence marker.
type codeFence struct {
	char byte // '`' or '~'; zero if no match
	n    int
	info []byte // nil if absent
}

// parseCodeFence attempts to parse a code fence at the start of line.
func parseCodeFence(line []byte) codeFence {
	const minRun = 3
	if len(line) < minRun || (line[0] != '`' && line[0] != '~') {
		return codeFence{}
	}
	f := codeFence{char: line[0], n: 1}
	for f.n < len(line) && line[f.n] == f.char {
		f.n++
	}
	if f.n < minRun {
		return codeFence{}
	}
	rest := bytes.TrimLeft(line[f.n:], " \t")
	rest = bytes.TrimRight(rest, " \t\r\n")
	if len(rest) > 0 {
		if bytes.IndexByte(rest, f.char) >= 0 {
			// An info string may not contain the fence character.
			return codeFence{}
		}
		f.info = rest
	}
	return f
}

// parseCodeFenceClose reports whether line, already known to be inside a
// fenced code block with the given opening char/length, closes that fence.
func parseCodeFenceClose(line []byte, openChar byte, openLen int) bool {
	f := parseCodeFence(line)
	return f.n > 0 && f.char == openChar && f.n >= openLen && f.info == nil
}

// parseSetextUnderline returns the heading level (1 for '=', 2 for '-') if
// line is a setext underline, or 0 otherwise.
func parseSetextUnderline(line []byte) int {
	if len(line) == 0 {
		return 0
	}
	var level int
	switch line[0] {
	case '=':
		level = 1
	case '-':
		level = 2
	default:
		return 0
	}
	for i := 1; i < len(line); i++ {
		if line[i] == line[0] {
			continue
		}
		if isBlankLine(line[i:]) {
			return level
		}
		return 0
	}
	return level
}

// parseThematicBreak returns the end offset of a thematic break's marker
// run, or -1 if line (with indentation stripped) isn't one: three or more
// of the same '*', '_' or '-' separated only by spaces/tabs.
func parseThematicBreak(line []byte) int {
	n := 0
	var want byte
	end := -1
	for i, b := range line {
		switch b {
		case '-', '_', '*':
			if n == 0 {
				want = b
			} else if b != want {
				return -1
			}
			n++
			end = i + 1
		case ' ', '\t', '\r', '\n':
			// Ignore.
		default:
			return -1
		}
	}
	if n < 3 {
		return -1
	}
	return end
}

// listMarker describes a recognized bullet or ordered list marker.
type listMarker struct {
	end   int // index just past the marker+delimiter; -1 if no match
	delim byte
	start int // ordered-list start number
}

func (m listMarker) isOrdered() bool { return m.delim == '.' || m.delim == ')' }

// parseListMarker attempts to parse a list marker at the start of line.
func parseListMarker(line []byte) listMarker {
	if len(line) == 0 {
		return listMarker{end: -1}
	}
	switch c := line[0]; {
	case c == '-' || c == '+' || c == '*':
		if !spaceTabOrEOL(line[1:]) {
			return listMarker{end: -1}
		}
		return listMarker{delim: c, end: 1}
	case isASCIIDigit(c):
		n := int(c - '0')
		const maxDigits = 9
		for i := 1; i < maxDigits+1 && i < len(line); i++ {
			switch d := line[i]; {
			case isASCIIDigit(d):
				n = n*10 + int(d-'0')
			case d == '.' || d == ')':
				if !spaceTabOrEOL(line[i+1:]) {
					return listMarker{end: -1}
				}
				return listMarker{delim: d, start: n, end: i + 1}
			default:
				return listMarker{end: -1}
			}
		}
		return listMarker{end: -1}
	default:
		return listMarker{end: -1}
	}
}

func spaceTabOrEOL(rest []byte) bool {
	return len(rest) == 0 || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\r' || rest[0] == '\n'
}

// isEndEscaped reports whether s ends in an odd number of backslashes, i.e.
// whether its final character is backslash-escaped.
func isEndEscaped(s []byte) bool {
	n := 0
	for n < len(s) && s[len(s)-n-1] == '\\' {
		n++
	}
	return n%2 == 1
}

// unescapeInfoString performs the minimal backslash-unescaping required of
// a fenced code block's info string: a backslash followed by any byte
// becomes that byte.
func unescapeInfoString(s []byte) string {
	if bytes.IndexByte(s, '\\') < 0 {
		return string(s)
	}
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		out = append(out, s[i])
	}
	return string(out)
}
