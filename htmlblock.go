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
	"strings"

	"golang.org/x/net/html/atom"
)

// htmlBlockCondition is one of the seven CommonMark HTML block start/end
// condition pairs. The condition's 0-based index into htmlBlockConditions
// is recorded on the Node (htmlCondition) so the matching end condition
// can be looked back up during the continuation and content phases.
type htmlBlockCondition struct {
	start                 func(line []byte) bool
	end                   func(line []byte) bool
	canInterruptParagraph bool
}

// htmlBlockConditions implements the CommonMark HTML block start
// conditions 1-7, in priority order. Conditions 1-5 end on a specific
// pattern appearing anywhere on a (possibly later) line; conditions 6-7
// end on the next blank line.
var htmlBlockConditions = []htmlBlockCondition{
	{ // 1: <script>, <pre>, <style>, <textarea>
		start: func(line []byte) bool {
			for _, starter := range htmlCondition1Starters {
				if hasCaseInsensitivePrefix(line, starter) {
					rest := line[len(starter):]
					if len(rest) == 0 || isSpaceTabOrEOL(rest[0]) || rest[0] == '>' {
						return true
					}
				}
			}
			return false
		},
		end: func(line []byte) bool {
			for _, ender := range htmlCondition1Enders {
				if containsCaseInsensitive(line, ender) {
					return true
				}
			}
			return false
		},
		canInterruptParagraph: true,
	},
	{ // 2: <!-- comment -->
		start:                 func(line []byte) bool { return hasBytePrefix(line, "<!--") },
		end:                   func(line []byte) bool { return bytes.Contains(line, []byte("-->")) },
		canInterruptParagraph: true,
	},
	{ // 3: <? processing instruction ?>
		start:                 func(line []byte) bool { return hasBytePrefix(line, "<?") },
		end:                   func(line []byte) bool { return bytes.Contains(line, []byte("?>")) },
		canInterruptParagraph: true,
	},
	{ // 4: <!DECLARATION
		start: func(line []byte) bool {
			return hasBytePrefix(line, "<!") && len(line) >= 3 && isASCIILetter(line[2])
		},
		end:                   func(line []byte) bool { return bytes.IndexByte(line, '>') >= 0 },
		canInterruptParagraph: true,
	},
	{ // 5: <![CDATA[
		start:                 func(line []byte) bool { return hasBytePrefix(line, "<![CDATA[") },
		end:                   func(line []byte) bool { return bytes.Contains(line, []byte("]]>")) },
		canInterruptParagraph: true,
	},
	{ // 6: a block-level tag name, open or close, as the start of the line
		start: func(line []byte) bool {
			rest := line
			switch {
			case hasBytePrefix(rest, "</"):
				rest = rest[2:]
			case hasBytePrefix(rest, "<"):
				rest = rest[1:]
			default:
				return false
			}
			for _, name := range htmlCondition6TagNames {
				if hasCaseInsensitivePrefix(rest, name) {
					after := rest[len(name):]
					if len(after) == 0 || isSpaceTabOrEOL(after[0]) || after[0] == '>' || hasBytePrefix(after, "/>") {
						return true
					}
				}
			}
			return false
		},
		end:                   isBlankLine,
		canInterruptParagraph: true,
	},
	{ // 7: any other complete open or closing tag, alone on its line
		start: func(line []byte) bool {
			if !hasBytePrefix(line, "<") {
				return false
			}
			var end int
			if hasBytePrefix(line, "</") {
				end = scanHTMLClosingTag(line)
			} else {
				end = scanHTMLOpenTag(line)
			}
			if end < 0 {
				return false
			}
			return isBlankLine(line[end:])
		},
		end:                   isBlankLine,
		canInterruptParagraph: false,
	},
}

func isSpaceTabOrEOL(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// scanHTMLOpenTag attempts to scan a complete HTML open tag, starting with
// its '<' at index 0 of line, returning the index just past the closing
// '>' or -1 if line doesn't start with one.
func scanHTMLOpenTag(line []byte) int {
	i := 1 // skip '<'
	nameStart := i
	for i < len(line) && isASCIILetter(line[i]) {
		i++
	}
	if i == nameStart {
		return -1
	}
	for i < len(line) && (isASCIILetter(line[i]) || isASCIIDigit(line[i]) || line[i] == '-') {
		i++
	}
	for {
		before := i
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= len(line) {
			return -1
		}
		switch line[i] {
		case '/':
			i++
			if i < len(line) && line[i] == '>' {
				return i + 1
			}
			return -1
		case '>':
			return i + 1
		}
		if i == before {
			return -1
		}
		n, ok := scanHTMLAttribute(line[i:])
		if !ok {
			return -1
		}
		i += n
	}
}

// scanHTMLAttribute scans a single HTML attribute (name, and optional
// ="value") at the start of b, returning how many bytes it consumed.
func scanHTMLAttribute(b []byte) (n int, ok bool) {
	if len(b) == 0 {
		return 0, false
	}
	c := b[0]
	if !isASCIILetter(c) && c != '_' && c != ':' {
		return 0, false
	}
	i := 1
	for i < len(b) && (isASCIILetter(b[i]) || isASCIIDigit(b[i]) || strings.IndexByte("_.:-", b[i]) >= 0) {
		i++
	}
	j := i
	for j < len(b) && (b[j] == ' ' || b[j] == '\t') {
		j++
	}
	if j >= len(b) || b[j] != '=' {
		return i, true
	}
	j++
	for j < len(b) && (b[j] == ' ' || b[j] == '\t') {
		j++
	}
	if j >= len(b) {
		return 0, false
	}
	switch b[j] {
	case '\'':
		k := bytes.IndexByte(b[j+1:], '\'')
		if k < 0 {
			return 0, false
		}
		return j + 1 + k + 1, true
	case '"':
		k := bytes.IndexByte(b[j+1:], '"')
		if k < 0 {
			return 0, false
		}
		return j + 1 + k + 1, true
	default:
		k := j
		for k < len(b) && !isSpaceTabOrEOL(b[k]) && strings.IndexByte("\"'=<>`", b[k]) < 0 {
			k++
		}
		if k == j {
			return 0, false
		}
		return k, true
	}
}

// scanHTMLClosingTag attempts to scan a complete HTML closing tag at the
// start of line, returning the index just past '>' or -1.
func scanHTMLClosingTag(line []byte) int {
	if !hasBytePrefix(line, "</") {
		return -1
	}
	i := 2
	nameStart := i
	for i < len(line) && isASCIILetter(line[i]) {
		i++
	}
	if i == nameStart {
		return -1
	}
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	if i >= len(line) || line[i] != '>' {
		return -1
	}
	return i + 1
}

func hasCaseInsensitivePrefix(b []byte, prefix string) bool {
	if len(b) < len(prefix) {
		return false
	}
	return strings.EqualFold(string(b[:len(prefix)]), prefix)
}

func containsCaseInsensitive(b []byte, needle string) bool {
	return bytes.Contains(bytes.ToLower(b), []byte(strings.ToLower(needle)))
}

var htmlCondition1Starters = []string{"<pre", "<script", "<style", "<textarea"}
var htmlCondition1Enders = []string{"</pre>", "</script>", "</style>", "</textarea>"}

// htmlCondition6TagNames is the fixed block-level tag set from the
// glossary, resolved through golang.org/x/net/html/atom so that matching
// is a table lookup rather than a chain of string comparisons.
var htmlCondition6TagNames = atomStrings(
	atom.Article, atom.Header, atom.Aside, atom.Hgroup, atom.Iframe,
	atom.Blockquote, atom.Hr, atom.Body, atom.Li, atom.Map, atom.Button,
	atom.Object, atom.Canvas, atom.Ol, atom.Caption, atom.Output, atom.Col,
	atom.P, atom.Colgroup, atom.Pre, atom.Dd, atom.Progress, atom.Div,
	atom.Section, atom.Dl, atom.Table, atom.Td, atom.Dt, atom.Tbody,
	atom.Embed, atom.Textarea, atom.Fieldset, atom.Tfoot, atom.Figcaption,
	atom.Th, atom.Figure, atom.Thead, atom.Footer, atom.Tr, atom.Form,
	atom.Ul, atom.Video, atom.Script, atom.Style,
	atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
)

func atomStrings(atoms ...atom.Atom) []string {
	out := make([]string, len(atoms))
	for i, a := range atoms {
		out[i] = a.String()
	}
	return out
}
