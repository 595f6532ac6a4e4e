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
	"strings"
)

// Parse parses source as a CommonMark document and returns the root
// Document node. It never rejects input: any byte sequence, including
// one with no valid UTF-8, produces some tree. An error is returned only
// if an internal invariant is violated or the configured depth limit is
// exceeded; both are programming/resource-limit errors, not properties
// of the input text.
func Parse(source []byte, opts Options) (root *Node, err error) {
	timer := phaseTimer{enabled: opts.Time, w: opts.timeWriter()}
	p := newParser(opts)

	defer func() {
		if r := recover(); r != nil {
			root = nil
			switch e := r.(type) {
			case *ParseInvariantError:
				err = e
			case *DepthLimitError:
				err = e
			default:
				panic(r)
			}
		}
	}()

	var lines [][]byte
	timer.time("preparing input", func() {
		lines = splitLines(source)
	})

	timer.time("block parsing", func() {
		for _, raw := range lines {
			p.incorporateLine(raw)
		}
		p.finalizeUnmatched(deepestOpen(p.doc), nil)
	})

	timer.time("inline parsing", func() {
		ip := opts.inlineParser()
		Walk(p.doc, func(n *Node, entering bool) bool {
			if !entering && (n.Kind == ParagraphKind || n.Kind == HeaderKind) {
				ip.ParseInlines(n, p.refs)
			}
			return true
		})
	})

	return p.doc, nil
}

type parser struct {
	doc  *Node
	refs *ReferenceMap
	line int
	opts Options
}

func newParser(opts Options) *parser {
	doc := NewNode(documentKind)
	doc.Sourcepos.Start = Position{Line: 1, Col: 1}
	return &parser{doc: doc, refs: NewReferenceMap(), opts: opts}
}

// incorporateLine runs the four-phase algorithm for a single raw
// (terminator-included) input line.
func (p *parser) incorporateLine(raw []byte) {
	p.line++
	line := detab(trimEOL(raw))
	oldtip := deepestOpen(p.doc)
	cur := newCursor(line)

	// Phase 1: continuation. Descend from the root through every open
	// container/leaf whose continuation condition the line satisfies,
	// consuming each one's prefix from cur as we go.
	lastMatched, allMatched := p.descend(cur)

	// Phase 2: two-blank-line list break. A second consecutive blank
	// line inside a list ends the outermost enclosing list outright,
	// together with every list nested in it, even though an ordinary
	// blank line would otherwise just continue it.
	if isBlankLine(line) {
		if lst := outermostList(lastMatched); lst != nil {
			lst.listBlankStreak++
			if lst.listBlankStreak >= 2 {
				p.finalizeUnmatched(oldtip, lst.Parent)
				lastMatched, allMatched = lst.Parent, true
				oldtip = lst.Parent
			}
		}
	} else if lst := outermostList(lastMatched); lst != nil {
		lst.listBlankStreak = 0
	}

	// Lazy continuation: a non-blank line that fails to match deeper
	// than an open paragraph, but doesn't itself open a new (paragraph
	// interrupting) block, is absorbed as another line of that
	// paragraph without closing or opening anything.
	if !allMatched && oldtip.Kind == ParagraphKind && !cur.restBlank() {
		probe := *cur
		if p.openNewBlocksProbe(lastMatched, &probe) {
			// A real interrupting block starts here; fall through to
			// the ordinary close/open handling below.
		} else {
			oldtip.addLine(cur.rest())
			oldtip.LastLineBlank = false
			return
		}
	}

	p.finalizeUnmatched(oldtip, lastMatched)

	var openLeaf *Node
	parent := lastMatched
	if !lastMatched.Kind.IsContainer() {
		openLeaf = lastMatched
		parent = lastMatched.Parent
	}

	if openLeaf != nil && openLeaf.Kind == ParagraphKind && len(openLeaf.strings) == 1 && cur.indent() < 4 {
		if level := parseSetextUnderline(cur.rest()[cur.indent():]); level > 0 {
			p.convertToSetext(openLeaf, level)
			return
		}
	}

	// Phase 3 is skipped entirely when the last matched container is an
	// open code block (fenced or indented) or HTML block: its own closing condition is
	// checked in content dispatch below, and nothing can interrupt it --
	// a line that merely looks like a new block start (e.g. indented code
	// whose content happens to begin with "#") is still just content.
	var tip *Node
	if openLeaf != nil && (openLeaf.Kind == CodeBlockKind || openLeaf.Kind == HTMLBlockKind) {
		tip = openLeaf
	} else {
		tip = p.openNewBlocks(parent, cur, openLeaf)
	}
	p.dispatchContent(tip, cur, isBlankLine(line))
}

// deepestOpen walks the last-open-child chain from n to the actual
// current tip of the tree.
func deepestOpen(n *Node) *Node {
	for {
		child := lastOpenChild(n)
		if child == nil {
			return n
		}
		n = child
	}
}

func lastOpenChild(n *Node) *Node {
	if n.LastChild != nil && n.LastChild.Open {
		return n.LastChild
	}
	return nil
}

func outermostList(n *Node) *Node {
	var outer *Node
	for ; n != nil; n = n.Parent {
		if n.Kind == ListKind {
			outer = n
		}
	}
	return outer
}

func (p *parser) descend(cur *cursor) (lastMatched *Node, allMatched bool) {
	container := p.doc
	depth := 0
	for {
		child := lastOpenChild(container)
		if child == nil {
			return container, true
		}
		depth++
		if depth > p.opts.maxDepth() {
			panic(&DepthLimitError{Line: p.line, Depth: depth, Limit: p.opts.maxDepth()})
		}
		if !p.continues(child, cur) {
			return container, false
		}
		container = child
	}
}

// continues tests whether cur's line satisfies node's continuation
// condition, consuming node's prefix from cur if so. It never mutates
// the tree; the one exception is LastLineBlank, which continuation
// itself records on a Paragraph or HTMLBlock that a blank line just
// closed (such a node may never again be "tip" once closed) and on an
// indented CodeBlock that a blank line continues.
func (p *parser) continues(node *Node, cur *cursor) bool {
	switch node.Kind {
	case BlockQuoteKind:
		indent := cur.indent()
		if indent >= 4 {
			return false
		}
		rest := cur.rest()[indent:]
		if len(rest) == 0 || rest[0] != '>' {
			return false
		}
		cur.advance(indent + 1)
		if !cur.atEOL() && cur.rest()[0] == ' ' {
			cur.advance(1)
		}
		return true

	case ItemKind:
		if cur.restBlank() {
			return node.ChildCount() > 0
		}
		if cur.indent() >= node.itemIndent {
			cur.advance(node.itemIndent)
			return true
		}
		return false

	case ListKind:
		return true

	case ParagraphKind:
		if cur.restBlank() {
			node.LastLineBlank = true
			return false
		}
		return true

	case CodeBlockKind:
		if node.FenceLength > 0 {
			if parseCodeFenceClose(cur.rest(), node.FenceChar, node.FenceLength) {
				return true // the closing-fence detection itself happens in content dispatch
			}
			cur.advanceIndent(node.FenceOffset)
			return true
		}
		if cur.indent() >= 4 {
			cur.advance(4)
			return true
		}
		if cur.restBlank() {
			node.LastLineBlank = true
			return true
		}
		return false

	case HTMLBlockKind:
		if cur.restBlank() && htmlConditionEndsOnBlank(node.htmlCondition) {
			node.LastLineBlank = true
			return false
		}
		return true

	default:
		return false
	}
}

func htmlConditionEndsOnBlank(condIdx int) bool {
	return condIdx >= 5 // conditions 6 and 7, 0-based
}

// finalizeUnmatched closes every node from n up to (not including) stop,
// innermost first.
func (p *parser) finalizeUnmatched(n, stop *Node) {
	for n != nil && n != stop {
		next := n.Parent
		if n.Open {
			p.finalize(n)
		}
		n = next
	}
}

// openNewBlocksProbe reports, without mutating the tree, whether a new
// block would open at parent given cur -- used only to decide whether a
// line that fails to match down into an open paragraph should be treated
// as a lazy continuation of it or as a real interrupting block.
func (p *parser) openNewBlocksProbe(parent *Node, cur *cursor) bool {
	if !mightBeSpecial(cur.rest()) {
		return false
	}
	scratch := NewNode(parent.Kind)
	// Openers may close scratch and append to its parent instead (see
	// openChild), so scratch sits under a throwaway Document.
	NewNode(documentKind).AppendChild(scratch)
	for _, start := range blockStarts[1:] { // indented code can never interrupt a paragraph
		cc := *cur
		if start(p, scratch, &cc, true) != nil {
			return true
		}
	}
	return false
}

func (p *parser) convertToSetext(para *Node, level int) {
	para.Kind = HeaderKind
	para.HeaderLevel = level
	para.StringContent = strings.TrimSpace(joinLines(para.strings))
	para.strings = nil
	p.finalize(para)
}

type blockStart func(p *parser, parent *Node, cur *cursor, interruptParagraph bool) *Node

var blockStarts = []blockStart{
	startIndentedCode,
	startBlockQuote,
	startATXHeading,
	startFencedCode,
	startHTMLBlock,
	startThematicBreak,
	startListItem,
}

func (p *parser) openNewBlocks(parent *Node, cur *cursor, openLeaf *Node) *Node {
	interrupting := openLeaf != nil && openLeaf.Kind == ParagraphKind
	closed := false
	depth := depthOf(parent)
	for {
		depth++
		if depth > p.opts.maxDepth() {
			panic(&DepthLimitError{Line: p.line, Depth: depth, Limit: p.opts.maxDepth()})
		}
		// Indented code is the one opener not gated by the maybe-special
		// filter below: ordinary indented text has no distinguished first
		// character, unlike every other block starter (§4.C).
		opened := startIndentedCode(p, parent, cur, interrupting)
		if opened == nil && mightBeSpecial(cur.rest()) {
			for _, start := range blockStarts[1:] {
				if opened = start(p, parent, cur, interrupting); opened != nil {
					break
				}
			}
		}
		if opened == nil {
			break
		}
		if !closed && openLeaf != nil {
			p.finalize(openLeaf)
			closed = true
		}
		opened.Sourcepos.Start = Position{Line: p.line, Col: cur.pos + 1}
		parent = opened
		interrupting = false
		if !opened.Kind.IsContainer() {
			break
		}
	}
	if !closed && openLeaf != nil {
		return openLeaf
	}
	return parent
}

func depthOf(n *Node) int {
	d := 0
	for ; n != nil; n = n.Parent {
		d++
	}
	return d
}

// canContain reports whether a container of kind parent may hold a direct
// child of kind child, per the containment invariants in §3: a List holds
// only Items, while Document/BlockQuote/Item hold anything.
func canContain(parent, child NodeKind) bool {
	if parent == ListKind {
		return child == ItemKind
	}
	return parent.IsContainer()
}

// openChild appends child under the nearest ancestor of parent (inclusive)
// that canContain its kind, finalizing any container it has to close along
// the way. This mirrors the teacher's own addChild/openBlock, which walks
// up finalizing blocks until it finds one willing to hold the new child --
// without it, a thematic break or a new-style list marker arriving while a
// List (rather than one of its Items) is the last matched container would
// get appended directly under the List, violating the list/item invariant.
func (p *parser) openChild(parent, child *Node) *Node {
	for !canContain(parent.Kind, child.Kind) {
		next := parent.Parent
		p.finalize(parent)
		parent = next
	}
	parent.AppendChild(child)
	return parent
}

func startIndentedCode(p *parser, parent *Node, cur *cursor, interrupting bool) *Node {
	if interrupting {
		return nil
	}
	if cur.indent() < 4 || cur.restBlank() {
		return nil
	}
	cur.advance(4)
	node := NewNode(CodeBlockKind)
	p.openChild(parent, node)
	return node
}

func startBlockQuote(p *parser, parent *Node, cur *cursor, interrupting bool) *Node {
	indent := cur.indent()
	if indent >= 4 {
		return nil
	}
	rest := cur.rest()[indent:]
	if len(rest) == 0 || rest[0] != '>' {
		return nil
	}
	cur.advance(indent + 1)
	if !cur.atEOL() && cur.rest()[0] == ' ' {
		cur.advance(1)
	}
	node := NewNode(BlockQuoteKind)
	p.openChild(parent, node)
	return node
}

func startATXHeading(p *parser, parent *Node, cur *cursor, interrupting bool) *Node {
	indent := cur.indent()
	if indent >= 4 {
		return nil
	}
	h := parseATXHeading(cur.rest()[indent:])
	if h.level == 0 {
		return nil
	}
	cur.advance(len(cur.line) - cur.pos)
	node := NewNode(HeaderKind)
	node.HeaderLevel = h.level
	node.StringContent = string(h.content)
	node.Open = false
	node.Sourcepos.End = Position{Line: p.line, Col: cur.pos + 1}
	p.openChild(parent, node)
	return node
}

func startFencedCode(p *parser, parent *Node, cur *cursor, interrupting bool) *Node {
	indent := cur.indent()
	if indent >= 4 {
		return nil
	}
	f := parseCodeFence(cur.rest()[indent:])
	if f.char == 0 {
		return nil
	}
	node := NewNode(CodeBlockKind)
	node.FenceChar = f.char
	node.FenceLength = f.n
	node.FenceOffset = indent
	if f.info != nil {
		node.Info = unescapeInfoString(f.info)
	}
	cur.advance(len(cur.line) - cur.pos)
	p.openChild(parent, node)
	return node
}

func startHTMLBlock(p *parser, parent *Node, cur *cursor, interrupting bool) *Node {
	indent := cur.indent()
	if indent >= 4 {
		return nil
	}
	rest := cur.rest()[indent:]
	for idx, cond := range htmlBlockConditions {
		if interrupting && !cond.canInterruptParagraph {
			continue
		}
		if cond.start(rest) {
			node := NewNode(HTMLBlockKind)
			node.htmlCondition = idx
			// Leave cur.pos before the indent: the leading 0-3 spaces are
			// part of the block's first line, not a consumed prefix.
			p.openChild(parent, node)
			return node
		}
	}
	return nil
}

func startThematicBreak(p *parser, parent *Node, cur *cursor, interrupting bool) *Node {
	indent := cur.indent()
	if indent >= 4 {
		return nil
	}
	if parseThematicBreak(cur.rest()[indent:]) < 0 {
		return nil
	}
	cur.advance(len(cur.line) - cur.pos)
	node := NewNode(HorizontalRuleKind)
	node.Open = false
	node.Sourcepos.End = Position{Line: p.line, Col: cur.pos + 1}
	p.openChild(parent, node)
	return node
}

func startListItem(p *parser, parent *Node, cur *cursor, interrupting bool) *Node {
	indent := cur.indent()
	if indent >= 4 {
		return nil
	}
	rest := cur.rest()[indent:]
	m := parseListMarker(rest)
	if m.end < 0 {
		return nil
	}
	afterMarker := rest[m.end:]
	blankAfterMarker := isBlankLine(afterMarker)
	if interrupting {
		if m.isOrdered() && m.start != 1 {
			return nil
		}
		if blankAfterMarker {
			return nil
		}
	}

	padding := 1
	if !blankAfterMarker {
		spaces := 0
		for spaces < len(afterMarker) && afterMarker[spaces] == ' ' {
			spaces++
		}
		if spaces == 0 {
			return nil
		}
		if spaces <= 4 {
			padding = spaces
		}
	}

	data := ListData{
		BulletChar:   m.delim,
		Delimiter:    m.delim,
		Start:        m.start,
		Padding:      padding,
		MarkerOffset: indent,
		Tight:        true,
	}
	if m.isOrdered() {
		data.Type = OrderedList
		if data.Start == 0 {
			data.Start = 1
		}
	} else {
		data.Type = BulletList
	}

	list := compatibleOpenList(parent, data)
	if list == nil {
		list = NewNode(ListKind)
		list.ListData = data
		p.openChild(parent, list)
	}

	item := NewNode(ItemKind)
	item.ListData = data
	item.itemIndent = indent + m.end + padding
	list.AppendChild(item)

	cur.advance(indent + m.end + padding)
	return item
}

// compatibleOpenList returns parent itself if parent is already an open
// list whose marker type/delimiter matches data, so that a new item is
// added to it rather than starting a sibling list nested one level too
// deep. If parent isn't already such a list (because Phase 1 stopped
// short of it, or it was just closed earlier in this same line's
// processing), it returns nil and the caller opens a fresh List through
// openChild: under parent, or, when parent is itself a List, under the
// nearest ancestor that can hold it.
func compatibleOpenList(parent *Node, data ListData) *Node {
	if parent.Kind != ListKind || !parent.Open {
		return nil
	}
	if parent.ListData.Type != data.Type {
		return nil
	}
	if data.Type == BulletList && parent.ListData.BulletChar != data.BulletChar {
		return nil
	}
	if data.Type == OrderedList && parent.ListData.Delimiter != data.Delimiter {
		return nil
	}
	return parent
}

// dispatchContent appends the unconsumed remainder of the line (phase 4)
// to tip, the innermost node that the line belongs to, finalizing tip
// immediately if it is a single-line kind or if this line closes it.
func (p *parser) dispatchContent(tip *Node, cur *cursor, blank bool) {
	// A blank line never counts against tightness for these: a BlockQuote
	// or Header never itself renders as "ending in a blank line", a
	// fenced CodeBlock's interior blank lines are just code, and an Item
	// opened on this very line with nothing in it yet hasn't earned a
	// loose verdict by being blank.
	exempt := false
	switch tip.Kind {
	case BlockQuoteKind, HeaderKind:
		exempt = true
	case CodeBlockKind:
		exempt = tip.FenceLength > 0
	case ItemKind:
		exempt = tip.ChildCount() == 0 && tip.Sourcepos.Start.Line == p.line
	}

	switch tip.Kind {
	case HeaderKind, HorizontalRuleKind:
		// Self-contained at open time; nothing left to do.

	case ParagraphKind:
		tip.addLine(bytesTrimLeftSpace(cur.rest()))

	case CodeBlockKind:
		if tip.FenceLength > 0 {
			if tip.Sourcepos.Start.Line == p.line {
				// Opening fence line: the fence marker and info string
				// were already consumed when the block was opened: the
				// line itself contributes no literal content.
				break
			}
			if ind := cur.indent(); ind < 4 && parseCodeFenceClose(cur.rest()[ind:], tip.FenceChar, tip.FenceLength) {
				p.finalize(tip)
				return
			}
		}
		tip.addLine(cur.rest())

	case HTMLBlockKind:
		tip.addLine(cur.rest())
		if htmlBlockConditions[tip.htmlCondition].end(cur.rest()) {
			p.finalize(tip)
			return
		}

	default:
		// Pure container tip (List, Item, BlockQuote, Document): a line
		// whose unconsumed remainder is blank has no content of its own to
		// record. Any other line reaching here means no leaf matched or
		// opened for it, so it starts a fresh Paragraph child at the first
		// non-space column.
		if !cur.restBlank() {
			para := NewNode(ParagraphKind)
			para.Sourcepos.Start = Position{Line: p.line, Col: cur.pos + 1}
			// openChild may close tip (e.g. a List that can't hold a bare
			// Paragraph) and hand the child to an ancestor instead; tip is
			// reassigned to that ancestor below. The blank-line branch above
			// never reassigns tip, so the LastLineBlank write always lands
			// on blank's own container.
			tip = p.openChild(tip, para)
			para.addLine(bytesTrimLeftSpace(cur.rest()))
		}
	}

	tip.LastLineBlank = blank && !exempt
	for a := tip.Parent; a != nil; a = a.Parent {
		a.LastLineBlank = false
	}
}

func bytesTrimLeftSpace(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	return b[i:]
}

// finalize closes node: marks it no longer open, computes its derived
// content from the raw lines collected while it was open, and records
// its end position.
func (p *parser) finalize(node *Node) {
	if node.Sourcepos.closed() {
		panic(&ParseInvariantError{Line: p.line, Message: "finalize called twice on " + node.Kind.String() + " node"})
	}
	node.Open = false
	node.Sourcepos.End = Position{Line: p.line, Col: len(node.lastRawLine()) + 1}

	switch node.Kind {
	case ParagraphKind:
		p.finalizeParagraph(node)
	case CodeBlockKind:
		p.finalizeCodeBlock(node)
	case HTMLBlockKind:
		node.Literal = joinLines(node.strings)
		node.strings = nil
	case ListKind:
		p.finalizeList(node)
	case ItemKind:
		// Tightness is assigned by the parent List's finalize pass.
	}
}

// lastRawLine is a best-effort accessor used only for sourcepos bookkeeping.
func (n *Node) lastRawLine() []byte {
	if len(n.strings) == 0 {
		return nil
	}
	return n.strings[len(n.strings)-1]
}

func (p *parser) finalizeParagraph(node *Node) {
	content := joinLines(node.strings)
	node.strings = nil
	content = strings.TrimLeft(content, " \t\n")

	ip := p.opts.inlineParser()
	for len(content) > 0 && content[0] == '[' {
		n := ip.ParseReference(content, p.refs)
		if n <= 0 {
			break
		}
		content = strings.TrimLeft(content[n:], " \t\n")
	}

	content = strings.TrimRight(content, " \t\n")
	if content == "" {
		if node.Parent != nil {
			node.Unlink()
		}
		return
	}
	node.StringContent = content
}

func (p *parser) finalizeCodeBlock(node *Node) {
	lines := node.strings
	node.strings = nil
	if node.FenceLength == 0 {
		// Indented code: strip trailing blank lines.
		for len(lines) > 0 && isBlankLine(lines[len(lines)-1]) {
			lines = lines[:len(lines)-1]
		}
	}
	node.Literal = joinLines(lines)
	if len(lines) > 0 {
		node.Literal += "\n"
	}
}

func (p *parser) finalizeList(list *Node) {
	loose := false
outer:
	for item := list.FirstChild; item != nil; item = item.Next {
		for child := item.FirstChild; child != nil; child = child.Next {
			if child.LastLineBlank && (child.Next != nil || item.Next != nil) {
				loose = true
				break outer
			}
		}
	}
	list.ListData.Tight = !loose
	for item := list.FirstChild; item != nil; item = item.Next {
		item.ListData.Tight = !loose
		if item.Open {
			p.finalize(item)
		}
	}
}

func joinLines(lines [][]byte) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.Write(l)
	}
	return b.String()
}
