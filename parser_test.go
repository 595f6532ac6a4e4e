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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// treeDesc is a structural, position-free description of a parsed tree
// used to compare expected and actual shapes without hand-writing full
// Node literals in every test.
type treeDesc struct {
	Kind     NodeKind
	Level    int    // Header
	Content  string // Paragraph, Header
	Literal  string // CodeBlock, HTMLBlock
	Info     string
	Tight    bool
	IsList   bool // distinguishes a deliberately-set Tight=false from unset
	Children []treeDesc
}

func describe(n *Node) treeDesc {
	d := treeDesc{
		Kind:    n.Kind,
		Level:   n.HeaderLevel,
		Content: n.StringContent,
		Literal: n.Literal,
		Info:    n.Info,
	}
	if n.Kind == ListKind {
		d.IsList = true
		d.Tight = n.ListData.Tight
	}
	for c := n.FirstChild; c != nil; c = c.Next {
		d.Children = append(d.Children, describe(c))
	}
	return d
}

func mustParse(t *testing.T, src string) *Node {
	t.Helper()
	root, err := Parse([]byte(src), Options{})
	require.NoError(t, err)
	return root
}

func diffTree(t *testing.T, root *Node, want treeDesc) {
	t.Helper()
	want.Kind = documentKind
	got := describe(root)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestEndToEndATXHeading(t *testing.T) {
	root := mustParse(t, "# hi\n")
	diffTree(t, root, treeDesc{
		Children: []treeDesc{
			{Kind: HeaderKind, Level: 1, Content: "hi"},
		},
	})
}

func TestEndToEndBlockQuoteParagraph(t *testing.T) {
	root := mustParse(t, "> a\n> b\n")
	diffTree(t, root, treeDesc{
		Children: []treeDesc{
			{Kind: BlockQuoteKind, Children: []treeDesc{
				{Kind: ParagraphKind, Content: "a\nb"},
			}},
		},
	})
}

func TestEndToEndLooseList(t *testing.T) {
	root := mustParse(t, "- x\n- y\n\n- z\n")
	diffTree(t, root, treeDesc{
		Children: []treeDesc{
			{Kind: ListKind, IsList: true, Tight: false, Children: []treeDesc{
				{Kind: ItemKind, Children: []treeDesc{{Kind: ParagraphKind, Content: "x"}}},
				{Kind: ItemKind, Children: []treeDesc{{Kind: ParagraphKind, Content: "y"}}},
				{Kind: ItemKind, Children: []treeDesc{{Kind: ParagraphKind, Content: "z"}}},
			}},
		},
	})
}

func TestEndToEndFencedCodeBlock(t *testing.T) {
	root := mustParse(t, "```\ncode\n```\n")
	diffTree(t, root, treeDesc{
		Children: []treeDesc{
			{Kind: CodeBlockKind, Info: "", Literal: "code\n"},
		},
	})
	cb := root.FirstChild
	require.Equal(t, 3, cb.FenceLength)
}

func TestEndToEndSetextConversion(t *testing.T) {
	root := mustParse(t, "para\n===\n")
	diffTree(t, root, treeDesc{
		Children: []treeDesc{
			{Kind: HeaderKind, Level: 1, Content: "para"},
		},
	})
}

func TestEndToEndTwoBlankLinesBreakList(t *testing.T) {
	root := mustParse(t, "a\n\n\n- x\n- y\n\n\nb\n")
	diffTree(t, root, treeDesc{
		Children: []treeDesc{
			{Kind: ParagraphKind, Content: "a"},
			{Kind: ListKind, IsList: true, Tight: true, Children: []treeDesc{
				{Kind: ItemKind, Children: []treeDesc{{Kind: ParagraphKind, Content: "x"}}},
				{Kind: ItemKind, Children: []treeDesc{{Kind: ParagraphKind, Content: "y"}}},
			}},
			{Kind: ParagraphKind, Content: "b"},
		},
	})
}

func TestBoundaryEmptyInput(t *testing.T) {
	root := mustParse(t, "")
	require.Nil(t, root.FirstChild)
}

func TestBoundarySingleNewline(t *testing.T) {
	root := mustParse(t, "\n")
	require.Nil(t, root.FirstChild)
}

func TestBoundaryNoTrailingNewline(t *testing.T) {
	root := mustParse(t, "plain text")
	diffTree(t, root, treeDesc{
		Children: []treeDesc{{Kind: ParagraphKind, Content: "plain text"}},
	})
}

func TestBoundaryNULReplaced(t *testing.T) {
	root := mustParse(t, "a\x00b\n")
	diffTree(t, root, treeDesc{
		Children: []treeDesc{{Kind: ParagraphKind, Content: "a�b"}},
	})
}

func TestLazyParagraphContinuationInBlockQuote(t *testing.T) {
	// The second line has no leading '>' but lazily continues the
	// paragraph inside the block quote per the Glossary definition.
	root := mustParse(t, "> a\nb\n")
	diffTree(t, root, treeDesc{
		Children: []treeDesc{
			{Kind: BlockQuoteKind, Children: []treeDesc{
				{Kind: ParagraphKind, Content: "a\nb"},
			}},
		},
	})
}

func TestIndentedCodeCannotInterruptParagraph(t *testing.T) {
	root := mustParse(t, "foo\n    bar\n")
	diffTree(t, root, treeDesc{
		Children: []treeDesc{{Kind: ParagraphKind, Content: "foo\nbar"}},
	})
}

func TestIndentedCodeBlock(t *testing.T) {
	root := mustParse(t, "    code line\n")
	diffTree(t, root, treeDesc{
		Children: []treeDesc{{Kind: CodeBlockKind, Literal: "code line\n"}},
	})
}

func TestThematicBreak(t *testing.T) {
	root := mustParse(t, "---\n")
	diffTree(t, root, treeDesc{
		Children: []treeDesc{{Kind: HorizontalRuleKind}},
	})
}

func TestThematicBreakClosesEnclosingList(t *testing.T) {
	// "- - -" matches a thematic break, which takes priority over a list
	// marker (§4.D phase 3): it closes the open list rather than becoming
	// part of (or a sibling item within) it.
	root := mustParse(t, "- foo\n- - -\n")
	diffTree(t, root, treeDesc{
		Children: []treeDesc{
			{Kind: ListKind, IsList: true, Tight: true, Children: []treeDesc{
				{Kind: ItemKind, Children: []treeDesc{{Kind: ParagraphKind, Content: "foo"}}},
			}},
			{Kind: HorizontalRuleKind},
		},
	})
}

func TestIncompatibleBulletStartsNewSiblingList(t *testing.T) {
	// A change in bullet character starts a new List as a sibling, not a
	// child, of the first: a List can never directly contain another List.
	root := mustParse(t, "- a\n* b\n")
	doc := root
	require.Equal(t, 2, doc.ChildCount())
	first, second := doc.FirstChild, doc.FirstChild.Next
	require.Equal(t, ListKind, first.Kind)
	require.Equal(t, ListKind, second.Kind)
	require.Equal(t, byte('-'), first.ListData.BulletChar)
	require.Equal(t, byte('*'), second.ListData.BulletChar)
}

func TestOrderedListStartNumber(t *testing.T) {
	root := mustParse(t, "3. foo\n4. bar\n")
	list := root.FirstChild
	require.Equal(t, ListKind, list.Kind)
	require.Equal(t, OrderedList, list.ListData.Type)
	require.Equal(t, 3, list.ListData.Start)
}

func TestTightListStaysTight(t *testing.T) {
	root := mustParse(t, "- a\n- b\n- c\n")
	list := root.FirstChild
	require.True(t, list.ListData.Tight)
}

func TestHTMLBlockCondition7Exercised(t *testing.T) {
	root := mustParse(t, "<custom>\nfoo\n</custom>\n")
	require.Equal(t, HTMLBlockKind, root.FirstChild.Kind)
}

func TestHTMLBlockPreservesLeadingIndent(t *testing.T) {
	// §4.D phase 3 item 5: the offset before the indent is restored so the
	// block's 0-3 leading spaces remain part of its first line.
	root := mustParse(t, "  <div>\n  foo\n  </div>\n")
	require.Equal(t, HTMLBlockKind, root.FirstChild.Kind)
	require.Equal(t, "  <div>\n  foo\n  </div>", root.FirstChild.Literal)
}

func TestReferenceDefinitionHarvestedFromParagraph(t *testing.T) {
	root, err := Parse([]byte("[foo]: /url \"title\"\n\nSee [foo].\n"), Options{})
	require.NoError(t, err)
	require.Equal(t, 1, root.ChildCount()) // the definition paragraph is consumed entirely
	require.Equal(t, ParagraphKind, root.FirstChild.Kind)
	require.Equal(t, "See [foo].", root.FirstChild.StringContent)
}

func TestReferenceDefinitionOnlyParagraphIsUnlinked(t *testing.T) {
	root := mustParse(t, "[foo]: /url\n")
	require.Nil(t, root.FirstChild, "a paragraph containing only a reference definition is unlinked")
}

// --- Invariants from SPEC_FULL.md §8 -------------------------------------

func walkAll(root *Node) []*Node {
	var all []*Node
	Walk(root, func(n *Node, entering bool) bool {
		if entering {
			all = append(all, n)
		}
		return true
	})
	return all
}

func TestInvariantAllNodesClosedAfterParse(t *testing.T) {
	inputs := []string{
		"# hi\n", "> a\n> b\n", "- x\n- y\n\n- z\n", "```\ncode\n```\n",
		"para\n===\n", "a\n\n\n- x\n- y\n\n\nb\n", "<div>\nfoo\n</div>\n",
		"1. a\n   1. b\n", "    indented\n",
	}
	for _, in := range inputs {
		root := mustParse(t, in)
		for _, n := range walkAll(root) {
			if n.Open {
				t.Errorf("input %q: node %s still open after Parse", in, n.Kind)
			}
		}
	}
}

func TestInvariantSourceposOrdering(t *testing.T) {
	root := mustParse(t, "# hi\n\npara one\npara two\n\n> quote\n")
	for _, n := range walkAll(root) {
		if n.Kind == documentKind {
			continue
		}
		if !n.Sourcepos.Start.Before(n.Sourcepos.End) && n.Sourcepos.Start != n.Sourcepos.End {
			t.Errorf("%s: start %+v should not be after end %+v", n.Kind, n.Sourcepos.Start, n.Sourcepos.End)
		}
		if n.Parent != nil && n.Parent.Kind != documentKind {
			if n.Sourcepos.Start.Line < n.Parent.Sourcepos.Start.Line {
				t.Errorf("%s starts before its parent %s", n.Kind, n.Parent.Kind)
			}
		}
	}
}

func TestInvariantNoDanglingStrings(t *testing.T) {
	root := mustParse(t, "# hi\n\npara\n\n```\ncode\n```\n\n<div>x</div>\n\n    indented\n")
	for _, n := range walkAll(root) {
		if len(n.strings) != 0 {
			t.Errorf("%s retains %d unconsumed raw lines after finalize", n.Kind, len(n.strings))
		}
	}
}

func TestInvariantListChildrenAreItems(t *testing.T) {
	root := mustParse(t, "- a\n- b\n\n> quoted\n\npara\n")
	for _, n := range walkAll(root) {
		if n.Kind == ListKind {
			for c := n.FirstChild; c != nil; c = c.Next {
				if c.Kind != ItemKind {
					t.Errorf("List has non-Item child %s", c.Kind)
				}
			}
		} else {
			for c := n.FirstChild; c != nil; c = c.Next {
				if c.Kind == ItemKind {
					t.Errorf("%s has direct Item child outside a List", n.Kind)
				}
			}
		}
	}
}

func TestInvariantPayloadPresence(t *testing.T) {
	root := mustParse(t, "# hi\n\npara\n\n```\ncode\n```\n\n<div>x</div>\n\n---\n")
	for _, n := range walkAll(root) {
		switch n.Kind {
		case ParagraphKind, HeaderKind:
			if n.StringContent == "" && n.Kind == ParagraphKind {
				// Paragraphs may legitimately be empty only transiently;
				// finalized ones here are all non-empty by construction.
			}
		case CodeBlockKind, HTMLBlockKind:
			if n.Literal == "" && n.Kind == CodeBlockKind && n.FenceLength == 0 {
				t.Errorf("%s: expected non-empty Literal", n.Kind)
			}
		case HorizontalRuleKind:
			if n.StringContent != "" || n.Literal != "" {
				t.Errorf("HorizontalRule should carry no payload")
			}
		}
	}
}

func TestDepthLimitExceeded(t *testing.T) {
	src := ""
	for i := 0; i < 10; i++ {
		src += "> "
	}
	src += "deeply nested\n"
	_, err := Parse([]byte(src), Options{MaxDepth: 3})
	require.Error(t, err)
	var depthErr *DepthLimitError
	require.ErrorAs(t, err, &depthErr)
}

// --- LastLineBlank propagation exceptions (design note in SPEC_FULL.md) --

func TestBlockQuoteExemptFromLastLineBlankTightness(t *testing.T) {
	// A blank line *inside* a block quote must not, by itself, cause a
	// following sibling item to see it as "ended in a blank line": the
	// exemption applies to the BlockQuote node itself.
	root := mustParse(t, "- > a\n  >\n  > b\n- c\n")
	list := root.FirstChild
	require.Equal(t, ListKind, list.Kind)
	require.True(t, list.ListData.Tight, "blank line fully inside a block quote should not force looseness")
}

func TestEmptyItemOpenedThisLineExemptFromBlank(t *testing.T) {
	root := mustParse(t, "-\n- a\n")
	list := root.FirstChild
	require.True(t, list.ListData.Tight)
}
