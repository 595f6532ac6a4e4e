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

// Node is a single node of a parsed CommonMark block tree. All nodes --
// container and leaf alike -- share this one type; the Kind field
// discriminates which of the type-specific fields below are meaningful,
// following the tagged-sum design called out in the design notes rather
// than one interface implementation per block kind.
type Node struct {
	Kind NodeKind

	Parent, Prev, Next    *Node
	FirstChild, LastChild *Node

	Open      bool
	Sourcepos Sourcepos

	// strings holds raw line fragments collected while the node is open.
	// It is consumed into StringContent or Literal at finalization and is
	// nil afterward.
	strings [][]byte

	StringContent string // Paragraph, Header
	Literal       string // CodeBlock, HTMLBlock

	// Inlines is populated by an InlineParser, never by the block parser
	// itself, for Paragraph and Header nodes only.
	Inlines []*Inline

	LastLineBlank bool

	HeaderLevel int // Header: 1..6

	FenceLength int  // CodeBlock: 0 for indented
	FenceChar   byte // CodeBlock: '`' or '~'
	FenceOffset int  // CodeBlock: indent of the opening fence/marker
	Info        string

	ListData ListData // List, Item

	itemIndent      int // Item: columns required on a continuation line
	htmlCondition   int // HTMLBlock: 0-based index into htmlBlockConditions
	listBlankStreak int // List: consecutive blank lines seen inside it (outermost list only)
}

// NewNode returns an open, unattached node of the given kind.
func NewNode(kind NodeKind) *Node {
	return &Node{Kind: kind, Open: true}
}

// AppendChild adds child as the last child of n, updating sibling and
// parent links. child must not already have a parent.
func (n *Node) AppendChild(child *Node) {
	child.mustHaveNoParent()
	child.Parent = n
	child.Prev = n.LastChild
	child.Next = nil
	if n.LastChild != nil {
		n.LastChild.Next = child
	}
	n.LastChild = child
	if n.FirstChild == nil {
		n.FirstChild = child
	}
}

// Unlink removes n from its parent's child list. n must have a parent.
func (n *Node) Unlink() {
	n.mustHaveParent()
	if n.Prev == nil {
		n.Parent.FirstChild = n.Next
	} else {
		n.Prev.Next = n.Next
	}
	if n.Next == nil {
		n.Parent.LastChild = n.Prev
	} else {
		n.Next.Prev = n.Prev
	}
	n.Parent, n.Prev, n.Next = nil, nil, nil
}

// Replace substitutes n, in place, with replacement. n must have a parent;
// replacement must not.
func (n *Node) Replace(replacement *Node) {
	n.mustHaveParent()
	replacement.mustHaveNoParent()
	if n.Prev == nil {
		n.Parent.FirstChild = replacement
	} else {
		n.Prev.Next = replacement
	}
	if n.Next == nil {
		n.Parent.LastChild = replacement
	} else {
		n.Next.Prev = replacement
	}
	replacement.Parent, replacement.Prev, replacement.Next = n.Parent, n.Prev, n.Next
	n.Parent, n.Prev, n.Next = nil, nil, nil
}

func (n *Node) mustHaveParent() {
	if n.Parent == nil {
		panic(&ParseInvariantError{Message: "node has no parent"})
	}
}

func (n *Node) mustHaveNoParent() {
	if n.Parent != nil {
		panic(&ParseInvariantError{Message: "node already has a parent"})
	}
}

// addLine appends a raw line fragment to an open, line-accepting node.
func (n *Node) addLine(line []byte) {
	if !n.Open {
		panic(&ParseInvariantError{Message: "addLine on closed " + n.Kind.String() + " node"})
	}
	// Copy: the caller's backing array (the preprocessor's line slice) is
	// reused or discarded after this call returns.
	owned := make([]byte, len(line))
	copy(owned, line)
	n.strings = append(n.strings, owned)
}

// ChildCount returns the number of children of n.
func (n *Node) ChildCount() int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.Next {
		count++
	}
	return count
}

// WalkFunc is called twice per node visited by Walk: with entering=true on
// descent and with entering=false on ascent (for a node with no children,
// immediately after the entering=true call). Returning false on an entering=true call skips the node's
// children (and the matching entering=false call).
type WalkFunc func(n *Node, entering bool) bool

// Walk performs an iterative, stack-based depth-first traversal of the
// tree rooted at root, calling fn for every node in document order. Walk
// does not recurse, so it is safe to use on pathologically deep trees; it
// is not safe to mutate the tree's structure (as opposed to leaf payload
// fields) while walking it.
func Walk(root *Node, fn WalkFunc) {
	type frame struct {
		node *Node
		post bool
	}
	if root == nil {
		return
	}
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.post {
			fn(top.node, false)
			continue
		}
		if !fn(top.node, true) {
			continue
		}
		if top.node.FirstChild == nil {
			fn(top.node, false)
			continue
		}
		stack = append(stack, frame{node: top.node, post: true})
		var children []*Node
		for c := top.node.FirstChild; c != nil; c = c.Next {
			children = append(children, c)
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: children[i]})
		}
	}
}
