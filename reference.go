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

	"golang.org/x/text/cases"
)

// Reference is a single link reference definition harvested from a
// paragraph during finalization: [label]: destination "title".
type Reference struct {
	Label        string
	Destination  string
	Title        string
	TitlePresent bool // distinguishes an explicit empty title from no title at all
}

// ReferenceMap collects link reference definitions found while the block
// parser finalizes paragraphs. Labels are matched case-insensitively with
// internal whitespace collapsed, per the normalization rule; the first
// definition of a given label wins and later duplicates are discarded.
type ReferenceMap struct {
	fold cases.Caser
	defs map[string]Reference
}

// NewReferenceMap returns an empty ReferenceMap ready for use.
func NewReferenceMap() *ReferenceMap {
	return &ReferenceMap{
		fold: cases.Fold(),
		defs: make(map[string]Reference),
	}
}

// NormalizeLabel collapses runs of whitespace to a single space, trims the
// result, and case-folds it using Unicode full case folding, producing
// the key under which a label is looked up or stored.
func (m *ReferenceMap) NormalizeLabel(label string) string {
	fields := strings.Fields(label)
	collapsed := strings.Join(fields, " ")
	return m.fold.String(collapsed)
}

// Define records a reference definition if no definition for its label
// (after normalization) has been recorded yet. It reports whether the
// definition was newly recorded.
func (m *ReferenceMap) Define(ref Reference) bool {
	key := m.NormalizeLabel(ref.Label)
	if key == "" {
		return false
	}
	if _, exists := m.defs[key]; exists {
		return false
	}
	m.defs[key] = ref
	return true
}

// Lookup returns the reference definition for label, if any.
func (m *ReferenceMap) Lookup(label string) (Reference, bool) {
	ref, ok := m.defs[m.NormalizeLabel(label)]
	return ref, ok
}

// Len returns the number of distinct reference definitions recorded.
func (m *ReferenceMap) Len() int {
	return len(m.defs)
}
