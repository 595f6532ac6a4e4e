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

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLabel(t *testing.T) {
	m := NewReferenceMap()
	tests := []struct {
		in, want string
	}{
		{"Foo", "foo"},
		{"  Foo  Bar  ", "foo bar"},
		{"FOO\tBAR", "foo bar"},
		{"ß", "ss"}, // Unicode case folding, not ASCII lowercasing
	}
	for _, test := range tests {
		if got := m.NormalizeLabel(test.in); got != test.want {
			t.Errorf("NormalizeLabel(%q) = %q; want %q", test.in, got, test.want)
		}
	}
}

func TestReferenceMapFirstDefinitionWins(t *testing.T) {
	m := NewReferenceMap()

	ok := m.Define(Reference{Label: "foo", Destination: "/first"})
	assert.True(t, ok)

	ok = m.Define(Reference{Label: "FOO", Destination: "/second"})
	assert.False(t, ok, "duplicate (case-insensitive) definition should be ignored")

	ref, found := m.Lookup("  fOO ")
	assert.True(t, found)
	assert.Equal(t, "/first", ref.Destination)
	assert.Equal(t, 1, m.Len())
}

func TestReferenceMapLookupMissing(t *testing.T) {
	m := NewReferenceMap()
	_, found := m.Lookup("nope")
	assert.False(t, found)
}

func TestReferenceMapEmptyLabelRejected(t *testing.T) {
	m := NewReferenceMap()
	ok := m.Define(Reference{Label: "   ", Destination: "/x"})
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}
