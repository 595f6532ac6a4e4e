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

	"github.com/stretchr/testify/require"
)

func TestParseReferenceDefinition(t *testing.T) {
	m := NewReferenceMap()
	text := "[foo]: /url \"title\"\nrest"
	n := parseReferenceDefinition(text, m)
	require.Greater(t, n, 0)
	require.Equal(t, "rest", text[n:])

	ref, ok := m.Lookup("foo")
	require.True(t, ok)
	require.Equal(t, "/url", ref.Destination)
	require.Equal(t, "title", ref.Title)
	require.True(t, ref.TitlePresent)
}

func TestParseReferenceDefinitionAngleDestination(t *testing.T) {
	m := NewReferenceMap()
	text := "[foo]: <my url>\n"
	n := parseReferenceDefinition(text, m)
	require.Greater(t, n, 0)
	ref, ok := m.Lookup("foo")
	require.True(t, ok)
	require.Equal(t, "my url", ref.Destination)
	require.False(t, ref.TitlePresent)
}

func TestParseReferenceDefinitionNoTitle(t *testing.T) {
	m := NewReferenceMap()
	n := parseReferenceDefinition("[foo]: /url\n", m)
	require.Greater(t, n, 0)
	ref, ok := m.Lookup("foo")
	require.True(t, ok)
	require.Equal(t, "/url", ref.Destination)
	require.False(t, ref.TitlePresent)
}

func TestParseReferenceDefinitionRejectsNonDefinition(t *testing.T) {
	tests := []string{
		"not a reference\n",
		"[incomplete",
		"[foo] no colon\n",
		"[foo]:\n",
	}
	for _, in := range tests {
		m := NewReferenceMap()
		if n := parseReferenceDefinition(in, m); n != 0 {
			t.Errorf("parseReferenceDefinition(%q) = %d; want 0", in, n)
		}
	}
}

func TestParseReferenceDefinitionGarbageAfterDestinationOnSameLine(t *testing.T) {
	m := NewReferenceMap()
	// A destination followed by trailing non-whitespace (and no valid
	// title) is not a well-formed definition.
	n := parseReferenceDefinition("[foo]: /url garbage\n", m)
	require.Equal(t, 0, n)
}

func TestSplitSoftHardBreaks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []*Inline
	}{
		{"empty", "", nil},
		{"singleLine", "hello", []*Inline{{Kind: TextInline, Literal: "hello"}}},
		{
			"softBreak",
			"foo\nbar",
			[]*Inline{
				{Kind: TextInline, Literal: "foo"},
				{Kind: SoftBreakInline},
				{Kind: TextInline, Literal: "bar"},
			},
		},
		{
			"hardBreakBackslash",
			"foo\\\nbar",
			[]*Inline{
				{Kind: TextInline, Literal: "foo"},
				{Kind: HardBreakInline},
				{Kind: TextInline, Literal: "bar"},
			},
		},
		{
			"hardBreakTrailingSpaces",
			"foo  \nbar",
			[]*Inline{
				{Kind: TextInline, Literal: "foo"},
				{Kind: HardBreakInline},
				{Kind: TextInline, Literal: "bar"},
			},
		},
		{
			"singleTrailingSpaceIsSoft",
			"foo \nbar",
			[]*Inline{
				{Kind: TextInline, Literal: "foo "},
				{Kind: SoftBreakInline},
				{Kind: TextInline, Literal: "bar"},
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := splitSoftHardBreaks(test.in)
			require.Equal(t, len(test.want), len(got))
			for i := range got {
				require.Equal(t, test.want[i].Kind, got[i].Kind)
				require.Equal(t, test.want[i].Literal, got[i].Literal)
			}
		})
	}
}
