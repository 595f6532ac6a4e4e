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

// Package blockmark implements the block-structure half of a [CommonMark]
// parser: it turns a text document into a tree of Document, BlockQuote,
// List, Item, Paragraph, Header, HorizontalRule, CodeBlock and HTMLBlock
// nodes. Inline parsing (emphasis, links, code spans) is delegated to an
// InlineParser collaborator; this package ships a minimal DefaultInlineParser
// but full inline tokenization is out of scope.
//
// [CommonMark]: https://commonmark.org/
package blockmark
