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

// Package fixtures provides a small embedded corpus of block-structure
// test cases shared between the block parser's own tests and any
// downstream consumer that wants a quick sanity sweep.
package fixtures

import (
	_ "embed"
	"encoding/json"
)

// Case is a single markdown input paired with the expected pre-order
// sequence of node kind names Parse should produce, starting with
// "Document".
type Case struct {
	Name     string   `json:"name"`
	Markdown string   `json:"markdown"`
	Kinds    []string `json:"kinds"`
}

//go:embed block-cases.json
var blockCasesData []byte

// Load returns the embedded block-structure test cases.
func Load() ([]Case, error) {
	var cases []Case
	if err := json.Unmarshal(blockCasesData, &cases); err != nil {
		return nil, err
	}
	return cases, nil
}
