// Copyright 2020 The gg Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package commitgraph

import (
	"strings"
	"testing"

	"github.com/exhaustpack/exhaustpack/object"
	"github.com/exhaustpack/exhaustpack/oid"
)

func testConfig() Config {
	return Config{
		TreeOID:       strings.Repeat("a", 40),
		Author:        "Test Author <test@example.com> 1600000000 +0000",
		Committer:     "Test Committer <test@example.com> 1600000000 +0000",
		MessagePrefix: "exhaustive commit ",
	}
}

func TestRenderNonce(t *testing.T) {
	tests := []struct {
		n    uint64
		want string
	}{
		{0, "00000000"},
		{1, "00000001"},
		{narrowNonceLimit - 1, "ffffffff"},
		{narrowNonceLimit, "0000000100000000"},
		{narrowNonceLimit + 1, "0000000100000001"},
	}
	for _, test := range tests {
		if got := renderNonce(test.n); got != test.want {
			t.Errorf("renderNonce(%d) = %q; want %q", test.n, got, test.want)
		}
	}
}

func TestRootBuilderMatchesDirectHash(t *testing.T) {
	rb := NewRootBuilder(testConfig())
	for _, nonce := range []uint64{0, 1, 2, 12345, narrowNonceLimit, narrowNonceLimit + 7} {
		body, id, err := rb.Build(nonce)
		if err != nil {
			t.Fatalf("Build(%d): %v", nonce, err)
		}
		var hs object.Hasher
		want := hs.Sum(object.TypeCommit, body)
		if id != want {
			t.Errorf("Build(%d) id = %v; want %v (direct hash of body)", nonce, id, want)
		}
		if !strings.HasSuffix(string(body), renderNonce(nonce)+"\n") {
			t.Errorf("Build(%d) body %q does not end in rendered nonce", nonce, body)
		}
	}
}

func TestRootBuilderDistinctBodies(t *testing.T) {
	rb := NewRootBuilder(testConfig())
	seen := make(map[oid.ID]uint64)
	for nonce := uint64(0); nonce < 1000; nonce++ {
		_, id, err := rb.Build(nonce)
		if err != nil {
			t.Fatalf("Build(%d): %v", nonce, err)
		}
		if prev, ok := seen[id]; ok {
			t.Fatalf("Build(%d) and Build(%d) produced the same OID %v", prev, nonce, id)
		}
		seen[id] = nonce
	}
}

func TestBuildMerge(t *testing.T) {
	cfg := testConfig()
	parents := []oid.ID{{1}, {2}, {3}}
	body, id := BuildMerge(cfg, parents, 7)

	var hs object.Hasher
	want := hs.Sum(object.TypeCommit, body)
	if id != want {
		t.Errorf("BuildMerge id = %v; want %v (direct hash of body)", id, want)
	}

	s := string(body)
	if !strings.HasPrefix(s, "tree "+cfg.TreeOID+"\n") {
		t.Errorf("body does not start with tree line: %q", s)
	}
	for _, p := range parents {
		if !strings.Contains(s, "parent "+p.String()+"\n") {
			t.Errorf("body missing parent line for %v: %q", p, s)
		}
	}
	if !strings.HasSuffix(s, renderNonce(7)+"\n") {
		t.Errorf("body does not end in rendered nonce: %q", s)
	}
}
