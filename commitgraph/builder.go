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
	"fmt"

	"github.com/exhaustpack/exhaustpack/object"
	"github.com/exhaustpack/exhaustpack/oid"
)

// narrowNonceLimit is the first nonce value that no longer fits in 8 hex
// digits. Below it, renderNonce produces an 8-digit lowercase hex string;
// at and above it, a 16-digit one. This mirrors the reference
// generator's behavior of widening the nonce's rendered width only once
// the narrower space is exhausted, rather than reserving 16 digits from
// the start.
const narrowNonceLimit = 1 << 32

// renderNonce renders n as the fixed-width hex suffix a commit message
// ends with. Every nonce below narrowNonceLimit renders to the same
// length (8), and every nonce at or above it renders to the same length
// (16); this lets a RootBuilder cache one hashing midstate per width
// class instead of one per nonce.
func renderNonce(n uint64) string {
	if n < narrowNonceLimit {
		return fmt.Sprintf("%08x", n)
	}
	return fmt.Sprintf("%016x", n)
}

// RootBuilder synthesizes candidate root commit bodies: parentless
// commits whose message ends in a nonce. The prefix shared by every
// candidate (tree, author, committer, blank line, message prefix) is
// hashed once per nonce width class and the resulting SHA-1 midstate is
// reused across candidates, so that accepting or rejecting a candidate
// costs one hex render plus one short hash.Write, not a full re-hash
// of the template.
type RootBuilder struct {
	prefix []byte

	narrowMid object.Midstate
	wideMid   object.Midstate
	haveMid   [2]bool
}

// NewRootBuilder returns a RootBuilder for cfg's template. cfg must
// already be normalized.
func NewRootBuilder(cfg Config) *RootBuilder {
	prefix := fmt.Sprintf("tree %s\nauthor %s\ncommitter %s\n\n%s", cfg.TreeOID, cfg.Author, cfg.Committer, cfg.MessagePrefix)
	return &RootBuilder{prefix: []byte(prefix)}
}

func (rb *RootBuilder) bodyLen(nonceHexLen int) int64 {
	return int64(len(rb.prefix) + nonceHexLen + 1) // +1 for the trailing newline
}

func (rb *RootBuilder) midstate(nonceHexLen int) (object.Midstate, error) {
	slot := 0
	if nonceHexLen != 8 {
		slot = 1
	}
	if rb.haveMid[slot] {
		if slot == 0 {
			return rb.narrowMid, nil
		}
		return rb.wideMid, nil
	}
	var hs object.Hasher
	var prefixBuf [64]byte
	hs.Write(object.AppendPrefix(prefixBuf[:0], object.TypeCommit, rb.bodyLen(nonceHexLen)))
	hs.Write(rb.prefix)
	mid, err := hs.Snapshot()
	if err != nil {
		return object.Midstate{}, fmt.Errorf("commitgraph: root builder: %w", err)
	}
	if slot == 0 {
		rb.narrowMid = mid
	} else {
		rb.wideMid = mid
	}
	rb.haveMid[slot] = true
	return mid, nil
}

// Build returns the commit body for the given nonce along with its OID.
// The returned slice is freshly allocated and safe to retain; repeated
// calls do not alias each other's bodies.
func (rb *RootBuilder) Build(nonce uint64) ([]byte, oid.ID, error) {
	nonceHex := renderNonce(nonce)
	mid, err := rb.midstate(len(nonceHex))
	if err != nil {
		return nil, oid.ID{}, err
	}
	var hs object.Hasher
	if err := mid.Restore(&hs); err != nil {
		return nil, oid.ID{}, fmt.Errorf("commitgraph: root builder: %w", err)
	}
	tail := make([]byte, 0, len(nonceHex)+1)
	tail = append(tail, nonceHex...)
	tail = append(tail, '\n')
	hs.Write(tail)
	id := hs.SumTail()

	body := make([]byte, 0, len(rb.prefix)+len(tail))
	body = append(body, rb.prefix...)
	body = append(body, tail...)
	return body, id, nil
}

// BuildMerge builds a merge commit body listing parents in the given
// order, with a message ending in nonce, and returns the body and its
// OID. Unlike root candidates, merge bodies are each built exactly once,
// so there is no midstate to amortize.
func BuildMerge(cfg Config, parents []oid.ID, nonce uint64) ([]byte, oid.ID) {
	size := len("tree \n") + len(cfg.TreeOID)
	size += len(parents) * (len("parent \n") + oid.Size*2)
	size += len("author \ncommitter \n\n") + len(cfg.Author) + len(cfg.Committer) + len(cfg.MessagePrefix) + 17

	body := make([]byte, 0, size)
	body = append(body, "tree "...)
	body = append(body, cfg.TreeOID...)
	body = append(body, '\n')
	for _, p := range parents {
		body = append(body, "parent "...)
		body = appendHex(body, p)
		body = append(body, '\n')
	}
	body = append(body, "author "...)
	body = append(body, cfg.Author...)
	body = append(body, "\ncommitter "...)
	body = append(body, cfg.Committer...)
	body = append(body, "\n\n"...)
	body = append(body, cfg.MessagePrefix...)
	body = append(body, renderNonce(nonce)...)
	body = append(body, '\n')

	var hs object.Hasher
	id := hs.Sum(object.TypeCommit, body)
	return body, id
}

func appendHex(dst []byte, id oid.ID) []byte {
	text, _ := id.MarshalText()
	return append(dst, text...)
}
