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

// Package registry tracks which short object identifiers have already been
// used, across however many candidate commit bodies it takes to fill every
// slot. It is the shorthash registry: a presence bitset for O(1)
// accept/reject decisions plus an append-only list of the full OIDs that
// were accepted, in the order they were accepted.
package registry

import (
	"fmt"
	"sort"

	"github.com/exhaustpack/exhaustpack/oid"
)

// Registry is a presence set over the 2^bits possible short identifiers,
// paired with the growing list of full OIDs accepted so far. The zero value
// is not usable; construct one with New.
type Registry struct {
	bits     int
	presence []byte
	oids     []oid.ID
}

// New returns an empty Registry over 2^bits short identifiers. bits must be
// in [1, 32]; production use is bits=28 (seven hex characters), while tests
// downscale to exercise the same logic over a much smaller space.
func New(bits int) *Registry {
	if bits < 1 || bits > 32 {
		panic(fmt.Sprintf("registry: bits=%d out of range [1, 32]", bits))
	}
	slots := uint64(1) << uint(bits)
	return &Registry{
		bits:     bits,
		presence: make([]byte, (slots+7)/8),
	}
}

// Cap returns the number of short identifiers this registry can hold, 2^bits.
func (r *Registry) Cap() int {
	return 1 << uint(r.bits)
}

// Count returns the number of OIDs accepted so far.
func (r *Registry) Count() int {
	return len(r.oids)
}

// TryInsert reports whether id's short identifier has not been seen before.
// If it is new, the presence bit is set and id is appended to the emission
// list; otherwise TryInsert leaves the registry unchanged. This is the
// registry's only decision: there is no separate error path, since "already
// used" is an expected, common outcome, not a failure.
func (r *Registry) TryInsert(id oid.ID) bool {
	s := id.ShortIndexBits(r.bits)
	byteIdx, bit := s>>3, byte(1)<<(s&7)
	if r.presence[byteIdx]&bit != 0 {
		return false
	}
	r.presence[byteIdx] |= bit
	r.oids = append(r.oids, id)
	return true
}

// FreezeAndSort permutes the accepted OIDs into ascending byte-lexicographic
// order and returns a Frozen view that still knows each OID's original
// emission index. After FreezeAndSort, the Registry holds no OIDs of its
// own; Frozen is the sole owner of the (now sorted) backing array, so the
// registry never needs two full-size copies of the OID list at once.
func (r *Registry) FreezeAndSort() *Frozen {
	f := &Frozen{
		OIDs:          r.oids,
		EmissionIndex: make([]uint32, len(r.oids)),
	}
	for i := range f.EmissionIndex {
		f.EmissionIndex[i] = uint32(i)
	}
	sort.Sort(f)
	r.oids = nil
	return f
}

// Frozen is the result of FreezeAndSort: the accepted OIDs in sorted order,
// with EmissionIndex[i] giving the position OIDs[i] originally held in
// emission order. Frozen implements sort.Interface so that the OID slice and
// its emission indices move together under an indirect sort, the same
// idiom packfile.Index uses to keep its parallel ID/offset/CRC tables
// consistent under sort.Sort.
type Frozen struct {
	OIDs          []oid.ID
	EmissionIndex []uint32

	invPerm []uint32
}

func (f *Frozen) Len() int { return len(f.OIDs) }

func (f *Frozen) Less(i, j int) bool { return f.OIDs[i].Less(f.OIDs[j]) }

func (f *Frozen) Swap(i, j int) {
	f.OIDs[i], f.OIDs[j] = f.OIDs[j], f.OIDs[i]
	f.EmissionIndex[i], f.EmissionIndex[j] = f.EmissionIndex[j], f.EmissionIndex[i]
}

// RootsInBucket returns the OIDs whose emission index fell in
// [bucket*bucketSize, (bucket+1)*bucketSize), in emission order. This
// recovers each bucket's root list for mid-merge construction, after the
// sort above has destroyed the original emission-order layout of OIDs.
//
// The first call builds an inverse permutation across the whole Frozen
// view and caches it; subsequent calls are a direct lookup.
func (f *Frozen) RootsInBucket(bucketSize, bucket int) []oid.ID {
	f.buildInversePermutation()
	start := bucket * bucketSize
	out := make([]oid.ID, bucketSize)
	for i := 0; i < bucketSize; i++ {
		out[i] = f.OIDs[f.invPerm[start+i]]
	}
	return out
}

func (f *Frozen) buildInversePermutation() {
	if f.invPerm != nil {
		return
	}
	inv := make([]uint32, len(f.EmissionIndex))
	for sortedPos, emissionIdx := range f.EmissionIndex {
		inv[emissionIdx] = uint32(sortedPos)
	}
	f.invPerm = inv
}
