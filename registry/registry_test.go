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

package registry

import (
	"sort"
	"testing"

	"github.com/exhaustpack/exhaustpack/oid"
)

func idWithShort(short uint32, bits int, tag byte) oid.ID {
	var id oid.ID
	shifted := short << (32 - bits)
	id[0] = byte(shifted >> 24)
	id[1] = byte(shifted >> 16)
	id[2] = byte(shifted >> 8)
	id[3] = byte(shifted)
	id[19] = tag
	return id
}

func TestTryInsert(t *testing.T) {
	r := New(4) // 16 slots
	a := idWithShort(3, 4, 0x01)
	b := idWithShort(3, 4, 0x02) // same short id, different full OID
	c := idWithShort(7, 4, 0x03)

	if !r.TryInsert(a) {
		t.Fatal("TryInsert(a) = false; want true")
	}
	if r.TryInsert(b) {
		t.Error("TryInsert(b) = true; want false (short id already used)")
	}
	if !r.TryInsert(c) {
		t.Fatal("TryInsert(c) = false; want true")
	}
	if got, want := r.Count(), 2; got != want {
		t.Errorf("Count() = %d; want %d", got, want)
	}
	if got, want := r.Cap(), 16; got != want {
		t.Errorf("Cap() = %d; want %d", got, want)
	}
}

func TestFreezeAndSortOrdering(t *testing.T) {
	r := New(8)
	var emitted []oid.ID
	for _, short := range []uint32{0xaa, 0x01, 0x7f, 0x10} {
		id := idWithShort(short, 8, 0)
		if !r.TryInsert(id) {
			t.Fatalf("TryInsert(%x) = false; want true", short)
		}
		emitted = append(emitted, id)
	}

	f := r.FreezeAndSort()
	if r.Count() != 0 {
		t.Errorf("registry.Count() after freeze = %d; want 0", r.Count())
	}
	if !sort.SliceIsSorted(f.OIDs, func(i, j int) bool { return f.OIDs[i].Less(f.OIDs[j]) }) {
		t.Error("Frozen.OIDs is not sorted ascending")
	}
	for sortedPos, id := range f.OIDs {
		emissionIdx := f.EmissionIndex[sortedPos]
		if emitted[emissionIdx] != id {
			t.Errorf("OIDs[%d] = %v; emission index %d names %v", sortedPos, id, emissionIdx, emitted[emissionIdx])
		}
	}
}

func TestRootsInBucket(t *testing.T) {
	const bits = 8
	const bucketSize = 4
	r := New(bits)
	var buckets [][]oid.ID
	for b := 0; b < 3; b++ {
		var bucket []oid.ID
		for i := 0; i < bucketSize; i++ {
			short := uint32(b*bucketSize + i)
			id := idWithShort(short, bits, byte(b))
			if !r.TryInsert(id) {
				t.Fatalf("TryInsert bucket %d entry %d failed", b, i)
			}
			bucket = append(bucket, id)
		}
		buckets = append(buckets, bucket)
	}

	f := r.FreezeAndSort()
	for b, want := range buckets {
		got := f.RootsInBucket(bucketSize, b)
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("bucket %d[%d] = %v; want %v", b, i, got[i], want[i])
			}
		}
	}
}
