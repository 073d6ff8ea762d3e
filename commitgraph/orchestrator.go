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
	"io"
	"log/slog"
	"sort"

	"github.com/exhaustpack/exhaustpack/oid"
	"github.com/exhaustpack/exhaustpack/packfile"
	"github.com/exhaustpack/exhaustpack/registry"
)

// progressInterval is how many accepted roots pass between progress log
// lines during Phase R, where acceptance starts near-instant and slows
// to many rejections per success as the registry fills.
const progressInterval = 1 << 16

// Result is the outcome of a successful Run: the finished pack index and
// the OID of the branch tip (the top merge commit).
type Result struct {
	Index     *packfile.Index
	BranchTip oid.ID
	Attempts  uint64
}

// mergeTail holds the bookkeeping for the mid-merge and top-merge objects
// (numBuckets+1 entries, 2^14+1 in a production run) in emission order, ready to be sorted
// and merged into the much larger root prefix without ever materializing
// a combined array-of-structs over every object. Kept as parallel slices,
// the same idiom registry.Frozen uses, rather than one struct slice, since
// a struct of {oid.ID, int64, uint32} pads to a wider stride than the
// three fields packed separately.
type mergeTail struct {
	ids     []oid.ID
	offsets []int64
	crcs    []uint32
}

func (t *mergeTail) Len() int { return len(t.ids) }

func (t *mergeTail) Less(i, j int) bool { return t.ids[i].Less(t.ids[j]) }

func (t *mergeTail) Swap(i, j int) {
	t.ids[i], t.ids[j] = t.ids[j], t.ids[i]
	t.offsets[i], t.offsets[j] = t.offsets[j], t.offsets[i]
	t.crcs[i], t.crcs[j] = t.crcs[j], t.crcs[i]
}

func (t *mergeTail) add(id oid.ID, offset int64, crc uint32) {
	t.ids = append(t.ids, id)
	t.offsets = append(t.offsets, offset)
	t.crcs = append(t.crcs, crc)
}

// mergeSortedTail merges the already-sorted tail into ids[:rootCount],
// which must itself already be sorted, writing the combined, sorted
// result into ids[:rootCount+len(tail.ids)] (and the two slices moving in
// lockstep with it) in place. It works backward from the end of the
// combined range, so every element is read before the slot it came from
// is ever overwritten — the same technique used to merge two sorted runs
// into a single array with exactly enough trailing room for the smaller
// one, here applied so that finishing the index never requires a second
// array the size of the root prefix.
func mergeSortedTail(ids []oid.ID, offsets []int64, crcs []uint32, rootCount int, tail *mergeTail) {
	i := rootCount - 1
	j := len(tail.ids) - 1
	for k := rootCount + len(tail.ids) - 1; j >= 0; k-- {
		if i >= 0 && !ids[i].Less(tail.ids[j]) {
			ids[k], offsets[k], crcs[k] = ids[i], offsets[i], crcs[i]
			i--
		} else {
			ids[k], offsets[k], crcs[k] = tail.ids[j], tail.offsets[j], tail.crcs[j]
			j--
		}
	}
}

// Run builds the full three-tier commit graph described by cfg and
// streams it to w as a packfile, returning the resulting index and
// branch tip. w is typically a buffered file.
func Run(cfg Config, w io.Writer, logger *slog.Logger) (*Result, error) {
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	bucketBits, numBuckets := bucketShape(cfg.ShortBits)
	bucketSize := 1 << bucketBits
	totalRoots := 1 << cfg.ShortBits
	totalObjects := totalRoots + numBuckets + 1

	logger.Info("starting commit graph",
		"shortBits", cfg.ShortBits,
		"totalRoots", totalRoots,
		"numBuckets", numBuckets,
		"bucketSize", bucketSize,
		"totalObjects", totalObjects,
	)

	crcw := packfile.NewCRCWriter(w)
	pw := packfile.NewWriter(crcw, uint32(totalObjects))

	reg := registry.New(cfg.ShortBits)
	rb := NewRootBuilder(cfg)

	rootOffsets := make([]int64, 0, totalRoots)
	rootCRCs := make([]uint32, 0, totalRoots)

	var baseBody []byte
	var baseID oid.ID
	attempts := uint64(0)
	accepted := 0

	for b := 0; b < numBuckets; b++ {
		for acceptedInBucket := 0; acceptedInBucket < bucketSize; {
			body, id, err := rb.Build(attempts)
			attempts++
			if err != nil {
				return nil, err
			}
			if !reg.TryInsert(id) {
				continue
			}
			acceptedInBucket++
			accepted++

			var hdr *packfile.Header
			var payload []byte
			if accepted == 1 {
				baseBody = body
				baseID = id
				hdr = &packfile.Header{Type: packfile.Commit, Size: int64(len(body))}
				payload = body
			} else {
				delta := packfile.EncodeDelta(nil, baseBody, body)
				hdr = &packfile.Header{Type: packfile.RefDelta, Size: int64(len(delta)), BaseObject: baseID}
				payload = delta
			}

			crcw.Reset()
			offset, err := pw.WriteHeader(hdr)
			if err != nil {
				return nil, fmt.Errorf("commitgraph: phase R: %w", err)
			}
			if _, err := pw.Write(payload); err != nil {
				return nil, fmt.Errorf("commitgraph: phase R: %w", err)
			}
			rootOffsets = append(rootOffsets, offset)
			rootCRCs = append(rootCRCs, crcw.Sum())

			if accepted%progressInterval == 0 {
				logger.Info("phase R progress", "accepted", accepted, "attempts", attempts, "bucket", b)
			}
		}
	}
	logger.Info("phase R complete", "accepted", accepted, "attempts", attempts)

	if reg.Count() != totalRoots {
		return nil, fmt.Errorf("commitgraph: phase R: accepted %d roots, want %d", reg.Count(), totalRoots)
	}
	frozen := reg.FreezeAndSort()

	// idx's backing arrays are allocated once, at their final size, and
	// filled in place: the root prefix now (permuted into frozen's sorted
	// order directly from rootOffsets/rootCRCs) and the mid/top tail
	// after Phase T, via a backward merge rather than a second pass that
	// copies every root a third time.
	idx := &packfile.Index{
		ObjectIDs:       make([]oid.ID, totalObjects),
		Offsets:         make([]int64, totalObjects),
		PackedChecksums: make([]uint32, totalObjects),
	}
	copy(idx.ObjectIDs, frozen.OIDs)
	for i, emissionIdx := range frozen.EmissionIndex {
		idx.Offsets[i] = rootOffsets[emissionIdx]
		idx.PackedChecksums[i] = rootCRCs[emissionIdx]
	}

	logger.Info("phase M starting", "numBuckets", numBuckets)
	midIDs := make([]oid.ID, numBuckets)
	tail := &mergeTail{}
	for b := 0; b < numBuckets; b++ {
		parents := frozen.RootsInBucket(bucketSize, b)
		body, id := BuildMerge(cfg, parents, uint64(b))
		midIDs[b] = id

		crcw.Reset()
		hdr := &packfile.Header{Type: packfile.Commit, Size: int64(len(body))}
		offset, err := pw.WriteHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("commitgraph: phase M: bucket %d: %w", b, err)
		}
		if _, err := pw.Write(body); err != nil {
			return nil, fmt.Errorf("commitgraph: phase M: bucket %d: %w", b, err)
		}
		tail.add(id, offset, crcw.Sum())
	}
	logger.Info("phase M complete", "numBuckets", numBuckets)

	body, topID := BuildMerge(cfg, midIDs, 0)
	crcw.Reset()
	hdr := &packfile.Header{Type: packfile.Commit, Size: int64(len(body))}
	offset, err := pw.WriteHeader(hdr)
	if err != nil {
		return nil, fmt.Errorf("commitgraph: phase T: %w", err)
	}
	if _, err := pw.Write(body); err != nil {
		return nil, fmt.Errorf("commitgraph: phase T: %w", err)
	}
	tail.add(topID, offset, crcw.Sum())
	logger.Info("phase T complete", "branchTip", topID.String())

	if err := pw.Close(); err != nil {
		return nil, fmt.Errorf("commitgraph: %w", err)
	}
	idx.PackfileSHA1 = pw.Checksum()

	sort.Sort(tail)
	mergeSortedTail(idx.ObjectIDs, idx.Offsets, idx.PackedChecksums, totalRoots, tail)

	return &Result{Index: idx, BranchTip: topID, Attempts: attempts}, nil
}
