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

// Package commitgraph builds the three-tier commit graph (roots, mid
// merges, top merge) that makes every possible short object identifier
// reachable from a single branch tip, and drives that construction
// through a packfile.Writer.
package commitgraph

import "fmt"

// Config holds the template knobs that every commit body is built from,
// plus the parameters of the graph shape itself. Substituting any
// template knob changes every OID in the resulting pack.
type Config struct {
	// TreeOID is the 40-hex-character tree object every commit points at.
	TreeOID string
	// Author is the content of a commit's "author" line, without the
	// leading "author " or trailing newline.
	Author string
	// Committer is the content of a commit's "committer" line.
	Committer string
	// MessagePrefix is prepended to the rendered nonce to form a commit's
	// message.
	MessagePrefix string

	// ShortBits is the width, in bits, of the short identifier space to
	// enumerate. Production runs use 28 (seven hex characters); tests
	// downscale this to make the run tractable. Zero means 28.
	ShortBits int

	// Parallelism bounds how many candidate bodies Phase R may hash
	// concurrently before committing an acceptance decision to the
	// registry. The default, 0, means 1 (fully sequential); the
	// orchestrator in this package only implements the sequential path,
	// since correctness and simplicity were preferred over throughput,
	// but the field is part of the configuration surface so a future
	// parallel search can be dropped in without changing callers.
	Parallelism int
}

func (cfg Config) normalized() (Config, error) {
	if len(cfg.TreeOID) != 40 {
		return cfg, fmt.Errorf("commitgraph: config: tree OID must be 40 hex characters, got %d", len(cfg.TreeOID))
	}
	if cfg.ShortBits == 0 {
		cfg.ShortBits = 28
	}
	if cfg.ShortBits < 2 || cfg.ShortBits > 32 {
		return cfg, fmt.Errorf("commitgraph: config: short bits %d out of range [2, 32]", cfg.ShortBits)
	}
	if cfg.Parallelism == 0 {
		cfg.Parallelism = 1
	}
	if cfg.Parallelism != 1 {
		return cfg, fmt.Errorf("commitgraph: config: parallelism %d not supported by this orchestrator", cfg.Parallelism)
	}
	return cfg, nil
}

// bucketShape returns the bit-width of a bucket index and the number of
// buckets for a given short-identifier width, splitting it as evenly as a
// square root allows: bucketBits = shortBits/2, numBuckets =
// 2^(shortBits-bucketBits). For shortBits=28 this is the spec's
// 2^14-buckets-of-2^14-roots split; for odd widths the extra bit goes to
// the bucket count, not the bucket size.
func bucketShape(shortBits int) (bucketBits, numBuckets int) {
	bucketBits = shortBits / 2
	numBuckets = 1 << (shortBits - bucketBits)
	return bucketBits, numBuckets
}
