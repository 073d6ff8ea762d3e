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

// Exhaustpack writes a single pack and pack-index file pair containing
// one commit for every possible seven-hex-character short object ID,
// all reachable from one branch tip.
//
// Usage:
//
//	exhaustpack [flags]
//
// With no flags, it writes pack-<HEX>.pack and pack-<HEX>.idx to the
// current directory, where <HEX> is the pack's trailing content hash.
//
// Flags:
//
//	--config FILE       TOML file supplying the template knobs (default: none)
//	--tree-oid HEX40     tree object every commit points at
//	--author LINE        "author" line content
//	--committer LINE     "committer" line content
//	--message-prefix STR prefix of every commit message, before the nonce
//	--short-bits N       width of the short identifier space (default 28)
//	--output-dir DIR     directory to write the pack/index pair into
//	--quiet              suppress progress logging
//
// Exit codes: 0 on success, nonzero on I/O or configuration failure.
package main
