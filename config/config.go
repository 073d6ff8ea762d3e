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

// Package config loads the commit template knobs from an optional TOML
// file, so that the tree OID, author/committer identities, and message
// prefix don't have to be recompiled into the binary to change.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/exhaustpack/exhaustpack/commitgraph"
)

// File is the on-disk shape of the config file. Every field is optional;
// a missing field stays at its zero value here, and Apply then leaves the
// corresponding commitgraph.Config field unchanged.
type File struct {
	TreeOID       string `toml:"tree_oid"`
	Author        string `toml:"author"`
	Committer     string `toml:"committer"`
	MessagePrefix string `toml:"message_prefix"`
	ShortBits     int    `toml:"short_bits"`
	OutputDir     string `toml:"output_dir"`
}

// Load decodes the TOML file at path. A path of "" returns a zero File
// without touching the filesystem, so that callers can treat "no config
// file given" uniformly with "config file found but every field blank".
func Load(path string) (File, error) {
	var f File
	if path == "" {
		return f, nil
	}
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return File{}, fmt.Errorf("config: load %s: %w", path, err)
	}
	return f, nil
}

// Apply overlays non-zero fields of f onto cfg, returning the result.
// Call this before applying command-line flag overrides, so that flags
// take precedence over the file per the ambient stack's documented
// layering.
func (f File) Apply(cfg commitgraph.Config) commitgraph.Config {
	if f.TreeOID != "" {
		cfg.TreeOID = f.TreeOID
	}
	if f.Author != "" {
		cfg.Author = f.Author
	}
	if f.Committer != "" {
		cfg.Committer = f.Committer
	}
	if f.MessagePrefix != "" {
		cfg.MessagePrefix = f.MessagePrefix
	}
	if f.ShortBits != 0 {
		cfg.ShortBits = f.ShortBits
	}
	return cfg
}

// DefaultTemplate returns the built-in commit template used when neither
// a config file nor flags supply one. It is a fixed, arbitrary tree and
// identity: the output is only required to be internally consistent, not
// to reference a real tree object that exists anywhere.
func DefaultTemplate() commitgraph.Config {
	return commitgraph.Config{
		TreeOID:       "4b825dc642cb6eb9a060e54bf8d69288fbee4904",
		Author:        "exhaustpack <exhaustpack@localhost> 0 +0000",
		Committer:     "exhaustpack <exhaustpack@localhost> 0 +0000",
		MessagePrefix: "exhaustive short id commit ",
	}
}
