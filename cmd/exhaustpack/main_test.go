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

package main

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveConfigOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exhaustpack.toml")
	if err := os.WriteFile(path, []byte(`tree_oid = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"`+"\n"+`short_bits = 4`+"\n"+`output_dir = "/from/file"`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, outputDir, err := resolveConfig(path, "", "", "", "", "", 6)
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	if cfg.TreeOID != "4b825dc642cb6eb9a060e54bf8d69288fbee4904" {
		t.Errorf("TreeOID = %q", cfg.TreeOID)
	}
	if cfg.ShortBits != 6 {
		t.Errorf("ShortBits = %d; want 6 (flag overrides file)", cfg.ShortBits)
	}
	if outputDir != "/from/file" {
		t.Errorf("outputDir = %q; want %q (from file, no flag given)", outputDir, "/from/file")
	}

	_, outputDir, err = resolveConfig(path, "", "", "", "", "/from/flag", 6)
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	if outputDir != "/from/flag" {
		t.Errorf("outputDir = %q; want %q (flag overrides file)", outputDir, "/from/flag")
	}
}

func TestGenerateWritesPackAndIndex(t *testing.T) {
	dir := t.TempDir()
	cfg, _, err := resolveConfig("", "", "", "", "", "", 4)
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	if err := generate(cfg, dir, logger); err != nil {
		t.Fatalf("generate: %v", err)
	}

	var packs, idxs int
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		switch {
		case strings.HasSuffix(path, ".pack"):
			packs++
		case strings.HasSuffix(path, ".idx"):
			idxs++
		case strings.HasSuffix(path, ".tmp"):
			t.Errorf("leftover temporary file: %s", path)
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if packs != 1 || idxs != 1 {
		t.Errorf("found %d .pack and %d .idx files; want 1 each", packs, idxs)
	}
}
