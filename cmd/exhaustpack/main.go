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
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/exhaustpack/exhaustpack/commitgraph"
	"github.com/exhaustpack/exhaustpack/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	var configPath, treeOID, author, committer, messagePrefix, outputDir string
	var shortBits int
	var quiet bool

	flagSet := pflag.NewFlagSet("exhaustpack", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "TOML file supplying the template knobs")
	flagSet.StringVar(&treeOID, "tree-oid", "", "tree object every commit points at (40 hex characters)")
	flagSet.StringVar(&author, "author", "", `"author" line content`)
	flagSet.StringVar(&committer, "committer", "", `"committer" line content`)
	flagSet.StringVar(&messagePrefix, "message-prefix", "", "prefix of every commit message, before the nonce")
	flagSet.IntVar(&shortBits, "short-bits", 0, "width of the short identifier space (default 28)")
	flagSet.StringVar(&outputDir, "output-dir", "", "directory to write the pack/index pair into (default \".\")")
	flagSet.BoolVar(&quiet, "quiet", false, "suppress progress logging")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintf(os.Stderr, "exhaustpack: %v\n", err)
		return 2
	}
	if args := flagSet.Args(); len(args) > 0 {
		fmt.Fprintf(os.Stderr, "exhaustpack: unexpected argument: %s\n", args[0])
		return 2
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if quiet {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	}

	cfg, outputDir, err := resolveConfig(configPath, treeOID, author, committer, messagePrefix, outputDir, shortBits)
	if err != nil {
		fmt.Fprintf(os.Stderr, "exhaustpack: %v\n", err)
		return 2
	}

	if err := generate(cfg, outputDir, logger); err != nil {
		fmt.Fprintf(os.Stderr, "exhaustpack: %v\n", err)
		return 1
	}
	return 0
}

// resolveConfig layers the built-in default template, an optional config
// file, and command-line overrides, in that order of increasing
// precedence, matching the ambient stack's documented flags-over-file
// layering. outputDir is resolved the same way even though it lives
// outside commitgraph.Config, since it's a cmd-level concern rather than
// part of the commit template.
func resolveConfig(configPath, treeOID, author, committer, messagePrefix, outputDir string, shortBits int) (commitgraph.Config, string, error) {
	cfg := config.DefaultTemplate()

	file, err := config.Load(configPath)
	if err != nil {
		return commitgraph.Config{}, "", err
	}
	cfg = file.Apply(cfg)

	if treeOID != "" {
		cfg.TreeOID = treeOID
	}
	if author != "" {
		cfg.Author = author
	}
	if committer != "" {
		cfg.Committer = committer
	}
	if messagePrefix != "" {
		cfg.MessagePrefix = messagePrefix
	}
	if shortBits != 0 {
		cfg.ShortBits = shortBits
	}

	resolvedOutputDir := file.OutputDir
	if outputDir != "" {
		resolvedOutputDir = outputDir
	}
	if resolvedOutputDir == "" {
		resolvedOutputDir = "."
	}
	return cfg, resolvedOutputDir, nil
}

// generate runs the commit graph build, writing the pack to a temporary
// file (since its final name depends on a hash only known once the run
// completes) and then the index, named to match.
func generate(cfg commitgraph.Config, outputDir string, logger *slog.Logger) error {
	tmpPack, err := os.CreateTemp(outputDir, "exhaustpack-*.pack.tmp")
	if err != nil {
		return fmt.Errorf("create temporary pack file: %w", err)
	}
	tmpPackPath := tmpPack.Name()
	defer os.Remove(tmpPackPath)

	bw := bufio.NewWriter(tmpPack)
	result, err := commitgraph.Run(cfg, bw, logger)
	if err != nil {
		tmpPack.Close()
		return fmt.Errorf("build commit graph: %w", err)
	}
	if err := bw.Flush(); err != nil {
		tmpPack.Close()
		return fmt.Errorf("flush pack file: %w", err)
	}
	if err := tmpPack.Close(); err != nil {
		return fmt.Errorf("close pack file: %w", err)
	}

	hex := result.Index.PackfileSHA1.String()
	packPath := filepath.Join(outputDir, "pack-"+hex+".pack")
	idxPath := filepath.Join(outputDir, "pack-"+hex+".idx")

	if err := os.Rename(tmpPackPath, packPath); err != nil {
		return fmt.Errorf("rename pack file: %w", err)
	}

	idxFile, err := os.Create(idxPath)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	idxWriter := bufio.NewWriter(idxFile)
	if err := result.Index.EncodeV2(idxWriter); err != nil {
		return fmt.Errorf("write index file: %w", err)
	}
	if err := idxWriter.Flush(); err != nil {
		return fmt.Errorf("flush index file: %w", err)
	}
	if err := idxFile.Close(); err != nil {
		return fmt.Errorf("close index file: %w", err)
	}

	logger.Info("wrote pack",
		"pack", packPath,
		"index", idxPath,
		"branchTip", result.BranchTip.String(),
		"attempts", result.Attempts,
	)
	return nil
}
