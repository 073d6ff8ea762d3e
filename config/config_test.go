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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPath(t *testing.T) {
	f, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") = %v", err)
	}
	if f != (File{}) {
		t.Errorf("Load(\"\") = %+v; want zero value", f)
	}
}

func TestLoadAndApply(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exhaustpack.toml")
	contents := `
tree_oid = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"
author = "A <a@example.com> 1 +0000"
message_prefix = "custom "
short_bits = 12
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.TreeOID != "4b825dc642cb6eb9a060e54bf8d69288fbee4904" {
		t.Errorf("TreeOID = %q", f.TreeOID)
	}
	if f.ShortBits != 12 {
		t.Errorf("ShortBits = %d; want 12", f.ShortBits)
	}

	base := DefaultTemplate()
	got := f.Apply(base)
	if got.TreeOID != f.TreeOID {
		t.Errorf("Apply did not override TreeOID")
	}
	if got.Committer != base.Committer {
		t.Errorf("Apply overrode Committer, which the file left blank")
	}
	if got.ShortBits != 12 {
		t.Errorf("Apply did not override ShortBits")
	}
}
