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

/*
Package object provides the content-addressed framing that every Git
object is hashed under, plus a reusable hasher (C1 in the design) for
computing a commit's object ID without allocating per call.
*/
package object

import (
	"bytes"
	"crypto/sha1"
	"encoding"
	"fmt"
	"hash"
	"strconv"

	"github.com/exhaustpack/exhaustpack/oid"
)

// Type is an enumeration of Git object types, used in the content-hash
// framing prefix ("commit <len>\0") and when parsing that prefix back out.
type Type string

// Object types.
const (
	TypeBlob   Type = "blob"
	TypeTree   Type = "tree"
	TypeCommit Type = "commit"
	TypeTag    Type = "tag"
)

// IsValid reports whether typ is one of the known constants.
func (typ Type) IsValid() bool {
	return typ == TypeBlob || typ == TypeTree || typ == TypeCommit || typ == TypeTag
}

// Prefix is a parsed Git object prefix like "commit 42\x00".
type Prefix struct {
	Type Type
	Size int64
}

// MarshalBinary returns the result of AppendPrefix.
func (p Prefix) MarshalBinary() ([]byte, error) {
	if !p.Type.IsValid() {
		return nil, fmt.Errorf("marshal git object prefix: unknown type %q", p.Type)
	}
	if p.Size < 0 {
		return nil, fmt.Errorf("marshal git object prefix: negative size")
	}
	return AppendPrefix(nil, p.Type, p.Size), nil
}

// UnmarshalBinary parses an object prefix.
func (p *Prefix) UnmarshalBinary(data []byte) error {
	if len(data) == 0 || data[len(data)-1] != 0 {
		return fmt.Errorf("unmarshal git object prefix: does not end with NUL")
	}
	typeEnd := bytes.IndexByte(data, ' ')
	if typeEnd == -1 {
		return fmt.Errorf("unmarshal git object prefix: missing space")
	}
	typ := Type(data[:typeEnd])
	if !typ.IsValid() {
		return fmt.Errorf("unmarshal git object prefix: unknown type %q", typ)
	}
	sizeStart := typeEnd + 1
	sizeEnd := len(data) - 1
	size, err := strconv.ParseInt(string(data[sizeStart:sizeEnd]), 10, 64)
	if err != nil {
		return fmt.Errorf("unmarshal git object prefix: size: %v", err)
	}
	if size < 0 {
		return fmt.Errorf("unmarshal git object prefix: negative size")
	}
	p.Type = typ
	p.Size = size
	return nil
}

// String returns the prefix without the trailing NUL byte.
func (p Prefix) String() string {
	buf := AppendPrefix(nil, p.Type, p.Size)
	return string(buf[:len(buf)-1])
}

// AppendPrefix appends a Git object prefix (e.g. "commit 42\x00")
// to a byte slice.
func AppendPrefix(dst []byte, typ Type, n int64) []byte {
	dst = append(dst, typ...)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, n, 10)
	dst = append(dst, 0)
	return dst
}

// A Hasher computes content-addressed object IDs. Reusing a Hasher
// across many candidate bodies avoids allocating a new hash.Hash per
// candidate, which matters when hashing billions of commit bodies.
//
// The zero value is ready to use.
type Hasher struct {
	h hash.Hash
}

func (hs *Hasher) reset() {
	if hs.h == nil {
		hs.h = sha1.New()
		return
	}
	hs.h.Reset()
}

// Sum computes the object ID of body under the given object type's
// framing prefix.
func (hs *Hasher) Sum(typ Type, body []byte) oid.ID {
	hs.reset()
	var prefix [64]byte
	hs.h.Write(AppendPrefix(prefix[:0], typ, int64(len(body))))
	hs.h.Write(body)
	var id oid.ID
	hs.h.Sum(id[:0])
	return id
}

// Midstate is a snapshot of a Hasher that has already consumed a fixed
// prefix of a body, such as the part of a commit template that is
// common to every candidate. Resuming from a Midstate avoids re-hashing
// that shared prefix once per candidate, the same trick the reference
// implementation uses by cloning a chained SHA-1 state.
type Midstate struct {
	state []byte
}

// Snapshot captures the state of hs, which must have already consumed
// the framing prefix and a fixed body prefix. Later candidates Restore
// from the Midstate, Write their differing suffix, and call SumTail.
func (hs *Hasher) Snapshot() (Midstate, error) {
	if hs.h == nil {
		hs.h = sha1.New()
	}
	m, ok := hs.h.(encoding.BinaryMarshaler)
	if !ok {
		return Midstate{}, fmt.Errorf("object: hasher snapshot: sha1 hash does not support binary marshaling")
	}
	state, err := m.MarshalBinary()
	if err != nil {
		return Midstate{}, fmt.Errorf("object: hasher snapshot: %w", err)
	}
	return Midstate{state: state}, nil
}

// Restore resets hs to the state captured in m.
func (m Midstate) Restore(hs *Hasher) error {
	if hs.h == nil {
		hs.h = sha1.New()
	}
	u, ok := hs.h.(encoding.BinaryUnmarshaler)
	if !ok {
		return fmt.Errorf("object: hasher restore: sha1 hash does not support binary unmarshaling")
	}
	if err := u.UnmarshalBinary(m.state); err != nil {
		return fmt.Errorf("object: hasher restore: %w", err)
	}
	return nil
}

// Write feeds additional body bytes into the hasher, following a Restore.
func (hs *Hasher) Write(p []byte) {
	if hs.h == nil {
		hs.h = sha1.New()
	}
	hs.h.Write(p)
}

// SumTail finalizes the hash after Write calls following a Restore.
func (hs *Hasher) SumTail() oid.ID {
	var id oid.ID
	hs.h.Sum(id[:0])
	return id
}
