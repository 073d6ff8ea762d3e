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

package oid

import (
	"bytes"
	"encoding"
	"fmt"
	"testing"
)

var (
	_ fmt.Stringer               = ID{}
	_ fmt.Formatter              = ID{}
	_ encoding.TextMarshaler     = ID{}
	_ encoding.TextUnmarshaler   = &ID{}
	_ encoding.BinaryMarshaler   = ID{}
	_ encoding.BinaryUnmarshaler = &ID{}
)

func TestID(t *testing.T) {
	tests := []struct {
		id    ID
		s     string
		short string
	}{
		{
			id:    ID{},
			s:     "0000000000000000000000000000000000000000",
			short: "00000000",
		},
		{
			id: ID{
				0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef,
				0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef,
				0x01, 0x23, 0x45, 0x67,
			},
			s:     "0123456789abcdef0123456789abcdef01234567",
			short: "01234567",
		},
	}
	for _, test := range tests {
		if got := test.id.String(); got != test.s {
			t.Errorf("ID(%x).String() = %q; want %q", test.id[:], got, test.s)
		}
		if got := test.id.Short(); got != test.short {
			t.Errorf("ID(%x).Short() = %q; want %q", test.id[:], got, test.short)
		}
		if got := test.id.ShortHex7(); got != test.s[:7] {
			t.Errorf("ID(%x).ShortHex7() = %q; want %q", test.id[:], got, test.s[:7])
		}
		if got, err := test.id.MarshalText(); err != nil || string(got) != test.s {
			t.Errorf("ID(%x).MarshalText() = %q, %v; want %q, <nil>", test.id[:], got, err, test.s)
		}
		if got, err := test.id.MarshalBinary(); err != nil || !bytes.Equal(got, test.id[:]) {
			t.Errorf("ID(%x).MarshalBinary() = %#v, %v; want %#v, <nil>", test.id[:], got, err, test.id[:])
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		s       string
		want    ID
		wantErr bool
	}{
		{s: "", wantErr: true},
		{s: "0000000000000000000000000000000000000000", want: ID{}},
		{
			s: "0123456789abcdef0123456789abcdef01234567",
			want: ID{
				0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef,
				0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef,
				0x01, 0x23, 0x45, 0x67,
			},
		},
		{s: "0123456789abcdef0123456789abcdef0123456", wantErr: true},
		{s: "fooooooooooooooooooooooooooooooooooooooo", wantErr: true},
	}
	for _, test := range tests {
		switch got, err := Parse(test.s); {
		case err == nil && !test.wantErr && got != test.want:
			t.Errorf("Parse(%q) = %v, <nil>; want %v, <nil>", test.s, got, test.want)
		case err == nil && test.wantErr:
			t.Errorf("Parse(%q) = %v, <nil>; want error", test.s, got)
		case err != nil && !test.wantErr:
			t.Errorf("Parse(%q) = _, %v; want %v, <nil>", test.s, err, test.want)
		}
	}
}

func TestShortIndexBits(t *testing.T) {
	id, err := Parse("abcdef0123456789abcdef0123456789abcdef01")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		bits int
		want uint32
	}{
		{bits: 28, want: 0xabcdef0 >> 0},
		{bits: 8, want: 0xab},
		{bits: 4, want: 0xa},
		{bits: 32, want: 0xabcdef01},
	}
	for _, test := range tests {
		if got := id.ShortIndexBits(test.bits); got != test.want {
			t.Errorf("ShortIndexBits(%d) = %#x; want %#x", test.bits, got, test.want)
		}
	}
	if got := id.ShortIndex(); got != id.ShortIndexBits(28) {
		t.Errorf("ShortIndex() = %#x; want %#x", got, id.ShortIndexBits(28))
	}
}

func TestCompare(t *testing.T) {
	a, _ := Parse("0000000000000000000000000000000000000001")
	b, _ := Parse("0000000000000000000000000000000000000002")
	if a.Compare(b) >= 0 {
		t.Errorf("a.Compare(b) >= 0; want < 0")
	}
	if b.Compare(a) <= 0 {
		t.Errorf("b.Compare(a) <= 0; want > 0")
	}
	if a.Compare(a) != 0 {
		t.Errorf("a.Compare(a) != 0")
	}
	if !a.Less(b) {
		t.Errorf("a.Less(b) = false; want true")
	}
}
