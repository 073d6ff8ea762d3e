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

package packfile

import (
	"hash/crc32"
	"io"
)

// CRCWriter wraps an io.Writer, accumulating a CRC-32 (IEEE) of every byte
// written since the last Reset. A caller that wraps the writer it hands to
// NewWriter in a CRCWriter can Reset before each WriteHeader call and read
// Sum after the object's payload is fully written, recovering the
// per-object CRC that the index format records alongside each OID.
type CRCWriter struct {
	w   io.Writer
	crc uint32
}

// NewCRCWriter returns a CRCWriter that forwards writes to w.
func NewCRCWriter(w io.Writer) *CRCWriter {
	return &CRCWriter{w: w}
}

func (c *CRCWriter) Write(p []byte) (int, error) {
	c.crc = crc32.Update(c.crc, crc32.IEEETable, p)
	return c.w.Write(p)
}

// Reset zeroes the running CRC.
func (c *CRCWriter) Reset() {
	c.crc = 0
}

// Sum returns the CRC-32 of the bytes written since the last Reset.
func (c *CRCWriter) Sum() uint32 {
	return c.crc
}
