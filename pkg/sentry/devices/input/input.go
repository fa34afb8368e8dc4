// Copyright 2026 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package input implements the input device behind the standard input stream
// of every process.
package input

import (
	"bufio"
	"io"
	"sync"
)

// Device hands out input bytes one at a time to whichever process asks
// first.
type Device struct {
	mu sync.Mutex
	r  *bufio.Reader

	// eof is set once the underlying reader is exhausted. Protected by mu.
	eof bool
}

// New returns a device reading from r.
func New(r io.Reader) *Device {
	return &Device{r: bufio.NewReader(r)}
}

// Getc blocks until a byte is available and returns it. ok is false at end of
// input; every later call also returns false.
func (d *Device) Getc() (c byte, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.eof {
		return 0, false
	}
	c, err := d.r.ReadByte()
	if err != nil {
		d.eof = true
		return 0, false
	}
	return c, true
}
