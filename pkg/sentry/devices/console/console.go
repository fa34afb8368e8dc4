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

// Package console implements the kernel console: the device behind the
// standard output stream of every process.
package console

import (
	"fmt"
	"io"
	"sync"
)

// Console serializes output from all processes onto a single writer.
type Console struct {
	// mu makes each PutBuf one contiguous block of output.
	mu sync.Mutex
	w  io.Writer

	// written counts bytes accepted by w. Protected by mu.
	written int64
}

// New returns a console writing to w.
func New(w io.Writer) *Console {
	return &Console{w: w}
}

// PutBuf writes all of b as one block: output from concurrent callers never
// interleaves within a block. It returns the number of bytes the underlying
// writer accepted.
func (c *Console) PutBuf(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.w.Write(b)
	c.written += int64(n)
	return n, err
}

// Printf formats according to a format specifier and writes the result as a
// single block.
func (c *Console) Printf(format string, v ...any) (int, error) {
	return c.PutBuf([]byte(fmt.Sprintf(format, v...)))
}

// Written returns the number of bytes written so far.
func (c *Console) Written() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written
}
