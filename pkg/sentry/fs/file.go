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

package fs

import (
	"fmt"

	"github.com/comeintostout/pintos/pkg/errors/kerr"
)

// File is one open instance of a storage object: the backing Inode, a
// cursor, and whether this File holds a deny-write request.
//
// A File is owned by exactly one descriptor slot and is used only by the
// process owning that slot, so it has no lock of its own. Operations that
// reach the Inode must be serialized with all other storage access by the
// caller.
type File struct {
	// inode is owned by the File until Close.
	inode Inode

	// pos is the cursor used by Read and Write.
	pos int64

	// denyWrite is true iff this File has an outstanding DenyWrite on inode.
	denyWrite bool
}

// NewFile wraps inode, taking ownership of it.
func NewFile(inode Inode) (*File, error) {
	if inode == nil {
		return nil, kerr.EINVAL
	}
	return &File{inode: inode}, nil
}

// Reopen returns a new File for the same storage object with its own cursor,
// starting at 0 and not denying writes.
func (f *File) Reopen() (*File, error) {
	return NewFile(f.inode.Reopen())
}

// Close reverts any deny-write held by f and releases the Inode. Close is a
// no-op on a closed File.
func (f *File) Close() {
	if f.inode == nil {
		return
	}
	f.AllowWrite()
	f.inode.Close()
	f.inode = nil
}

// Inode returns the storage object backing f.
func (f *File) Inode() Inode {
	return f.inode
}

// Read reads up to len(dst) bytes at the cursor and advances the cursor by
// the number of bytes read.
func (f *File) Read(dst []byte) int {
	n := f.inode.ReadAt(dst, f.pos)
	f.pos += int64(n)
	return n
}

// ReadAt reads up to len(dst) bytes at off. The cursor is unaffected.
func (f *File) ReadAt(dst []byte, off int64) int {
	return f.inode.ReadAt(dst, off)
}

// Write writes up to len(src) bytes at the cursor and advances the cursor by
// the number of bytes written.
func (f *File) Write(src []byte) int {
	n := f.inode.WriteAt(src, f.pos)
	f.pos += int64(n)
	return n
}

// WriteAt writes up to len(src) bytes at off. The cursor is unaffected.
func (f *File) WriteAt(src []byte, off int64) int {
	return f.inode.WriteAt(src, off)
}

// DenyWrite prevents writes to the storage object until AllowWrite is called
// or f is closed. Repeated calls hold a single request.
func (f *File) DenyWrite() {
	if !f.denyWrite {
		f.denyWrite = true
		f.inode.DenyWrite()
	}
}

// AllowWrite withdraws f's deny-write request, if any. Writes may still be
// denied by other Files open on the same object.
func (f *File) AllowWrite() {
	if f.denyWrite {
		f.denyWrite = false
		f.inode.AllowWrite()
	}
}

// WriteDenied returns true if f holds a deny-write request.
func (f *File) WriteDenied() bool {
	return f.denyWrite
}

// Length returns the size of the storage object in bytes.
func (f *File) Length() int64 {
	return f.inode.Length()
}

// SetPos moves the cursor to pos bytes from the start of the object. pos may
// lie beyond the end; reads there return nothing.
func (f *File) SetPos(pos int64) error {
	if pos < 0 {
		return kerr.EINVAL
	}
	f.pos = pos
	return nil
}

// Tell returns the cursor.
func (f *File) Tell() int64 {
	return f.pos
}

// String implements fmt.Stringer.String.
func (f *File) String() string {
	return fmt.Sprintf("file{pos: %d, denyWrite: %t}", f.pos, f.denyWrite)
}
