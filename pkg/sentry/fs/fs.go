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

// Package fs defines the kernel's view of the storage layer and the File
// object that pairs an open storage object with a cursor.
//
// The storage layer itself is a collaborator: it is reached only through the
// Filesystem and Inode interfaces below, and it is not safe for concurrent
// use. Callers in the kernel serialize all access to it.
package fs

// Inode is an open reference to one storage object. A storage object may have
// many Inodes open against it at once; each must be closed exactly once.
type Inode interface {
	// ReadAt reads up to len(dst) bytes starting at off and returns the
	// number of bytes read, which is short at end of file.
	ReadAt(dst []byte, off int64) int

	// WriteAt writes up to len(src) bytes starting at off and returns the
	// number of bytes written. Writes never extend the object: the count
	// is short at end of file, and zero while writes are denied.
	WriteAt(src []byte, off int64) int

	// Length returns the size of the object in bytes.
	Length() int64

	// DenyWrite adds one deny-write request to the object. Writes through
	// any Inode fail while at least one request is outstanding.
	DenyWrite()

	// AllowWrite withdraws one deny-write request added by DenyWrite.
	AllowWrite()

	// Reopen returns another reference to the same object.
	Reopen() Inode

	// Close releases this reference.
	Close()
}

// Filesystem is a flat namespace of storage objects.
type Filesystem interface {
	// Create makes a new object of size zero-filled bytes. It fails with
	// EEXIST if name exists and ENOSPC if the storage is exhausted.
	Create(name string, size int64) error

	// Remove unlinks name. Open references keep the object's contents alive
	// until they are closed.
	Remove(name string) error

	// Open returns a new reference to the object called name, or ENOENT.
	Open(name string) (Inode, error)
}
