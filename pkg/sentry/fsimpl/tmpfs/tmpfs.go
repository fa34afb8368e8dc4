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

// Package tmpfs provides an in-memory implementation of fs.Filesystem.
//
// Objects have a fixed size chosen at creation; writes never extend them.
// The filesystem is not safe for concurrent use. The kernel serializes every
// call into it with its filesystem lock.
package tmpfs

import (
	"fmt"

	"github.com/google/btree"

	"github.com/comeintostout/pintos/pkg/errors/kerr"
	"github.com/comeintostout/pintos/pkg/sentry/fs"
)

// dirent is a name in the filesystem's single directory.
type dirent struct {
	name string
	node *node
}

func direntLess(a, b *dirent) bool {
	return a.name < b.name
}

// Filesystem is a flat, fixed-capacity in-memory filesystem.
type Filesystem struct {
	// dir holds the live names in order.
	dir *btree.BTreeG[*dirent]

	// capacity is the byte budget shared by all objects. It is always
	// positive.
	capacity int64

	// used counts the bytes of every object that is named or still open.
	used int64
}

var _ fs.Filesystem = (*Filesystem)(nil)

// DefaultCapacity is the capacity of a filesystem created with a capacity of
// zero.
const DefaultCapacity = 8 << 20

// New returns an empty filesystem holding at most capacity bytes of file
// data. A capacity of zero or less selects DefaultCapacity.
//
// Object sizes come from user processes, so there is no unlimited mode: the
// capacity bounds the host memory the filesystem can hold.
func New(capacity int64) *Filesystem {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Filesystem{
		dir:      btree.NewG[*dirent](8, direntLess),
		capacity: capacity,
	}
}

func (f *Filesystem) lookup(name string) *dirent {
	d, ok := f.dir.Get(&dirent{name: name})
	if !ok {
		return nil
	}
	return d
}

// Create implements fs.Filesystem.Create.
func (f *Filesystem) Create(name string, size int64) error {
	if name == "" || size < 0 {
		return kerr.EINVAL
	}
	if f.lookup(name) != nil {
		return kerr.EEXIST
	}
	if size > f.capacity-f.used {
		return kerr.ENOSPC
	}
	f.used += size
	f.dir.ReplaceOrInsert(&dirent{
		name: name,
		node: &node{fs: f, data: make([]byte, size)},
	})
	return nil
}

// Remove implements fs.Filesystem.Remove.
func (f *Filesystem) Remove(name string) error {
	d := f.lookup(name)
	if d == nil {
		return kerr.ENOENT
	}
	f.dir.Delete(d)
	d.node.removed = true
	d.node.maybeFree()
	return nil
}

// Open implements fs.Filesystem.Open.
func (f *Filesystem) Open(name string) (fs.Inode, error) {
	d := f.lookup(name)
	if d == nil {
		return nil, kerr.ENOENT
	}
	return d.node.open(), nil
}

// Put creates name holding exactly data.
func (f *Filesystem) Put(name string, data []byte) error {
	if err := f.Create(name, int64(len(data))); err != nil {
		return err
	}
	copy(f.lookup(name).node.data, data)
	return nil
}

// Names returns the names in the filesystem in lexical order.
func (f *Filesystem) Names() []string {
	names := make([]string, 0, f.dir.Len())
	f.dir.Ascend(func(d *dirent) bool {
		names = append(names, d.name)
		return true
	})
	return names
}

// Usage returns the bytes in use and the capacity.
func (f *Filesystem) Usage() (used, capacity int64) {
	return f.used, f.capacity
}

// Stat describes a named object.
type Stat struct {
	Size       int64
	OpenCount  int
	DenyWrites int
}

// Stat returns the state of the object called name.
func (f *Filesystem) Stat(name string) (Stat, error) {
	d := f.lookup(name)
	if d == nil {
		return Stat{}, kerr.ENOENT
	}
	n := d.node
	return Stat{Size: int64(len(n.data)), OpenCount: n.refs, DenyWrites: n.denyWrites}, nil
}

// node is a storage object.
type node struct {
	fs   *Filesystem
	data []byte

	// refs counts open inodes.
	refs int

	// denyWrites counts outstanding deny-write requests.
	denyWrites int

	// removed is set once the name is gone.
	removed bool
}

func (n *node) open() *inode {
	n.refs++
	return &inode{node: n}
}

// maybeFree returns the node's bytes to the filesystem once it is neither
// named nor open.
func (n *node) maybeFree() {
	if n.removed && n.refs == 0 && n.data != nil {
		n.fs.used -= int64(len(n.data))
		n.data = nil
	}
}

// inode is one open reference to a node.
type inode struct {
	node   *node
	closed bool
}

var _ fs.Inode = (*inode)(nil)

func (i *inode) mustBeOpen() {
	if i.closed {
		panic("tmpfs: use of closed inode")
	}
}

// ReadAt implements fs.Inode.ReadAt.
func (i *inode) ReadAt(dst []byte, off int64) int {
	i.mustBeOpen()
	if off < 0 || off >= int64(len(i.node.data)) {
		return 0
	}
	return copy(dst, i.node.data[off:])
}

// WriteAt implements fs.Inode.WriteAt.
func (i *inode) WriteAt(src []byte, off int64) int {
	i.mustBeOpen()
	if i.node.denyWrites > 0 {
		return 0
	}
	if off < 0 || off >= int64(len(i.node.data)) {
		return 0
	}
	return copy(i.node.data[off:], src)
}

// Length implements fs.Inode.Length.
func (i *inode) Length() int64 {
	i.mustBeOpen()
	return int64(len(i.node.data))
}

// DenyWrite implements fs.Inode.DenyWrite.
func (i *inode) DenyWrite() {
	i.mustBeOpen()
	i.node.denyWrites++
	if i.node.denyWrites > i.node.refs {
		panic(fmt.Sprintf("tmpfs: %d deny-write requests for %d openers", i.node.denyWrites, i.node.refs))
	}
}

// AllowWrite implements fs.Inode.AllowWrite.
func (i *inode) AllowWrite() {
	i.mustBeOpen()
	if i.node.denyWrites == 0 {
		panic("tmpfs: AllowWrite without DenyWrite")
	}
	i.node.denyWrites--
}

// Reopen implements fs.Inode.Reopen.
func (i *inode) Reopen() fs.Inode {
	i.mustBeOpen()
	return i.node.open()
}

// Close implements fs.Inode.Close.
func (i *inode) Close() {
	if i.closed {
		return
	}
	i.closed = true
	i.node.refs--
	i.node.maybeFree()
}
