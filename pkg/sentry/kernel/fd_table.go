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

package kernel

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/comeintostout/pintos/pkg/abi/pintos"
	"github.com/comeintostout/pintos/pkg/errors/kerr"
	"github.com/comeintostout/pintos/pkg/sentry/fs"
)

// FDTable maps the descriptors of one process to its open files.
//
// Slots StdinFD and StdoutFD are reserved for the console streams and never
// hold a file. Every file in the table is owned by it: removing a descriptor
// closes its file.
//
// Closing a file touches the storage layer, so Remove, RemoveIf and RemoveAll
// must be called under the kernel's FSLock.
type FDTable struct {
	// mu protects below. The table is only modified by its own task, but
	// it may be inspected from other goroutines for debugging.
	mu sync.Mutex

	// used contains the number of non-nil entries.
	used int32

	files [pintos.MaxFDs]*fs.File
}

// Init resets every file slot to empty. It does not close anything.
func (f *FDTable) Init() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for fd := range f.files {
		f.files[fd] = nil
	}
	f.used = 0
}

// fileSlot returns true if fd can name an open file.
func fileSlot(fd int32) bool {
	return fd >= pintos.FirstFileFD && fd < pintos.MaxFDs
}

// Size returns the number of open files.
func (f *FDTable) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int(f.used)
}

// forEach iterates over all non-nil files in descriptor order.
//
// Preconditions: f.mu is locked.
func (f *FDTable) forEach(fn func(fd int32, file *fs.File)) {
	for fd := int32(pintos.FirstFileFD); fd < pintos.MaxFDs; fd++ {
		if file := f.files[fd]; file != nil {
			fn(fd, file)
		}
	}
}

// String is a stringer for FDTable.
func (f *FDTable) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var b bytes.Buffer
	f.forEach(func(fd int32, file *fs.File) {
		b.WriteString(fmt.Sprintf("\tfd:%d => %v\n", fd, file))
	})
	return b.String()
}

// Insert installs file at descriptor fd and returns the descriptor. If fd is
// AutoFD, the lowest free descriptor is used and EMFILE is returned if the
// table is full. Otherwise fd must be a free file slot, or EBADF is returned.
func (f *FDTable) Insert(file *fs.File, fd int32) (int32, error) {
	if file == nil {
		return pintos.FDError, kerr.EINVAL
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if fd == pintos.AutoFD {
		for fd = pintos.FirstFileFD; fd < pintos.MaxFDs; fd++ {
			if f.files[fd] == nil {
				break
			}
		}
		if fd == pintos.MaxFDs {
			return pintos.FDError, kerr.EMFILE
		}
	} else if !fileSlot(fd) || f.files[fd] != nil {
		return pintos.FDError, kerr.EBADF
	}

	f.files[fd] = file
	f.used++
	return fd, nil
}

// Get returns the file for fd, or EBADF if fd does not name an open file.
func (f *FDTable) Get(fd int32) (*fs.File, error) {
	if !fileSlot(fd) {
		return nil, kerr.EBADF
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if file := f.files[fd]; file != nil {
		return file, nil
	}
	return nil, kerr.EBADF
}

// GetFDs returns the open descriptors, in ascending order.
func (f *FDTable) GetFDs() []int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	fds := make([]int32, 0, f.used)
	f.forEach(func(fd int32, _ *fs.File) {
		fds = append(fds, fd)
	})
	return fds
}

// Remove closes and clears descriptor fd.
//
// A negative fd removes every open descriptor. The console descriptors are
// accepted and ignored. Any other descriptor that is not open is EBADF.
//
// Preconditions: the kernel's FSLock is held.
func (f *FDTable) Remove(fd int32) error {
	if fd < 0 {
		f.RemoveAll()
		return nil
	}
	if fd == pintos.StdinFD || fd == pintos.StdoutFD {
		return nil
	}
	if !fileSlot(fd) {
		return kerr.EBADF
	}

	f.mu.Lock()
	file := f.files[fd]
	if file != nil {
		f.files[fd] = nil // Zap entry.
		f.used--
	}
	f.mu.Unlock()

	if file == nil {
		return kerr.EBADF
	}
	file.Close()
	return nil
}

// RemoveIf closes and clears all descriptors for which cond is true.
//
// Preconditions: the kernel's FSLock is held.
func (f *FDTable) RemoveIf(cond func(fd int32, file *fs.File) bool) {
	var victims []*fs.File
	f.mu.Lock()
	f.forEach(func(fd int32, file *fs.File) {
		if cond(fd, file) {
			f.files[fd] = nil // Clear from table.
			f.used--
			victims = append(victims, file)
		}
	})
	f.mu.Unlock()

	for _, file := range victims {
		file.Close()
	}
}

// RemoveAll closes and clears every open descriptor.
//
// Preconditions: the kernel's FSLock is held.
func (f *FDTable) RemoveAll() {
	f.RemoveIf(func(int32, *fs.File) bool { return true })
}
