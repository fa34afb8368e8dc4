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
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/comeintostout/pintos/pkg/hostarch"
	"github.com/comeintostout/pintos/pkg/log"
	"github.com/comeintostout/pintos/pkg/sentry/arch"
	"github.com/comeintostout/pintos/pkg/sentry/fs"
	"github.com/comeintostout/pintos/pkg/sentry/usermem"
)

// Task represents a user process.
type Task struct {
	k *Kernel

	// pid, name and cmdline are immutable.
	pid     ThreadID
	name    string
	cmdline string

	// parent is the task that exec'd this one, or nil for an initial
	// process. Immutable.
	parent *Task

	// mu protects children.
	mu sync.Mutex

	// children holds the direct children that have not been waited for.
	children map[ThreadID]*Task

	// regs is the trap frame. It is only accessed by the task goroutine.
	regs arch.Registers

	// as is the user address space.
	as *usermem.AddressSpace

	// stack and heap are the regions mapped in as at creation. Immutable.
	stack hostarch.AddrRange
	heap  hostarch.AddrRange

	fdTable FDTable

	// image is the opened, write-denied program file, if the program exists
	// in the filesystem. It is closed at exit.
	image *fs.File

	// exitStatus is reported to the parent. It is -1 unless the task
	// exits voluntarily.
	exitStatus atomic.Int32

	// exiting is set once the task is on its way out; no further syscalls
	// are executed.
	exiting atomic.Bool

	// exited is closed once teardown is complete.
	exited   chan struct{}
	exitOnce sync.Once
}

// Kernel returns the kernel the task runs in.
func (t *Task) Kernel() *Kernel {
	return t.k
}

// PID returns the task's pid.
func (t *Task) PID() ThreadID {
	return t.pid
}

// Name returns the process name, the first word of its command line.
func (t *Task) Name() string {
	return t.name
}

// Cmdline returns the command line the task was started with.
func (t *Task) Cmdline() string {
	return t.cmdline
}

// Parent returns the task's parent, or nil for an initial process.
func (t *Task) Parent() *Task {
	return t.parent
}

// Registers returns the task's trap frame.
//
// Preconditions: the caller is running on the task goroutine.
func (t *Task) Registers() *arch.Registers {
	return &t.regs
}

// AddressSpace returns the task's address space.
func (t *Task) AddressSpace() *usermem.AddressSpace {
	return t.as
}

// StackRange returns the stack region. The stack grows down from its end.
func (t *Task) StackRange() hostarch.AddrRange {
	return t.stack
}

// HeapRange returns the heap region.
func (t *Task) HeapRange() hostarch.AddrRange {
	return t.heap
}

// FDTable returns the task's descriptor table.
func (t *Task) FDTable() *FDTable {
	return &t.fdTable
}

// ExitStatus returns the status the task exited with. It is only
// meaningful once Exited is closed.
func (t *Task) ExitStatus() int32 {
	return t.exitStatus.Load()
}

// Exited returns a channel that is closed once the task has been torn down.
func (t *Task) Exited() <-chan struct{} {
	return t.exited
}

// String implements fmt.Stringer.String.
func (t *Task) String() string {
	return fmt.Sprintf("%d(%s)", t.pid, t.name)
}

// Infof logs at info level, prefixed with the task.
func (t *Task) Infof(format string, v ...any) {
	log.Infof("[%v] "+format, append([]any{t}, v...)...)
}

// Debugf logs at debug level, prefixed with the task.
func (t *Task) Debugf(format string, v ...any) {
	if log.IsLogging(log.Debug) {
		log.Debugf("[%v] "+format, append([]any{t}, v...)...)
	}
}

// Warningf logs at warning level, prefixed with the task.
func (t *Task) Warningf(format string, v ...any) {
	log.Warningf("[%v] "+format, append([]any{t}, v...)...)
}
