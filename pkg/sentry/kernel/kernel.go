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

// Package kernel implements the process side of the kernel: tasks, their
// file descriptor tables, the syscall dispatcher and the lock that
// serializes access to the filesystem.
//
// Each task runs on its own goroutine. A user program is a Go function that
// runs on that goroutine and enters the kernel only through Task.Trap, the
// same way a real program enters through the syscall interrupt.
package kernel

import (
	"fmt"
	"sync"
	"time"

	"github.com/comeintostout/pintos/pkg/abi/pintos"
	"github.com/comeintostout/pintos/pkg/errors/kerr"
	"github.com/comeintostout/pintos/pkg/log"
	"github.com/comeintostout/pintos/pkg/sentry/devices/console"
	"github.com/comeintostout/pintos/pkg/sentry/devices/input"
	"github.com/comeintostout/pintos/pkg/sentry/fs"
)

// ThreadID is a process identifier.
type ThreadID int32

// Program is the body of a user program. It runs on the task's goroutine
// with the whitespace-separated words of the command line as argv, argv[0]
// being the program name.
//
// A program leaves by trapping into exit or halt. If it returns instead, or
// panics, the kernel terminates it with status -1.
type Program func(t *Task, argv []string)

// Default memory layout of a new process.
const (
	DefaultStackPages = 4
	DefaultHeapPages  = 4
)

// faultLogInterval bounds how often protocol violations are logged.
const faultLogInterval = 100 * time.Millisecond

// InitKernelArgs holds arguments to New.
type InitKernelArgs struct {
	// Filesystem is the storage every process shares. Required.
	Filesystem fs.Filesystem

	// Console receives standard output. Required.
	Console *console.Console

	// Input provides standard input. Required.
	Input *input.Device

	// Programs is the set of programs exec can start, by name.
	Programs map[string]Program

	// SyscallTable is the table traps are dispatched through. Required.
	SyscallTable *SyscallTable

	// StackPages and HeapPages size the stack and heap regions of every
	// process. Zero selects the default.
	StackPages int
	HeapPages  int
}

// Kernel represents an emulated kernel.
type Kernel struct {
	fsLock   FSLock
	console  *console.Console
	input    *input.Device
	programs map[string]Program
	table    *SyscallTable

	stackPages int
	heapPages  int

	// mu protects below.
	mu sync.Mutex

	// tasks holds the live tasks by pid.
	tasks map[ThreadID]*Task

	// nextPID is the pid of the next task created.
	nextPID ThreadID

	// running counts task goroutines that have not finished.
	running sync.WaitGroup

	// halted is closed by Halt.
	halted   chan struct{}
	haltOnce sync.Once

	// faultLog reports protocol violations.
	faultLog log.Logger
}

// New returns a kernel ready to create processes.
func New(args InitKernelArgs) (*Kernel, error) {
	if args.Filesystem == nil {
		return nil, fmt.Errorf("no kernel filesystem")
	}
	if args.Console == nil || args.Input == nil {
		return nil, fmt.Errorf("kernel needs both a console and an input device")
	}
	if args.SyscallTable == nil {
		return nil, fmt.Errorf("no syscall table")
	}
	if args.StackPages < 0 || args.HeapPages < 0 {
		return nil, fmt.Errorf("invalid memory layout: %d stack pages, %d heap pages", args.StackPages, args.HeapPages)
	}
	k := &Kernel{
		fsLock:     FSLock{fs: args.Filesystem},
		console:    args.Console,
		input:      args.Input,
		programs:   args.Programs,
		table:      args.SyscallTable,
		stackPages: args.StackPages,
		heapPages:  args.HeapPages,
		tasks:      make(map[ThreadID]*Task),
		nextPID:    1,
		halted:     make(chan struct{}),
		faultLog:   log.BasicRateLimitedLogger(faultLogInterval),
	}
	if k.stackPages == 0 {
		k.stackPages = DefaultStackPages
	}
	if k.heapPages == 0 {
		k.heapPages = DefaultHeapPages
	}
	return k, nil
}

// FSLock returns the lock guarding the kernel's filesystem.
func (k *Kernel) FSLock() *FSLock {
	return &k.fsLock
}

// Console returns the kernel console.
func (k *Kernel) Console() *console.Console {
	return k.console
}

// Input returns the kernel input device.
func (k *Kernel) Input() *input.Device {
	return k.input
}

// SyscallTable returns the table traps are dispatched through.
func (k *Kernel) SyscallTable() *SyscallTable {
	return k.table
}

// CreateProcess starts the process described by cmdline with no parent. It
// is used to create the initial processes of the machine.
func (k *Kernel) CreateProcess(cmdline string) (*Task, error) {
	return k.exec(nil, cmdline)
}

// Task returns the live task with the given pid.
func (k *Kernel) Task(pid ThreadID) (*Task, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	t, ok := k.tasks[pid]
	return t, ok
}

// NumTasks returns the number of live tasks.
func (k *Kernel) NumTasks() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.tasks)
}

// Halt shuts the machine down. Tasks blocked in wait return, and every task
// is terminated the next time it traps. Halt is idempotent.
func (k *Kernel) Halt() {
	k.haltOnce.Do(func() {
		log.Infof("Machine halted")
		close(k.halted)
	})
}

// Halted returns a channel that is closed when the machine halts.
func (k *Kernel) Halted() <-chan struct{} {
	return k.halted
}

// IsHalted returns true once Halt has been called.
func (k *Kernel) IsHalted() bool {
	select {
	case <-k.halted:
		return true
	default:
		return false
	}
}

// WaitExited blocks until all task goroutines have finished.
func (k *Kernel) WaitExited() {
	k.running.Wait()
}

// newPIDLocked allocates a pid.
//
// Preconditions: k.mu is locked.
func (k *Kernel) newPIDLocked() (ThreadID, error) {
	if k.nextPID < 0 {
		return pintos.TIDError, kerr.ENOMEM
	}
	pid := k.nextPID
	k.nextPID++
	return pid, nil
}
