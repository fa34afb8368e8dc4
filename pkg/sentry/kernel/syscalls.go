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

	"github.com/comeintostout/pintos/pkg/abi/pintos"
	"github.com/comeintostout/pintos/pkg/sentry/arch"
)

// SyscallControl is returned by syscalls to control the behavior of
// Task.Trap.
type SyscallControl struct {
	// halt is true if the machine is shutting down.
	halt bool
}

var (
	// CtrlDoExit is returned by the implementations of the exit syscall,
	// and by the dispatcher when it terminates a process.
	CtrlDoExit = &SyscallControl{}

	// CtrlDoHalt is returned by the implementation of the halt syscall.
	CtrlDoHalt = &SyscallControl{halt: true}
)

// Halts returns true if the control stops the whole machine rather than one
// process.
func (c *SyscallControl) Halts() bool {
	return c != nil && c.halt
}

// SyscallFn is a syscall implementation.
type SyscallFn func(t *Task, sysno uintptr, args arch.SyscallArguments) (uintptr, *SyscallControl, error)

// ArgKind describes how the dispatcher treats one argument word before the
// implementation runs.
type ArgKind int

// Argument kinds.
const (
	// ArgInt is a signed integer.
	ArgInt ArgKind = iota

	// ArgUint is an unsigned integer.
	ArgUint

	// ArgFD is a file descriptor.
	ArgFD

	// ArgPath is a pointer to a NUL-terminated string. The dispatcher
	// validates the first byte; the implementation validates the rest as it
	// copies the string in.
	ArgPath

	// ArgBuffer is a pointer to a buffer whose length is the following
	// argument, which must be ArgSize. The dispatcher validates the pointer
	// and every byte of the buffer.
	ArgBuffer

	// ArgSize is the length of the preceding ArgBuffer.
	ArgSize
)

var argKindNames = [...]string{
	ArgInt:    "int",
	ArgUint:   "unsigned",
	ArgFD:     "fd",
	ArgPath:   "path",
	ArgBuffer: "buffer",
	ArgSize:   "size",
}

func (k ArgKind) String() string {
	if int(k) < len(argKindNames) {
		return argKindNames[k]
	}
	return fmt.Sprintf("ArgKind(%d)", int(k))
}

// Syscall includes the syscall implementation and compatibility information.
type Syscall struct {
	// Name is the syscall name.
	Name string

	// Fn is the implementation of the syscall.
	Fn SyscallFn

	// Args declares the kind of each argument word. Its length is the
	// syscall's arity.
	Args []ArgKind

	// Returns is true if the syscall stores a result in the trap frame.
	Returns bool
}

// String returns the syscall prototype, e.g. "read(fd, buffer, size)".
func (s Syscall) String() string {
	b := []byte(s.Name)
	b = append(b, '(')
	for i, k := range s.Args {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, k.String()...)
	}
	return string(append(b, ')'))
}

// Stracer traces syscall execution.
type Stracer interface {
	// SyscallEnter is called on syscall entry, after the arguments have
	// been validated. The returned value is passed to SyscallExit.
	SyscallEnter(t *Task, sysno uintptr, args arch.SyscallArguments) any

	// SyscallExit is called on syscall exit. err is the error returned by
	// the implementation, if any.
	SyscallExit(info any, t *Task, sysno, rval uintptr, err error)
}

// SyscallTable is a lookup table of system calls.
type SyscallTable struct {
	// Name names the ABI this table implements.
	Name string

	// Table is the collection of functions, indexed by syscall number.
	Table map[uintptr]Syscall

	// Stracer, if set, sees every syscall dispatched through this table.
	Stracer Stracer
}

// allSyscallTables contains all known tables.
var allSyscallTables []*SyscallTable

// SyscallTables returns a read-only slice of registered SyscallTables.
func SyscallTables() []*SyscallTable {
	return allSyscallTables
}

// LookupSyscallTable returns the SyscallTable registered under name.
func LookupSyscallTable(name string) (*SyscallTable, bool) {
	for _, s := range allSyscallTables {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// RegisterSyscallTable registers a new syscall table for use by a Kernel.
func RegisterSyscallTable(s *SyscallTable) {
	for _, sc := range s.Table {
		if len(sc.Args) > arch.MaxSyscallArgs {
			panic(fmt.Sprintf("syscall %s takes %d arguments, more than %d", sc.Name, len(sc.Args), arch.MaxSyscallArgs))
		}
		for i, k := range sc.Args {
			if k == ArgBuffer && (i+1 >= len(sc.Args) || sc.Args[i+1] != ArgSize) {
				panic(fmt.Sprintf("syscall %s: buffer argument %d is not followed by a size", sc.Name, i))
			}
		}
	}
	allSyscallTables = append(allSyscallTables, s)
}

// Lookup returns the syscall for sysno. ok is false for an unknown number.
func (s *SyscallTable) Lookup(sysno uintptr) (Syscall, bool) {
	sc, ok := s.Table[sysno]
	if !ok || sc.Fn == nil {
		return Syscall{}, false
	}
	return sc, true
}

// SyscallName returns the name of sysno in this table.
func (s *SyscallTable) SyscallName(sysno uintptr) string {
	if sc, ok := s.Table[sysno]; ok && sc.Name != "" {
		return sc.Name
	}
	return pintos.Sysno(sysno).String()
}
