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

// Package arch describes the user register state captured by a syscall trap
// and how syscall arguments are read out of it.
package arch

import (
	"fmt"

	"github.com/comeintostout/pintos/pkg/hostarch"
	"github.com/comeintostout/pintos/pkg/sentry/usermem"
)

// MaxSyscallArgs is the largest number of argument words any syscall takes.
const MaxSyscallArgs = 3

// Registers is the part of the trap frame the syscall layer uses.
type Registers struct {
	// Esp is the user stack pointer at the time of the trap. It points at
	// the syscall number; argument i is the word at Esp + 4*(i+1).
	Esp uint32

	// Eax receives the syscall result, when the call produces one.
	Eax uint32
}

// String implements fmt.Stringer.String.
func (r Registers) String() string {
	return fmt.Sprintf("esp=%#08x eax=%#08x", r.Esp, r.Eax)
}

// StackPointer returns Esp as an address.
func (r *Registers) StackPointer() hostarch.Addr {
	return hostarch.Addr(r.Esp)
}

// SetReturn stores a syscall result.
func (r *Registers) SetReturn(rv uintptr) {
	r.Eax = uint32(rv)
}

// Return returns the last stored syscall result.
func (r *Registers) Return() uintptr {
	return uintptr(r.Eax)
}

// SyscallArgument is an argument supplied to a syscall implementation. The
// methods used to access the arguments are named after the ***C type name***
// and they convert to the closest Go type available. For example, Int()
// refers to a 32-bit signed integer argument represented in Go as an int32.
//
// Using the accessor methods guarantees that the conversion between types is
// correct, taking into account size and signedness (i.e., zero-extension vs
// signed-extension).
type SyscallArgument struct {
	// Prefer to use accessor methods instead of 'Value' directly.
	Value uintptr
}

// SyscallArguments represents the set of arguments passed to a syscall.
type SyscallArguments [MaxSyscallArgs]SyscallArgument

// Pointer returns the hostarch.Addr representation of a pointer argument.
func (a SyscallArgument) Pointer() hostarch.Addr {
	return hostarch.Addr(a.Value)
}

// Int returns the int32 representation of a 32-bit signed integer argument.
func (a SyscallArgument) Int() int32 {
	return int32(a.Value)
}

// Uint returns the uint32 representation of a 32-bit unsigned integer argument.
func (a SyscallArgument) Uint() uint32 {
	return uint32(a.Value)
}

// SizeT returns the uint representation of a size_t argument.
func (a SyscallArgument) SizeT() uint {
	return uint(uint32(a.Value))
}

// ArgAddr returns the user address of the word holding argument i of a trap
// whose stack pointer is sp. ok is false if the address wraps.
func ArgAddr(sp hostarch.Addr, i int) (hostarch.Addr, bool) {
	return sp.AddLength(uint32(hostarch.WordSize * (i + 1)))
}

// ReadSyscallNumber reads the syscall number at the top of the trapping
// stack.
func ReadSyscallNumber(uio usermem.IO, regs *Registers) (uint32, error) {
	return usermem.ReadWord(uio, regs.StackPointer())
}

// ReadSyscallArgument reads argument word i of the trap in regs.
//
// Preconditions: the word has been validated.
func ReadSyscallArgument(uio usermem.IO, regs *Registers, i int) (SyscallArgument, error) {
	addr, ok := ArgAddr(regs.StackPointer(), i)
	if !ok {
		return SyscallArgument{}, fmt.Errorf("argument %d of trap at %v wraps", i, regs.StackPointer())
	}
	v, err := usermem.ReadWord(uio, addr)
	return SyscallArgument{Value: uintptr(v)}, err
}
