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

// Package user is the syscall library of user programs. A Proc issues
// syscalls the way a user-mode stub does: it lays the call number and
// argument words out on its own stack, points the stack pointer at them and
// traps.
package user

import (
	"fmt"
	"runtime"

	"github.com/comeintostout/pintos/pkg/abi/pintos"
	"github.com/comeintostout/pintos/pkg/hostarch"
	"github.com/comeintostout/pintos/pkg/sentry/arch"
	"github.com/comeintostout/pintos/pkg/sentry/kernel"
	"github.com/comeintostout/pintos/pkg/sentry/usermem"
)

// Proc is the user-mode view of a running process.
type Proc struct {
	t  *kernel.Task
	as *usermem.AddressSpace

	// brk is the next free heap address.
	brk hostarch.Addr
}

// New returns the user-mode view of t.
//
// Preconditions: the caller is running on the task goroutine.
func New(t *kernel.Task) *Proc {
	return &Proc{
		t:   t,
		as:  t.AddressSpace(),
		brk: t.HeapRange().Start,
	}
}

// Main adapts a C-style main function to a kernel.Program. The value main
// returns becomes the exit status, as if main's caller passed it to exit.
func Main(main func(p *Proc, argv []string) int) kernel.Program {
	return func(t *kernel.Task, argv []string) {
		p := New(t)
		p.Exit(int32(main(p, argv)))
	}
}

// Task returns the kernel task behind p.
func (p *Proc) Task() *kernel.Task {
	return p.t
}

// Syscall pushes sysno and args onto the top of the stack and traps. It
// returns the result register. If the process does not survive the trap,
// Syscall does not return.
func (p *Proc) Syscall(sysno pintos.Sysno, args ...uint32) uint32 {
	if len(args) > arch.MaxSyscallArgs {
		panic(fmt.Sprintf("%v: %d arguments", sysno, len(args)))
	}
	words := append([]uint32{uint32(sysno)}, args...)
	frame := p.t.StackRange().End - hostarch.Addr(len(words)*hostarch.WordSize)
	for i, w := range words {
		if err := usermem.WriteWord(p.as, frame+hostarch.Addr(i*hostarch.WordSize), w); err != nil {
			panic(fmt.Sprintf("writing syscall frame: %v", err))
		}
	}
	return p.Trap(frame)
}

// Trap traps with the stack pointer set to esp, whatever it points at. It
// returns the result register. If the process does not survive the trap,
// Trap does not return.
func (p *Proc) Trap(esp hostarch.Addr) uint32 {
	regs := p.t.Registers()
	regs.Esp = uint32(esp)
	if ctrl := p.t.Trap(); ctrl != nil {
		runtime.Goexit()
	}
	return regs.Eax
}

// Alloc reserves n bytes of heap and returns their address. It panics when
// the heap is exhausted, which the kernel treats as a crash of the process.
func (p *Proc) Alloc(n int) hostarch.Addr {
	addr := p.brk
	end, ok := addr.AddLength(uint32(n))
	if !ok || end > p.t.HeapRange().End {
		panic(fmt.Sprintf("out of heap allocating %d bytes", n))
	}
	p.brk = end
	return addr
}

// release frees every heap allocation made since brk was mark. The stubs
// below use it for their temporary copies.
func (p *Proc) release(mark hostarch.Addr) {
	p.brk = mark
}

// PutBytes copies b to newly allocated heap and returns its address.
func (p *Proc) PutBytes(b []byte) hostarch.Addr {
	addr := p.Alloc(len(b))
	if _, err := p.as.CopyOut(addr, b); err != nil {
		panic(err)
	}
	return addr
}

// PutString copies s and a terminating NUL to newly allocated heap and
// returns its address.
func (p *Proc) PutString(s string) hostarch.Addr {
	return p.PutBytes(append([]byte(s), 0))
}

// Bytes returns a copy of n bytes of user memory at addr.
func (p *Proc) Bytes(addr hostarch.Addr, n int) []byte {
	b := make([]byte, n)
	if _, err := p.as.CopyIn(addr, b); err != nil {
		panic(err)
	}
	return b
}

// Halt shuts the machine down.
func (p *Proc) Halt() {
	p.Syscall(pintos.SysHalt)
	runtime.Goexit()
}

// Exit terminates the process with status.
func (p *Proc) Exit(status int32) {
	p.Syscall(pintos.SysExit, uint32(status))
	runtime.Goexit()
}

// Exec starts cmdline as a child process and returns its pid, or -1.
func (p *Proc) Exec(cmdline string) int32 {
	defer p.release(p.brk)
	return int32(p.Syscall(pintos.SysExec, uint32(p.PutString(cmdline))))
}

// Wait waits for the child pid and returns its exit status, or -1.
func (p *Proc) Wait(pid int32) int32 {
	return int32(p.Syscall(pintos.SysWait, uint32(pid)))
}

// Create creates a file of size bytes.
func (p *Proc) Create(name string, size uint32) bool {
	defer p.release(p.brk)
	return p.Syscall(pintos.SysCreate, uint32(p.PutString(name)), size) != 0
}

// Remove removes a file.
func (p *Proc) Remove(name string) bool {
	defer p.release(p.brk)
	return p.Syscall(pintos.SysRemove, uint32(p.PutString(name))) != 0
}

// Open opens a file and returns its descriptor, or -1.
func (p *Proc) Open(name string) int32 {
	defer p.release(p.brk)
	return int32(p.Syscall(pintos.SysOpen, uint32(p.PutString(name))))
}

// Filesize returns the size of the open file fd.
func (p *Proc) Filesize(fd int32) int32 {
	return int32(p.Syscall(pintos.SysFilesize, uint32(fd)))
}

// Read reads up to n bytes from fd into buf and returns the count.
func (p *Proc) Read(fd int32, buf hostarch.Addr, n uint32) int32 {
	return int32(p.Syscall(pintos.SysRead, uint32(fd), uint32(buf), n))
}

// Write writes n bytes from buf to fd and returns the count.
func (p *Proc) Write(fd int32, buf hostarch.Addr, n uint32) int32 {
	return int32(p.Syscall(pintos.SysWrite, uint32(fd), uint32(buf), n))
}

// Seek moves the cursor of fd to pos.
func (p *Proc) Seek(fd int32, pos uint32) {
	p.Syscall(pintos.SysSeek, uint32(fd), pos)
}

// Tell returns the cursor of fd.
func (p *Proc) Tell(fd int32) uint32 {
	return p.Syscall(pintos.SysTell, uint32(fd))
}

// Close closes fd.
func (p *Proc) Close(fd int32) {
	p.Syscall(pintos.SysClose, uint32(fd))
}

// WriteBytes writes b to fd through a heap copy and returns the count.
func (p *Proc) WriteBytes(fd int32, b []byte) int32 {
	defer p.release(p.brk)
	return p.Write(fd, p.PutBytes(b), uint32(len(b)))
}

// ReadBytes reads up to n bytes from fd and returns them.
func (p *Proc) ReadBytes(fd int32, n int) []byte {
	defer p.release(p.brk)
	buf := p.Alloc(n)
	got := p.Read(fd, buf, uint32(n))
	if got <= 0 {
		return nil
	}
	return p.Bytes(buf, int(got))
}

// Printf formats to standard output.
func (p *Proc) Printf(format string, v ...any) {
	p.WriteBytes(pintos.StdoutFD, []byte(fmt.Sprintf(format, v...)))
}
