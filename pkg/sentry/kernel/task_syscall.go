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
	"github.com/comeintostout/pintos/pkg/abi/pintos"
	"github.com/comeintostout/pintos/pkg/errors/kerr"
	"github.com/comeintostout/pintos/pkg/hostarch"
	"github.com/comeintostout/pintos/pkg/sentry/arch"
)

// Trap enters the kernel for a syscall, as the syscall interrupt does. The
// syscall number and arguments are read from the user stack at
// Registers().Esp, and the result, if any, is stored in Registers().Eax.
//
// Trap returns nil if the task may continue running. Otherwise the task is
// finished, and the caller must stop running user code on the task goroutine
// (runtime.Goexit does this while letting the kernel tear the task down).
//
// Preconditions: the caller is running on the task goroutine.
func (t *Task) Trap() *SyscallControl {
	if t.k.IsHalted() {
		t.PrepareExit(pintos.ExitFault)
		return CtrlDoHalt
	}
	if t.Exiting() {
		return CtrlDoExit
	}
	return t.doSyscall()
}

// doSyscall runs one trap through DECODE, VALIDATE_ARGS, EXECUTE and
// STORE_RESULT. Any protocol violation along the way terminates the task.
func (t *Task) doSyscall() *SyscallControl {
	// Decode.
	sp := t.regs.StackPointer()
	if err := t.as.ValidateRange(sp, hostarch.WordSize); err != nil {
		return t.fault(nil, err)
	}
	nr, err := arch.ReadSyscallNumber(t.as, &t.regs)
	if err != nil {
		return t.fault(nil, err)
	}
	sysno := uintptr(nr)
	s, ok := t.k.table.Lookup(sysno)
	if !ok {
		t.Debugf("unknown syscall %d", nr)
		return t.fault(nil, kerr.ENOSYS)
	}

	// Validate the arguments.
	args, err := t.readSyscallArguments(s)
	if err != nil {
		return t.fault(&s, err)
	}
	if sysno < uintptr(pintos.NumSyscalls) {
		syscallCounts.Increment(pintos.Sysno(sysno).String())
	}

	// Execute.
	var info any
	stracer := t.k.table.Stracer
	if stracer != nil {
		info = stracer.SyscallEnter(t, sysno, args)
	}
	rval, ctrl, err := s.Fn(t, sysno, args)
	if stracer != nil {
		stracer.SyscallExit(info, t, sysno, rval, err)
	}
	if err != nil && kerr.IsProtocolViolation(err) {
		return t.fault(&s, err)
	}
	if ctrl != nil {
		return ctrl
	}

	// Store the result.
	if s.Returns {
		t.regs.SetReturn(rval)
	}
	return nil
}

// readSyscallArguments reads and validates the argument words of s.
func (t *Task) readSyscallArguments(s Syscall) (arch.SyscallArguments, error) {
	var args arch.SyscallArguments
	sp := t.regs.StackPointer()
	for i := range s.Args {
		addr, ok := arch.ArgAddr(sp, i)
		if !ok {
			return args, kerr.EFAULT
		}
		if err := t.as.ValidateRange(addr, hostarch.WordSize); err != nil {
			return args, err
		}
		arg, err := arch.ReadSyscallArgument(t.as, &t.regs, i)
		if err != nil {
			return args, kerr.EFAULT
		}
		args[i] = arg
	}

	for i, kind := range s.Args {
		switch kind {
		case ArgPath:
			if err := t.as.Validate(args[i].Pointer()); err != nil {
				return args, err
			}
		case ArgBuffer:
			// The following argument is the length, as checked by
			// RegisterSyscallTable.
			if err := t.as.ValidateRange(args[i].Pointer(), args[i+1].Uint()); err != nil {
				return args, err
			}
		}
	}
	return args, nil
}

// fault terminates t for a protocol violation. s is nil if the violation
// happened before the syscall was identified.
func (t *Task) fault(s *Syscall, err error) *SyscallControl {
	name := "unknown syscall"
	if s != nil {
		name = s.Name
	}
	t.k.faultLog.Warningf("[%v] %s: %v, terminating (%v)", t, name, err, t.regs)
	processFaults.Increment()
	t.PrepareExit(pintos.ExitFault)
	return CtrlDoExit
}
