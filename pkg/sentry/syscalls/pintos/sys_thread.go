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

package pintos

import (
	abi "github.com/comeintostout/pintos/pkg/abi/pintos"
	"github.com/comeintostout/pintos/pkg/errors/kerr"
	"github.com/comeintostout/pintos/pkg/hostarch"
	"github.com/comeintostout/pintos/pkg/sentry/arch"
	"github.com/comeintostout/pintos/pkg/sentry/kernel"
	"github.com/comeintostout/pintos/pkg/sentry/usermem"
)

// Halt implements pintos syscall halt.
func Halt(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	t.Infof("halt")
	t.Kernel().Halt()
	return 0, kernel.CtrlDoHalt, nil
}

// Exit implements pintos syscall exit.
func Exit(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	status := args[0].Int()
	t.PrepareExit(status)
	return 0, kernel.CtrlDoExit, nil
}

// Exec implements pintos syscall exec. The command line is limited to one
// page, terminator included.
func Exec(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	addr := args[0].Pointer()

	cmdline, err := usermem.CopyStringIn(t.AddressSpace(), addr, hostarch.PageSize)
	if err != nil {
		if kerr.IsProtocolViolation(err) {
			return 0, nil, err
		}
		return retInt(abi.TIDError), nil, err
	}

	pid, err := t.Exec(cmdline)
	if err != nil {
		t.Debugf("exec %q: %v", cmdline, err)
		return retInt(abi.TIDError), nil, err
	}
	return retInt(int32(pid)), nil, nil
}

// Wait implements pintos syscall wait.
func Wait(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	pid := kernel.ThreadID(args[0].Int())

	status, err := t.Wait(pid)
	if err != nil {
		return retInt(abi.ExitFault), nil, err
	}
	return retInt(status), nil, nil
}
