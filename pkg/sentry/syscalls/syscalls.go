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

// Package syscalls is the interface from the application to the kernel.
// Traditionally, syscalls is the interface that is used by applications to
// request services from the kernel of a operating system.
//
// Note that the stubs in this package may merely provide the interface, not
// the actual implementation. It just makes writing syscall tables
// straightforward.
package syscalls

import (
	"github.com/comeintostout/pintos/pkg/sentry/arch"
	"github.com/comeintostout/pintos/pkg/sentry/kernel"
)

// Supported returns a syscall that is fully supported and stores a result.
func Supported(name string, fn kernel.SyscallFn, args ...kernel.ArgKind) kernel.Syscall {
	return kernel.Syscall{
		Name:    name,
		Fn:      fn,
		Args:    args,
		Returns: true,
	}
}

// NoResult returns a syscall that is fully supported and leaves the result
// register untouched.
func NoResult(name string, fn kernel.SyscallFn, args ...kernel.ArgKind) kernel.Syscall {
	return kernel.Syscall{
		Name: name,
		Fn:   fn,
		Args: args,
	}
}

// Error returns a syscall that will always give the passed error.
func Error(name string, err error, args ...kernel.ArgKind) kernel.Syscall {
	return kernel.Syscall{
		Name: name,
		Fn: func(*kernel.Task, uintptr, arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
			return 0, nil, err
		},
		Args: args,
	}
}
