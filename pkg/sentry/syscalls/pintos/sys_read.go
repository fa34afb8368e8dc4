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
	"github.com/comeintostout/pintos/pkg/sentry/fs"
	"github.com/comeintostout/pintos/pkg/sentry/kernel"
)

// Read implements pintos syscall read.
//
// Reading standard input returns early at end of input or at a NUL byte,
// which is not stored. Reading a file starts at its cursor and advances it.
func Read(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	fd := args[0].Int()
	addr := args[1].Pointer()
	size := args[2].SizeT()

	switch {
	case fd == abi.StdinFD:
		return readInput(t, addr, size)
	case fd == abi.StdoutFD || fd < 0:
		return 0, nil, kerr.EBADF
	}

	buf := make([]byte, size)
	var n int
	err := t.Kernel().FSLock().Do(func(fs.Filesystem) error {
		file, err := t.FDTable().Get(fd)
		if err != nil {
			return err
		}
		n = file.Read(buf)
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	if _, err := t.AddressSpace().CopyOut(addr, buf[:n]); err != nil {
		return 0, nil, err
	}
	return uintptr(n), nil, nil
}

// readInput reads from the input device. The device has its own lock.
func readInput(t *kernel.Task, addr hostarch.Addr, size uint) (uintptr, *kernel.SyscallControl, error) {
	in := t.Kernel().Input()
	buf := make([]byte, 0, size)
	for uint(len(buf)) < size {
		c, ok := in.Getc()
		if !ok || c == 0 {
			break
		}
		buf = append(buf, c)
	}
	if _, err := t.AddressSpace().CopyOut(addr, buf); err != nil {
		return 0, nil, err
	}
	return uintptr(len(buf)), nil, nil
}
