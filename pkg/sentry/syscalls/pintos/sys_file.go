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
	"github.com/comeintostout/pintos/pkg/sentry/usermem"
)

// copyInName copies in a file name. A bad pointer anywhere in the string is
// EFAULT. An empty name is EINVAL and a name longer than NameMax is
// ENAMETOOLONG; both are ordinary failures.
func copyInName(t *kernel.Task, addr hostarch.Addr) (string, error) {
	name, err := usermem.CopyStringIn(t.AddressSpace(), addr, abi.PathScanMax)
	if err != nil {
		return "", err
	}
	if len(name) == 0 {
		return "", kerr.EINVAL
	}
	if len(name) > abi.NameMax {
		return "", kerr.ENAMETOOLONG
	}
	return name, nil
}

// Create implements pintos syscall create.
func Create(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	addr := args[0].Pointer()
	size := args[1].Uint()

	name, err := copyInName(t, addr)
	if err != nil {
		return retBool(false), nil, err
	}
	err = t.Kernel().FSLock().Do(func(fsys fs.Filesystem) error {
		return fsys.Create(name, int64(size))
	})
	return retBool(err == nil), nil, err
}

// Remove implements pintos syscall remove.
func Remove(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	addr := args[0].Pointer()

	name, err := copyInName(t, addr)
	if err != nil {
		return retBool(false), nil, err
	}
	err = t.Kernel().FSLock().Do(func(fsys fs.Filesystem) error {
		return fsys.Remove(name)
	})
	return retBool(err == nil), nil, err
}

// Open implements pintos syscall open.
func Open(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	addr := args[0].Pointer()

	name, err := copyInName(t, addr)
	if err != nil {
		return retInt(abi.FDError), nil, err
	}

	fd := int32(abi.FDError)
	err = t.Kernel().FSLock().Do(func(fsys fs.Filesystem) error {
		inode, err := fsys.Open(name)
		if err != nil {
			return err
		}
		file, err := fs.NewFile(inode)
		if err != nil {
			inode.Close()
			return err
		}
		if fd, err = t.FDTable().Insert(file, abi.AutoFD); err != nil {
			file.Close()
			return err
		}
		return nil
	})
	if err != nil {
		return retInt(abi.FDError), nil, err
	}
	return retInt(fd), nil, nil
}

// Filesize implements pintos syscall filesize.
func Filesize(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	fd := args[0].Int()

	var size int64
	err := t.Kernel().FSLock().Do(func(fs.Filesystem) error {
		file, err := t.FDTable().Get(fd)
		if err != nil {
			return err
		}
		size = file.Length()
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return retInt(int32(size)), nil, nil
}

// Close implements pintos syscall close. Closing a console stream does
// nothing.
func Close(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	fd := args[0].Int()

	if fd == abi.StdinFD || fd == abi.StdoutFD {
		return 0, nil, nil
	}
	if fd < 0 {
		// Remove would read this as a request to close everything.
		return 0, nil, kerr.EBADF
	}
	err := t.Kernel().FSLock().Do(func(fs.Filesystem) error {
		return t.FDTable().Remove(fd)
	})
	return 0, nil, err
}
