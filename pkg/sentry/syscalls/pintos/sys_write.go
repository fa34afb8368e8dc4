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
	"github.com/comeintostout/pintos/pkg/sentry/arch"
	"github.com/comeintostout/pintos/pkg/sentry/fs"
	"github.com/comeintostout/pintos/pkg/sentry/kernel"
)

// Write implements pintos syscall write.
//
// A console write is emitted as one block. A file write starts at the
// cursor, advances it, and stops short at end of file.
func Write(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	fd := args[0].Int()
	addr := args[1].Pointer()
	size := args[2].SizeT()

	if fd == abi.StdinFD || fd < 0 {
		return 0, nil, kerr.EBADF
	}

	buf := make([]byte, size)
	if _, err := t.AddressSpace().CopyIn(addr, buf); err != nil {
		return 0, nil, err
	}

	if fd == abi.StdoutFD {
		n, err := t.Kernel().Console().PutBuf(buf)
		if err != nil {
			t.Warningf("console write: %v", err)
		}
		return uintptr(n), nil, nil
	}

	var n int
	err := t.Kernel().FSLock().Do(func(fs.Filesystem) error {
		file, err := t.FDTable().Get(fd)
		if err != nil {
			return err
		}
		n = file.Write(buf)
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return uintptr(n), nil, nil
}
