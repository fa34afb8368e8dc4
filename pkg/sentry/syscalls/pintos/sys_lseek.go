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
	"github.com/comeintostout/pintos/pkg/sentry/arch"
	"github.com/comeintostout/pintos/pkg/sentry/kernel"
)

// Seek implements pintos syscall seek. Seeking past end of file is allowed;
// reads there return nothing and writes fail.
func Seek(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	fd := args[0].Int()
	pos := args[1].Uint()

	file, err := t.FDTable().Get(fd)
	if err != nil {
		return 0, nil, err
	}
	return 0, nil, file.SetPos(int64(pos))
}

// Tell implements pintos syscall tell.
func Tell(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) (uintptr, *kernel.SyscallControl, error) {
	fd := args[0].Int()

	file, err := t.FDTable().Get(fd)
	if err != nil {
		return 0, nil, err
	}
	return uintptr(uint32(file.Tell())), nil, nil
}
