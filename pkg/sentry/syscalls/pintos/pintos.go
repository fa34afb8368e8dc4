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

// Package pintos provides syscall tables for the pintos user ABI.
package pintos

import (
	abi "github.com/comeintostout/pintos/pkg/abi/pintos"
	"github.com/comeintostout/pintos/pkg/sentry/kernel"
	"github.com/comeintostout/pintos/pkg/sentry/syscalls"
)

// TableName is the name Table is registered under.
const TableName = "pintos"

// Table is the table of pintos syscalls.
var Table = &kernel.SyscallTable{
	Name: TableName,
	Table: map[uintptr]kernel.Syscall{
		uintptr(abi.SysHalt):     syscalls.NoResult("halt", Halt),
		uintptr(abi.SysExit):     syscalls.NoResult("exit", Exit, kernel.ArgInt),
		uintptr(abi.SysExec):     syscalls.Supported("exec", Exec, kernel.ArgPath),
		uintptr(abi.SysWait):     syscalls.Supported("wait", Wait, kernel.ArgInt),
		uintptr(abi.SysCreate):   syscalls.Supported("create", Create, kernel.ArgPath, kernel.ArgUint),
		uintptr(abi.SysRemove):   syscalls.Supported("remove", Remove, kernel.ArgPath),
		uintptr(abi.SysOpen):     syscalls.Supported("open", Open, kernel.ArgPath),
		uintptr(abi.SysFilesize): syscalls.Supported("filesize", Filesize, kernel.ArgFD),
		uintptr(abi.SysRead):     syscalls.Supported("read", Read, kernel.ArgFD, kernel.ArgBuffer, kernel.ArgSize),
		uintptr(abi.SysWrite):    syscalls.Supported("write", Write, kernel.ArgFD, kernel.ArgBuffer, kernel.ArgSize),
		uintptr(abi.SysSeek):     syscalls.NoResult("seek", Seek, kernel.ArgFD, kernel.ArgUint),
		uintptr(abi.SysTell):     syscalls.Supported("tell", Tell, kernel.ArgFD),
		uintptr(abi.SysClose):    syscalls.NoResult("close", Close, kernel.ArgFD),
	},
}

func init() {
	kernel.RegisterSyscallTable(Table)
}

// retInt returns v as a result register value.
func retInt(v int32) uintptr {
	return uintptr(uint32(v))
}

// retBool returns b as a result register value.
func retBool(b bool) uintptr {
	if b {
		return 1
	}
	return 0
}
