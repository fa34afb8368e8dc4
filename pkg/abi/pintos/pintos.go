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

// Package pintos contains the constants of the pintos user/kernel ABI.
package pintos

import "fmt"

// Sysno is a system call number, as read from the top of the trapping user
// stack.
type Sysno uint32

// System call numbers.
const (
	SysHalt Sysno = iota
	SysExit
	SysExec
	SysWait
	SysCreate
	SysRemove
	SysOpen
	SysFilesize
	SysRead
	SysWrite
	SysSeek
	SysTell
	SysClose
)

// NumSyscalls is the size of the closed system call enumeration.
const NumSyscalls = int(SysClose) + 1

var sysnoNames = [...]string{
	SysHalt:     "halt",
	SysExit:     "exit",
	SysExec:     "exec",
	SysWait:     "wait",
	SysCreate:   "create",
	SysRemove:   "remove",
	SysOpen:     "open",
	SysFilesize: "filesize",
	SysRead:     "read",
	SysWrite:    "write",
	SysSeek:     "seek",
	SysTell:     "tell",
	SysClose:    "close",
}

// String implements fmt.Stringer.String.
func (s Sysno) String() string {
	if int(s) < len(sysnoNames) {
		return sysnoNames[s]
	}
	return fmt.Sprintf("sys_%d", uint32(s))
}

// Descriptor numbers.
const (
	// StdinFD is the input stream. It is never stored in a descriptor table.
	StdinFD = 0

	// StdoutFD is the console output stream. It is never stored in a
	// descriptor table.
	StdoutFD = 1

	// FirstFileFD is the lowest descriptor that can name an open file.
	FirstFileFD = 2

	// MaxFDs is the capacity of a process's descriptor table, reserved
	// slots included.
	MaxFDs = 128

	// AutoFD asks the descriptor table to pick the lowest free slot.
	AutoFD = -1
)

// Exit statuses and failure sentinels.
const (
	// ExitFault is the status of a process terminated by the kernel for a
	// protocol violation.
	ExitFault = -1

	// TIDError is returned by exec when no process could be created.
	TIDError = -1

	// FDError is returned by open when no descriptor could be installed.
	FDError = -1
)

// Limits on user-supplied strings.
const (
	// NameMax is the longest file name, in bytes, accepted by create, open
	// and remove.
	NameMax = 14

	// PathScanMax bounds the number of bytes scanned for the terminating
	// NUL of a file name before giving up.
	PathScanMax = 512
)
