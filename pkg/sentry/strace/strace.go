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

// Package strace implements the logic to print out the input and the return
// value of each traced syscall.
package strace

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/comeintostout/pintos/pkg/hostarch"
	"github.com/comeintostout/pintos/pkg/log"
	"github.com/comeintostout/pintos/pkg/sentry/arch"
	"github.com/comeintostout/pintos/pkg/sentry/kernel"
	"github.com/comeintostout/pintos/pkg/sentry/usermem"
)

// DefaultLogMaximumSize is the default LogMaximumSize.
const DefaultLogMaximumSize = 1024

// LogMaximumSize determines the maximum display size for data buffers and
// path strings.
var LogMaximumSize uint = DefaultLogMaximumSize

// Tracer is a kernel.Stracer that logs every traced syscall at entry and at
// exit.
type Tracer struct {
	// logger is where trace lines go. nil means the global logger.
	logger log.Logger

	// mu protects traced.
	mu sync.RWMutex

	// traced holds the syscall numbers to trace. nil traces everything.
	traced map[uintptr]bool
}

var _ kernel.Stracer = (*Tracer)(nil)

// syscallInfo is passed from SyscallEnter to SyscallExit.
type syscallInfo struct {
	sc   kernel.Syscall
	args arch.SyscallArguments
	desc []string
}

// Enable starts tracing the syscalls of table named in allowlist, or all of
// them if allowlist is empty. It returns an error for an unknown name.
func Enable(table *kernel.SyscallTable, allowlist []string) error {
	return EnableTo(table, allowlist, nil)
}

// EnableTo is like Enable, but logs to logger.
func EnableTo(table *kernel.SyscallTable, allowlist []string, logger log.Logger) error {
	t := &Tracer{logger: logger}
	if len(allowlist) != 0 {
		byName := make(map[string]uintptr, len(table.Table))
		for sysno, sc := range table.Table {
			byName[sc.Name] = sysno
		}
		t.traced = make(map[uintptr]bool, len(allowlist))
		for _, name := range allowlist {
			sysno, ok := byName[name]
			if !ok {
				return fmt.Errorf("syscall %q not found", name)
			}
			t.traced[sysno] = true
		}
	}
	table.Stracer = t
	return nil
}

// Disable stops tracing the syscalls of table.
func Disable(table *kernel.SyscallTable) {
	table.Stracer = nil
}

func (t *Tracer) log() log.Logger {
	if t.logger == nil {
		return log.Log()
	}
	return t.logger
}

func (t *Tracer) traces(sysno uintptr) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.traced == nil || t.traced[sysno]
}

// SyscallEnter implements kernel.Stracer.SyscallEnter.
func (t *Tracer) SyscallEnter(task *kernel.Task, sysno uintptr, args arch.SyscallArguments) any {
	if !t.traces(sysno) {
		return nil
	}
	sc, ok := task.Kernel().SyscallTable().Lookup(sysno)
	if !ok {
		return nil
	}
	info := &syscallInfo{sc: sc, args: args}
	info.desc = pre(task, sc, args)
	t.log().Infof("%s E %s(%s)", task.Name(), sc.Name, strings.Join(info.desc, ", "))
	return info
}

// SyscallExit implements kernel.Stracer.SyscallExit.
func (t *Tracer) SyscallExit(v any, task *kernel.Task, sysno, rval uintptr, err error) {
	info, ok := v.(*syscallInfo)
	if !ok || info == nil {
		return
	}
	post(task, info, rval)
	desc := strings.Join(info.desc, ", ")
	switch {
	case err != nil:
		t.log().Infof("%s X %s(%s) = %d (%v)", task.Name(), info.sc.Name, desc, int32(rval), err)
	case info.sc.Returns:
		t.log().Infof("%s X %s(%s) = %d", task.Name(), info.sc.Name, desc, int32(rval))
	default:
		t.log().Infof("%s X %s(%s)", task.Name(), info.sc.Name, desc)
	}
}

// pre formats the arguments of sc before it runs. Buffers are only dumped
// for writes: the contents of a read buffer are unknown until it returns.
func pre(task *kernel.Task, sc kernel.Syscall, args arch.SyscallArguments) []string {
	desc := make([]string, len(sc.Args))
	for i, kind := range sc.Args {
		switch kind {
		case kernel.ArgInt, kernel.ArgFD:
			desc[i] = strconv.Itoa(int(args[i].Int()))
		case kernel.ArgUint, kernel.ArgSize:
			desc[i] = strconv.FormatUint(uint64(args[i].Uint()), 10)
		case kernel.ArgPath:
			desc[i] = path(task, args[i].Pointer())
		case kernel.ArgBuffer:
			if sc.Name == "write" {
				desc[i] = dump(task, args[i].Pointer(), args[i+1].SizeT())
			} else {
				desc[i] = args[i].Pointer().String()
			}
		default:
			desc[i] = fmt.Sprintf("%#x", args[i].Value)
		}
	}
	return desc
}

// post fills in argument descriptions that depend on the result.
func post(task *kernel.Task, info *syscallInfo, rval uintptr) {
	for i, kind := range info.sc.Args {
		if kind == kernel.ArgBuffer && info.sc.Name == "read" && int32(rval) > 0 {
			info.desc[i] = dump(task, info.args[i].Pointer(), uint(rval))
		}
	}
}

func path(task *kernel.Task, addr hostarch.Addr) string {
	s, err := usermem.CopyStringIn(task.AddressSpace(), addr, int(LogMaximumSize))
	if err != nil {
		return fmt.Sprintf("%v (error decoding path: %v)", addr, err)
	}
	return fmt.Sprintf("%v %q", addr, s)
}

func dump(task *kernel.Task, addr hostarch.Addr, size uint) string {
	origSize := size
	if size > LogMaximumSize {
		size = LogMaximumSize
	}
	b := make([]byte, size)
	amt, err := task.AddressSpace().CopyIn(addr, b)
	if err != nil {
		return fmt.Sprintf("%v (error decoding string: %s)", addr, err)
	}

	dot := ""
	if uint(amt) < origSize {
		// ... if we truncated the dump.
		dot = "..."
	}
	return fmt.Sprintf("%v %q%s", addr, b[:amt], dot)
}
