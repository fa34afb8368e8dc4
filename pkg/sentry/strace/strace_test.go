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

package strace_test

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	abi "github.com/comeintostout/pintos/pkg/abi/pintos"
	"github.com/comeintostout/pintos/pkg/log"
	"github.com/comeintostout/pintos/pkg/sentry/devices/console"
	"github.com/comeintostout/pintos/pkg/sentry/devices/input"
	"github.com/comeintostout/pintos/pkg/sentry/fsimpl/tmpfs"
	"github.com/comeintostout/pintos/pkg/sentry/kernel"
	"github.com/comeintostout/pintos/pkg/sentry/strace"
	"github.com/comeintostout/pintos/pkg/sentry/syscalls/pintos"
	"github.com/comeintostout/pintos/pkg/user"
)

// recorder is a log.Logger that keeps every line.
type recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *recorder) add(format string, v ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, fmt.Sprintf(format, v...))
}

func (r *recorder) Debugf(format string, v ...any)   { r.add(format, v...) }
func (r *recorder) Infof(format string, v ...any)    { r.add(format, v...) }
func (r *recorder) Warningf(format string, v ...any) { r.add(format, v...) }
func (r *recorder) IsLogging(log.Level) bool         { return true }

// newTable returns an unregistered copy of the pintos table, so tracing it
// does not affect other tests.
func newTable() *kernel.SyscallTable {
	return &kernel.SyscallTable{Name: "strace-test", Table: pintos.Table.Table}
}

func runTraced(t *testing.T, table *kernel.SyscallTable, stdin string, main func(p *user.Proc, argv []string) int) {
	t.Helper()
	k, err := kernel.New(kernel.InitKernelArgs{
		Filesystem:   tmpfs.New(0),
		Console:      console.New(new(bytes.Buffer)),
		Input:        input.New(strings.NewReader(stdin)),
		Programs:     map[string]kernel.Program{"test": user.Main(main)},
		SyscallTable: table,
	})
	if err != nil {
		t.Fatalf("kernel.New failed: %v", err)
	}
	task, err := k.CreateProcess("test")
	if err != nil {
		t.Fatalf("CreateProcess failed: %v", err)
	}
	<-task.Exited()
	k.WaitExited()
}

func TestTrace(t *testing.T) {
	table := newTable()
	rec := &recorder{}
	if err := strace.EnableTo(table, []string{"write", "open", "read"}, rec); err != nil {
		t.Fatalf("EnableTo failed: %v", err)
	}
	runTraced(t, table, "xyz", func(p *user.Proc, _ []string) int {
		p.WriteBytes(abi.StdoutFD, []byte("hi"))
		p.Open("f")
		p.ReadBytes(abi.StdinFD, 8)
		return 0
	})

	want := []string{
		`test E write(1, 0x8048000 "hi", 2)`,
		`test X write(1, 0x8048000 "hi", 2) = 2`,
		`test E open(0x8048000 "f")`,
		`test X open(0x8048000 "f") = -1 (no such file or directory)`,
		`test E read(0, 0x8048000, 8)`,
		`test X read(0, 0x8048000 "xyz", 8) = 3`,
	}
	if diff := cmp.Diff(want, rec.lines); diff != "" {
		t.Errorf("trace (-want +got):\n%s", diff)
	}
}

func TestTraceAll(t *testing.T) {
	table := newTable()
	rec := &recorder{}
	if err := strace.EnableTo(table, nil, rec); err != nil {
		t.Fatalf("EnableTo failed: %v", err)
	}
	runTraced(t, table, "", func(p *user.Proc, _ []string) int {
		p.Close(abi.StdoutFD)
		return 4
	})

	want := []string{
		`test E close(1)`,
		`test X close(1)`,
		`test E exit(4)`,
		`test X exit(4)`,
	}
	if diff := cmp.Diff(want, rec.lines); diff != "" {
		t.Errorf("trace (-want +got):\n%s", diff)
	}
}

func TestTruncatedDump(t *testing.T) {
	defer func(old uint) { strace.LogMaximumSize = old }(strace.LogMaximumSize)
	strace.LogMaximumSize = 4

	table := newTable()
	rec := &recorder{}
	if err := strace.EnableTo(table, []string{"write"}, rec); err != nil {
		t.Fatalf("EnableTo failed: %v", err)
	}
	runTraced(t, table, "", func(p *user.Proc, _ []string) int {
		p.WriteBytes(abi.StdoutFD, []byte("abcdefgh"))
		return 0
	})

	if len(rec.lines) == 0 {
		t.Fatalf("nothing traced")
	}
	if got, want := rec.lines[0], `test E write(1, 0x8048000 "abcd"..., 8)`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEnableUnknown(t *testing.T) {
	table := newTable()
	if err := strace.Enable(table, []string{"write", "fork"}); err == nil {
		t.Errorf("Enable with an unknown syscall succeeded")
	}
	if table.Stracer != nil {
		t.Errorf("failed Enable installed a tracer")
	}
}

func TestDisable(t *testing.T) {
	table := newTable()
	rec := &recorder{}
	if err := strace.EnableTo(table, nil, rec); err != nil {
		t.Fatalf("EnableTo failed: %v", err)
	}
	strace.Disable(table)
	runTraced(t, table, "", func(p *user.Proc, _ []string) int { return 0 })
	if len(rec.lines) != 0 {
		t.Errorf("disabled tracer logged %q", rec.lines)
	}
}
