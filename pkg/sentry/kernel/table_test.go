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

package kernel

import (
	"testing"

	"github.com/comeintostout/pintos/pkg/sentry/arch"
)

const (
	maxTestSyscall = 100
)

func createSyscallTable() *SyscallTable {
	m := make(map[uintptr]Syscall)
	for i := uintptr(0); i <= maxTestSyscall; i++ {
		j := i
		m[i] = Syscall{
			Fn: func(*Task, uintptr, arch.SyscallArguments) (uintptr, *SyscallControl, error) {
				return j, nil, nil
			},
		}
	}

	s := &SyscallTable{
		Name:  "test",
		Table: m,
	}

	RegisterSyscallTable(s)
	return s
}

func TestTable(t *testing.T) {
	table := createSyscallTable()
	defer func() {
		// Cleanup registered tables to keep tests separate.
		allSyscallTables = []*SyscallTable{}
	}()

	// Go through all functions and check that they return the right value.
	for i := uintptr(0); i < maxTestSyscall; i++ {
		sc, ok := table.Lookup(i)
		if !ok {
			t.Errorf("Syscall %v is not found", i)
			continue
		}

		v, _, _ := sc.Fn(nil, i, arch.SyscallArguments{})
		if v != i {
			t.Errorf("Wrong return value for syscall %v: expected %v, got %v", i, i, v)
		}
	}

	// Check that values outside the range are not found.
	for i := uintptr(maxTestSyscall + 1); i < maxTestSyscall+100; i++ {
		if _, ok := table.Lookup(i); ok {
			t.Errorf("Syscall %v is found", i)
		}
	}

	if got, ok := LookupSyscallTable("test"); !ok || got != table {
		t.Errorf("LookupSyscallTable(test) = %v, %t; want the registered table", got, ok)
	}
	if len(SyscallTables()) != 1 {
		t.Errorf("SyscallTables() has %d tables, want 1", len(SyscallTables()))
	}
}

func TestRegisterSyscallTableRejects(t *testing.T) {
	defer func() {
		allSyscallTables = []*SyscallTable{}
	}()
	fn := func(*Task, uintptr, arch.SyscallArguments) (uintptr, *SyscallControl, error) { return 0, nil, nil }

	for _, tc := range []struct {
		name string
		args []ArgKind
	}{
		{"too many", []ArgKind{ArgInt, ArgInt, ArgInt, ArgInt}},
		{"trailing buffer", []ArgKind{ArgFD, ArgBuffer}},
		{"buffer without size", []ArgKind{ArgBuffer, ArgInt}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("RegisterSyscallTable accepted %v", tc.args)
				}
			}()
			RegisterSyscallTable(&SyscallTable{Table: map[uintptr]Syscall{0: {Name: "bad", Fn: fn, Args: tc.args}}})
		})
	}
	if len(allSyscallTables) != 0 {
		t.Errorf("rejected tables were registered: %v", allSyscallTables)
	}
}

func TestSyscallString(t *testing.T) {
	sc := Syscall{Name: "read", Args: []ArgKind{ArgFD, ArgBuffer, ArgSize}}
	if got, want := sc.String(), "read(fd, buffer, size)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := (Syscall{Name: "halt"}).String(), "halt()"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestSyscallName(t *testing.T) {
	table := &SyscallTable{Table: map[uintptr]Syscall{8: {Name: "read"}}}
	if got := table.SyscallName(8); got != "read" {
		t.Errorf("SyscallName(8) = %q, want read", got)
	}
	if got := table.SyscallName(9); got != "write" {
		t.Errorf("SyscallName(9) = %q, want write", got)
	}
	if got := table.SyscallName(99); got != "sys_99" {
		t.Errorf("SyscallName(99) = %q, want sys_99", got)
	}
}
