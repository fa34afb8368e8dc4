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

package pintos_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	abi "github.com/comeintostout/pintos/pkg/abi/pintos"
	"github.com/comeintostout/pintos/pkg/hostarch"
	"github.com/comeintostout/pintos/pkg/sentry/devices/console"
	"github.com/comeintostout/pintos/pkg/sentry/devices/input"
	"github.com/comeintostout/pintos/pkg/sentry/fsimpl/tmpfs"
	"github.com/comeintostout/pintos/pkg/sentry/kernel"
	"github.com/comeintostout/pintos/pkg/sentry/syscalls/pintos"
	"github.com/comeintostout/pintos/pkg/user"
)

type machine struct {
	k    *kernel.Kernel
	fsys *tmpfs.Filesystem
	out  *bytes.Buffer
}

func newMachine(t *testing.T, stdin string, progs map[string]func(p *user.Proc, argv []string) int) *machine {
	t.Helper()
	m := &machine{fsys: tmpfs.New(0), out: new(bytes.Buffer)}
	programs := make(map[string]kernel.Program)
	for name, main := range progs {
		programs[name] = user.Main(main)
	}
	k, err := kernel.New(kernel.InitKernelArgs{
		Filesystem:   m.fsys,
		Console:      console.New(m.out),
		Input:        input.New(strings.NewReader(stdin)),
		Programs:     programs,
		SyscallTable: pintos.Table,
	})
	if err != nil {
		t.Fatalf("kernel.New failed: %v", err)
	}
	m.k = k
	return m
}

// run starts cmdline and returns its exit status once every process is gone.
func (m *machine) run(t *testing.T, cmdline string) int32 {
	t.Helper()
	task, err := m.k.CreateProcess(cmdline)
	if err != nil {
		t.Fatalf("CreateProcess(%q) failed: %v", cmdline, err)
	}
	<-task.Exited()
	m.k.WaitExited()
	return task.ExitStatus()
}

// contents returns the bytes stored under name.
func (m *machine) contents(t *testing.T, name string) string {
	t.Helper()
	inode, err := m.fsys.Open(name)
	if err != nil {
		t.Fatalf("Open(%q) failed: %v", name, err)
	}
	defer inode.Close()
	buf := make([]byte, inode.Length())
	n := inode.ReadAt(buf, 0)
	return string(buf[:n])
}

func TestFileLifecycle(t *testing.T) {
	type result struct {
		Created, CreatedAgain bool
		FD                    int32
		Wrote                 int32
		TellAfterWrite        uint32
		Size                  int32
		Contents              string
		ReadAtEnd             int32
		WroteAtEnd            int32
		SizeAfterWrite        int32
		Removed               bool
		OpenRemoved           int32
	}
	var got result
	m := newMachine(t, "", map[string]func(*user.Proc, []string) int{
		"test": func(p *user.Proc, _ []string) int {
			got.Created = p.Create("a", 10)
			got.CreatedAgain = p.Create("a", 10)
			fd := p.Open("a")
			got.FD = fd
			got.Wrote = p.WriteBytes(fd, []byte("hello"))
			got.TellAfterWrite = p.Tell(fd)
			got.Size = p.Filesize(fd)
			p.Seek(fd, 0)
			got.Contents = string(p.ReadBytes(fd, 20))
			got.ReadAtEnd = int32(len(p.ReadBytes(fd, 4)))
			p.Seek(fd, 8)
			got.WroteAtEnd = p.WriteBytes(fd, []byte("xyz"))
			got.SizeAfterWrite = p.Filesize(fd)
			p.Close(fd)
			got.Removed = p.Remove("a")
			got.OpenRemoved = p.Open("a")
			return 0
		},
	})
	if status := m.run(t, "test"); status != 0 {
		t.Fatalf("test exited with %d, output %q", status, m.out.String())
	}
	want := result{
		Created:        true,
		CreatedAgain:   false,
		FD:             2,
		Wrote:          5,
		TellAfterWrite: 5,
		Size:           10,
		Contents:       "hello\x00\x00\x00\x00\x00",
		ReadAtEnd:      0,
		WroteAtEnd:     2,
		SizeAfterWrite: 10,
		Removed:        true,
		OpenRemoved:    -1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected results (-want +got):\n%s", diff)
	}
}

func TestCreateBeyondCapacity(t *testing.T) {
	type result struct {
		Huge, Repeated, Full, Over, Open bool
	}
	var got result
	m := newMachine(t, "", map[string]func(*user.Proc, []string) int{
		"test": func(p *user.Proc, _ []string) int {
			got.Huge = p.Create("huge", 0xffffffff)
			for i := 0; i < 64; i++ {
				got.Repeated = got.Repeated || p.Create(fmt.Sprintf("huge%d", i), 0xffffffff)
			}
			got.Full = p.Create("full", tmpfs.DefaultCapacity)
			got.Over = p.Create("over", 1)
			got.Open = p.Open("huge") != abi.FDError
			return 0
		},
	})
	if status := m.run(t, "test"); status != 0 {
		t.Fatalf("test exited with %d, output %q", status, m.out.String())
	}
	if diff := cmp.Diff(result{Full: true}, got); diff != "" {
		t.Errorf("unexpected results (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"full"}, m.fsys.Names()); diff != "" {
		t.Errorf("filesystem names mismatch (-want +got):\n%s", diff)
	}
}

func TestSeekTell(t *testing.T) {
	var tells []uint32
	var pastEnd []int32
	m := newMachine(t, "", map[string]func(*user.Proc, []string) int{
		"test": func(p *user.Proc, _ []string) int {
			p.Create("f", 16)
			fd := p.Open("f")
			tells = append(tells, p.Tell(fd))
			p.ReadBytes(fd, 3)
			tells = append(tells, p.Tell(fd))
			p.WriteBytes(fd, []byte("abcd"))
			tells = append(tells, p.Tell(fd))
			p.Seek(fd, 11)
			tells = append(tells, p.Tell(fd))
			p.Seek(fd, 100)
			tells = append(tells, p.Tell(fd))
			pastEnd = append(pastEnd, int32(len(p.ReadBytes(fd, 4))), p.WriteBytes(fd, []byte("x")))
			return 0
		},
	})
	if status := m.run(t, "test"); status != 0 {
		t.Fatalf("test exited with %d", status)
	}
	if diff := cmp.Diff([]uint32{0, 3, 7, 11, 100}, tells); diff != "" {
		t.Errorf("tell results (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int32{0, 0}, pastEnd); diff != "" {
		t.Errorf("transfers past end of file (-want +got):\n%s", diff)
	}
}

func TestOpenDescriptors(t *testing.T) {
	var (
		first    []int32
		reused   int32
		last     int32
		overflow int32
	)
	m := newMachine(t, "", map[string]func(*user.Proc, []string) int{
		"test": func(p *user.Proc, _ []string) int {
			p.Create("f", 0)
			for i := 0; i < 3; i++ {
				first = append(first, p.Open("f"))
			}
			p.Close(first[1])
			reused = p.Open("f")
			for fd := int32(5); fd < abi.MaxFDs; fd++ {
				last = p.Open("f")
			}
			overflow = p.Open("f")
			return 0
		},
	})
	if status := m.run(t, "test"); status != 0 {
		t.Fatalf("test exited with %d", status)
	}
	if diff := cmp.Diff([]int32{2, 3, 4}, first); diff != "" {
		t.Errorf("first descriptors (-want +got):\n%s", diff)
	}
	if reused != 3 {
		t.Errorf("open after closing 3 returned %d, want 3", reused)
	}
	if last != abi.MaxFDs-1 {
		t.Errorf("last open returned %d, want %d", last, abi.MaxFDs-1)
	}
	if overflow != abi.FDError {
		t.Errorf("open with a full table returned %d, want %d", overflow, abi.FDError)
	}
	st, err := m.fsys.Stat("f")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if st.OpenCount != 0 {
		t.Errorf("%d references left open after exit", st.OpenCount)
	}
}

func TestCloseConsoleStreams(t *testing.T) {
	m := newMachine(t, "", map[string]func(*user.Proc, []string) int{
		"test": func(p *user.Proc, _ []string) int {
			p.Close(abi.StdinFD)
			p.Close(abi.StdoutFD)
			p.Printf("still here\n")
			return 3
		},
	})
	if status := m.run(t, "test"); status != 3 {
		t.Errorf("test exited with %d, want 3", status)
	}
	if got, want := m.out.String(), "still here\ntest: exit(3)\n"; got != want {
		t.Errorf("console = %q, want %q", got, want)
	}
}

func TestReadInput(t *testing.T) {
	var reads []string
	m := newMachine(t, "ab\x00cdefg", map[string]func(*user.Proc, []string) int{
		"test": func(p *user.Proc, _ []string) int {
			reads = append(reads,
				string(p.ReadBytes(abi.StdinFD, 10)),
				string(p.ReadBytes(abi.StdinFD, 2)),
				string(p.ReadBytes(abi.StdinFD, 10)),
				string(p.ReadBytes(abi.StdinFD, 10)))
			return 0
		},
	})
	if status := m.run(t, "test"); status != 0 {
		t.Fatalf("test exited with %d", status)
	}
	if diff := cmp.Diff([]string{"ab", "cd", "efg", ""}, reads); diff != "" {
		t.Errorf("reads (-want +got):\n%s", diff)
	}
}

func TestConsoleWritesAreContiguous(t *testing.T) {
	const children = 4
	const blockSize = 1024
	m := newMachine(t, "", map[string]func(*user.Proc, []string) int{
		"writer": func(p *user.Proc, argv []string) int {
			p.WriteBytes(abi.StdoutFD, bytes.Repeat([]byte(argv[1]), blockSize))
			return 0
		},
		"parent": func(p *user.Proc, _ []string) int {
			var pids []int32
			for i := 0; i < children; i++ {
				pids = append(pids, p.Exec(fmt.Sprintf("writer %c", 'a'+i)))
			}
			for _, pid := range pids {
				if p.Wait(pid) != 0 {
					return 1
				}
			}
			return 0
		},
	})
	if status := m.run(t, "parent"); status != 0 {
		t.Fatalf("parent exited with %d", status)
	}
	out := m.out.String()
	for i := 0; i < children; i++ {
		block := strings.Repeat(string(rune('a'+i)), blockSize)
		if !strings.Contains(out, block) {
			t.Errorf("output of writer %c was interleaved", 'a'+i)
		}
	}
}

func TestProtocolViolations(t *testing.T) {
	for _, tc := range []struct {
		name string
		body func(p *user.Proc)
	}{
		{"write null buffer", func(p *user.Proc) { p.Write(abi.StdoutFD, 0, 5) }},
		{"write kernel buffer", func(p *user.Proc) { p.Write(abi.StdoutFD, hostarch.PhysBase, 1) }},
		{"write straddling buffer", func(p *user.Proc) {
			end := p.Task().HeapRange().End
			p.Write(abi.StdoutFD, end-4, 8)
		}},
		{"write file from null buffer", func(p *user.Proc) {
			p.Write(p.Open("existing"), 0, 4)
		}},
		{"write file from straddling buffer", func(p *user.Proc) {
			fd := p.Open("existing")
			end := p.Task().HeapRange().End
			p.Task().AddressSpace().CopyOut(end-2, []byte("XY"))
			p.Write(fd, end-2, 4)
		}},
		{"write file from kernel buffer", func(p *user.Proc) {
			p.Write(p.Open("existing"), hostarch.PhysBase-2, 4)
		}},
		{"read into unmapped buffer", func(p *user.Proc) { p.Read(abi.StdinFD, 0x1000, 4) }},
		{"create null name", func(p *user.Proc) { p.Syscall(abi.SysCreate, 0, 4) }},
		{"create unterminated name", func(p *user.Proc) {
			end := p.Task().HeapRange().End
			p.Task().AddressSpace().CopyOut(end-3, []byte("new"))
			p.Syscall(abi.SysCreate, uint32(end-3), 4)
		}},
		{"open kernel name", func(p *user.Proc) { p.Syscall(abi.SysOpen, uint32(hostarch.PhysBase)) }},
		{"exec null command line", func(p *user.Proc) { p.Syscall(abi.SysExec, 0) }},
		{"remove null name", func(p *user.Proc) { p.Syscall(abi.SysRemove, 0) }},
		{"read stdout", func(p *user.Proc) { p.ReadBytes(abi.StdoutFD, 1) }},
		{"write stdin", func(p *user.Proc) { p.WriteBytes(abi.StdinFD, []byte("x")) }},
		{"filesize unopened", func(p *user.Proc) { p.Filesize(5) }},
		{"read unopened", func(p *user.Proc) { p.ReadBytes(5, 1) }},
		{"seek negative", func(p *user.Proc) { p.Seek(-3, 0) }},
		{"tell out of range", func(p *user.Proc) { p.Tell(200) }},
		{"close unopened", func(p *user.Proc) { p.Close(9) }},
		{"close negative", func(p *user.Proc) { p.Close(-1) }},
		{"close twice", func(p *user.Proc) {
			fd := p.Open("existing")
			p.Close(fd)
			p.Close(fd)
		}},
		{"unknown syscall", func(p *user.Proc) { p.Syscall(abi.Sysno(abi.NumSyscalls)) }},
		{"stack pointer at PhysBase", func(p *user.Proc) { p.Trap(hostarch.PhysBase) }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			survived := false
			m := newMachine(t, "input", map[string]func(*user.Proc, []string) int{
				"test": func(p *user.Proc, _ []string) int {
					tc.body(p)
					survived = true
					return 0
				},
			})
			if err := m.fsys.Put("existing", []byte("abcd")); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			if status := m.run(t, "test"); status != abi.ExitFault {
				t.Errorf("test exited with %d, want %d", status, abi.ExitFault)
			}
			if survived {
				t.Errorf("process survived")
			}
			if got, want := m.out.String(), "test: exit(-1)\n"; got != want {
				t.Errorf("console = %q, want %q", got, want)
			}
			if diff := cmp.Diff([]string{"existing"}, m.fsys.Names()); diff != "" {
				t.Errorf("filesystem changed (-want +got):\n%s", diff)
			}
			if got, want := m.contents(t, "existing"), "abcd"; got != want {
				t.Errorf("existing holds %q, want %q", got, want)
			}
		})
	}
}

func TestNameRules(t *testing.T) {
	var got []bool
	var opens []int32
	m := newMachine(t, "", map[string]func(*user.Proc, []string) int{
		"test": func(p *user.Proc, _ []string) int {
			got = append(got,
				p.Create("", 0),
				p.Create(strings.Repeat("n", abi.NameMax+1), 0),
				p.Create(strings.Repeat("n", abi.NameMax), 0),
				p.Remove("missing"),
				p.Remove(""))
			opens = append(opens,
				p.Open(""),
				p.Open("missing"),
				p.Open(strings.Repeat("n", abi.NameMax+1)))
			return 0
		},
	})
	if status := m.run(t, "test"); status != 0 {
		t.Fatalf("test exited with %d", status)
	}
	if diff := cmp.Diff([]bool{false, false, true, false, false}, got); diff != "" {
		t.Errorf("create/remove results (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int32{-1, -1, -1}, opens); diff != "" {
		t.Errorf("open results (-want +got):\n%s", diff)
	}
}

func TestExecWait(t *testing.T) {
	var results []int32
	m := newMachine(t, "", map[string]func(*user.Proc, []string) int{
		"child": func(p *user.Proc, argv []string) int {
			p.Printf("%s\n", strings.Join(argv, ","))
			p.Exit(7)
			return 0
		},
		"parent": func(p *user.Proc, _ []string) int {
			pid := p.Exec("child  one two")
			results = append(results,
				p.Wait(pid),
				p.Wait(pid),
				p.Exec("missing"),
				p.Exec(""),
				p.Wait(pid+1000))
			return 0
		},
	})
	if status := m.run(t, "parent"); status != 0 {
		t.Fatalf("parent exited with %d", status)
	}
	if diff := cmp.Diff([]int32{7, -1, -1, -1, -1}, results); diff != "" {
		t.Errorf("exec/wait results (-want +got):\n%s", diff)
	}
	if got, want := m.out.String(), "child,one,two\nchild: exit(7)\nparent: exit(0)\n"; got != want {
		t.Errorf("console = %q, want %q", got, want)
	}
}

func TestRunningImageWriteDenied(t *testing.T) {
	var wrote int32
	m := newMachine(t, "", map[string]func(*user.Proc, []string) int{
		"prog": func(p *user.Proc, _ []string) int {
			fd := p.Open("prog")
			wrote = p.WriteBytes(fd, []byte("patch"))
			return 0
		},
	})
	if err := m.fsys.Put("prog", []byte("original")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if status := m.run(t, "prog"); status != 0 {
		t.Fatalf("prog exited with %d", status)
	}
	if wrote != 0 {
		t.Errorf("write to the running image returned %d, want 0", wrote)
	}
	st, err := m.fsys.Stat("prog")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if st.DenyWrites != 0 {
		t.Errorf("image still write-denied after exit: %+v", st)
	}
}

func TestHalt(t *testing.T) {
	reached := false
	m := newMachine(t, "", map[string]func(*user.Proc, []string) int{
		"test": func(p *user.Proc, _ []string) int {
			p.Printf("before\n")
			p.Halt()
			reached = true
			return 0
		},
	})
	m.run(t, "test")
	if reached {
		t.Errorf("halt returned")
	}
	if !m.k.IsHalted() {
		t.Errorf("machine is not halted")
	}
	if got, want := m.out.String(), "before\n"; got != want {
		t.Errorf("console = %q, want %q", got, want)
	}
}
