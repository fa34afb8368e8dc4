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
	"strings"

	"github.com/comeintostout/pintos/pkg/abi/pintos"
	"github.com/comeintostout/pintos/pkg/errors/kerr"
	"github.com/comeintostout/pintos/pkg/hostarch"
	"github.com/comeintostout/pintos/pkg/sentry/fs"
	"github.com/comeintostout/pintos/pkg/sentry/usermem"
)

// Exec starts the process described by cmdline as a child of t and returns
// its pid. It returns once the new process has been loaded, so an error
// means no process was created.
func (t *Task) Exec(cmdline string) (ThreadID, error) {
	child, err := t.k.exec(t, cmdline)
	if err != nil {
		return pintos.TIDError, err
	}
	return child.pid, nil
}

// exec creates a task running cmdline and starts it.
func (k *Kernel) exec(parent *Task, cmdline string) (*Task, error) {
	argv := strings.Fields(cmdline)
	if len(argv) == 0 {
		return nil, kerr.EINVAL
	}
	if k.IsHalted() {
		return nil, kerr.ESRCH
	}
	prog, ok := k.programs[argv[0]]
	if !ok || prog == nil {
		return nil, kerr.ENOENT
	}

	t, err := k.newTask(parent, argv[0], cmdline)
	if err != nil {
		return nil, err
	}
	t.start(prog, argv)
	return t, nil
}

// newTask builds and registers a task. On error nothing is left behind.
func (k *Kernel) newTask(parent *Task, name, cmdline string) (*Task, error) {
	as := usermem.NewAddressSpace()
	stack, heap, err := k.mapUserRegions(as)
	if err != nil {
		as.Release()
		return nil, err
	}

	// The running image may not be modified. Programs that are not in the
	// filesystem run without an image file.
	var image *fs.File
	k.fsLock.Do(func(fsys fs.Filesystem) error {
		inode, err := fsys.Open(name)
		if err != nil {
			return err
		}
		if image, err = fs.NewFile(inode); err != nil {
			inode.Close()
			return err
		}
		image.DenyWrite()
		return nil
	})

	t := &Task{
		k:        k,
		name:     name,
		cmdline:  cmdline,
		parent:   parent,
		children: make(map[ThreadID]*Task),
		as:       as,
		stack:    stack,
		heap:     heap,
		image:    image,
		exited:   make(chan struct{}),
	}
	t.exitStatus.Store(pintos.ExitFault)
	t.fdTable.Init()
	t.regs.Esp = uint32(stack.End)

	k.mu.Lock()
	pid, err := k.newPIDLocked()
	if err != nil {
		k.mu.Unlock()
		if image != nil {
			k.fsLock.Do(func(fs.Filesystem) error {
				image.Close()
				return nil
			})
		}
		as.Release()
		return nil, err
	}
	t.pid = pid
	k.tasks[pid] = t
	k.mu.Unlock()

	if parent != nil {
		parent.mu.Lock()
		parent.children[pid] = t
		parent.mu.Unlock()
	}
	return t, nil
}

// mapUserRegions maps the stack just below PhysBase and the heap at the
// start of user memory.
func (k *Kernel) mapUserRegions(as *usermem.AddressSpace) (stack, heap hostarch.AddrRange, err error) {
	stack = hostarch.AddrRange{
		Start: hostarch.PhysBase - hostarch.Addr(k.stackPages*hostarch.PageSize),
		End:   hostarch.PhysBase,
	}
	heap = hostarch.AddrRange{
		Start: hostarch.UserCodeBase,
		End:   hostarch.UserCodeBase + hostarch.Addr(k.heapPages*hostarch.PageSize),
	}
	if heap.End > stack.Start {
		return stack, heap, kerr.ENOMEM
	}
	if err := as.Map(stack); err != nil {
		return stack, heap, err
	}
	if err := as.Map(heap); err != nil {
		return stack, heap, err
	}
	return stack, heap, nil
}

// start runs prog on a new task goroutine.
func (t *Task) start(prog Program, argv []string) {
	t.Infof("EXEC: %q", t.cmdline)
	processesStarted.Increment()
	t.k.running.Add(1)
	go t.run(prog, argv) // S/R-SAFE: task goroutine.
}

// run is the task goroutine.
func (t *Task) run(prog Program, argv []string) {
	defer t.k.running.Done()
	defer t.exit()
	defer func() {
		if r := recover(); r != nil {
			t.Warningf("terminated by panic: %v", r)
			processFaults.Increment()
			t.PrepareExit(pintos.ExitFault)
		}
	}()
	prog(t, argv)
}

// Wait blocks until the child with the given pid exits and returns its exit
// status. Only direct children can be waited for, and each only once; ECHILD
// is returned otherwise. If the machine halts, Wait returns ESRCH.
func (t *Task) Wait(pid ThreadID) (int32, error) {
	t.mu.Lock()
	child, ok := t.children[pid]
	if ok {
		delete(t.children, pid)
	}
	t.mu.Unlock()
	if !ok {
		return pintos.ExitFault, kerr.ECHILD
	}

	select {
	case <-child.exited:
		return child.ExitStatus(), nil
	case <-t.k.halted:
		return pintos.ExitFault, kerr.ESRCH
	}
}
