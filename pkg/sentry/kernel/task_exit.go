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
	"github.com/comeintostout/pintos/pkg/sentry/fs"
)

// PrepareExit records the exit status of t and stops it from executing any
// further syscalls. Only the first call has an effect.
func (t *Task) PrepareExit(status int32) {
	if t.exiting.CompareAndSwap(false, true) {
		t.exitStatus.Store(status)
	}
}

// Exiting returns true once PrepareExit has been called.
func (t *Task) Exiting() bool {
	return t.exiting.Load()
}

// exit tears the task down: it prints the termination notice, closes every
// open file and the program image, releases the address space and wakes the
// parent. It runs once, on the task goroutine, as it finishes.
func (t *Task) exit() {
	t.exitOnce.Do(func() {
		t.exiting.Store(true)
		status := t.ExitStatus()

		// A halted machine is off: nothing more reaches the console.
		if !t.k.IsHalted() {
			t.k.console.Printf("%s: exit(%d)\n", t.name, status)
		}

		t.k.fsLock.Do(func(fs.Filesystem) error {
			// A negative descriptor sweeps every slot.
			t.fdTable.Remove(-1)
			if t.image != nil {
				t.image.Close()
				t.image = nil
			}
			return nil
		})
		t.as.Release()

		// Orphans are never waited for.
		t.mu.Lock()
		t.children = nil
		t.mu.Unlock()

		t.k.mu.Lock()
		delete(t.k.tasks, t.pid)
		t.k.mu.Unlock()

		t.Infof("exited with status %d", status)
		close(t.exited)
	})
}
