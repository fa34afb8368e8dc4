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
	"sync"
	"testing"

	"github.com/comeintostout/pintos/pkg/sentry/fs"
	"github.com/comeintostout/pintos/pkg/sentry/fsimpl/tmpfs"
)

func TestFSLockPassesFilesystem(t *testing.T) {
	fsys := tmpfs.New(0)
	l := FSLock{fs: fsys}
	err := l.Do(func(got fs.Filesystem) error {
		if got != fs.Filesystem(fsys) {
			t.Errorf("Do passed %v, want %v", got, fsys)
		}
		return got.Create("a", 1)
	})
	if err != nil {
		t.Fatalf("Do returned %v", err)
	}
	if err := l.Do(func(got fs.Filesystem) error { return got.Create("a", 1) }); err == nil {
		t.Errorf("Do did not return the error of fn")
	}
}

func TestFSLockReleasedOnPanic(t *testing.T) {
	l := FSLock{fs: tmpfs.New(0)}
	func() {
		defer func() { recover() }()
		l.Do(func(fs.Filesystem) error { panic("boom") })
	}()

	done := make(chan struct{})
	go func() {
		l.Do(func(fs.Filesystem) error { return nil })
		close(done)
	}()
	<-done
}

func TestFSLockSerializes(t *testing.T) {
	l := FSLock{fs: tmpfs.New(0)}
	const goroutines, iterations = 8, 1000
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				l.Do(func(fs.Filesystem) error {
					counter++
					return nil
				})
			}
		}()
	}
	wg.Wait()
	if counter != goroutines*iterations {
		t.Errorf("counter = %d, want %d", counter, goroutines*iterations)
	}
}
