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

	"github.com/comeintostout/pintos/pkg/sentry/fs"
)

// FSLock serializes every use of the kernel's filesystem. The storage layer
// is not safe for concurrent use, so the Filesystem is only reachable through
// Do.
type FSLock struct {
	mu sync.Mutex
	fs fs.Filesystem
}

// Do runs fn with exclusive access to the filesystem and returns its error.
// The lock is released however fn returns, panics included.
func (l *FSLock) Do(fn func(fs.Filesystem) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(l.fs)
}
