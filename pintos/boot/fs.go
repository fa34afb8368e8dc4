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

package boot

import (
	"fmt"
	"os"
	"path/filepath"

	abi "github.com/comeintostout/pintos/pkg/abi/pintos"
	"github.com/comeintostout/pintos/pkg/log"
	"github.com/comeintostout/pintos/pkg/sentry/fsimpl/tmpfs"
)

// preload copies the regular files at the top of the host directory dir into
// fsys. Entries that are not regular files, or whose names the kernel cannot
// open, are skipped.
func preload(fsys *tmpfs.Filesystem, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() {
			log.Debugf("Root filesystem: skipping %q, not a regular file", name)
			continue
		}
		if len(name) > abi.NameMax {
			log.Warningf("Root filesystem: skipping %q, name longer than %d bytes", name, abi.NameMax)
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		if err := fsys.Put(name, data); err != nil {
			return fmt.Errorf("copying %q: %w", name, err)
		}
		log.Debugf("Root filesystem: loaded %q, %d bytes", name, len(data))
	}
	return nil
}
