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

// Package boot loads the kernel and runs the initial processes.
package boot

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	abi "github.com/comeintostout/pintos/pkg/abi/pintos"
	"github.com/comeintostout/pintos/pkg/log"
	"github.com/comeintostout/pintos/pkg/sentry/devices/console"
	"github.com/comeintostout/pintos/pkg/sentry/devices/input"
	"github.com/comeintostout/pintos/pkg/sentry/fsimpl/tmpfs"
	"github.com/comeintostout/pintos/pkg/sentry/kernel"
	"github.com/comeintostout/pintos/pkg/sentry/syscalls/pintos"
	"github.com/comeintostout/pintos/pintos/config"
)

// Args are the arguments for New().
type Args struct {
	// Conf is the machine configuration.
	Conf *config.Config

	// Stdin feeds the input device.
	Stdin io.Reader

	// Stdout receives console output.
	Stdout io.Writer

	// Programs are the programs exec can start.
	Programs map[string]kernel.Program
}

// Loader keeps state needed to start the kernel and run the initial
// processes.
type Loader struct {
	k    *kernel.Kernel
	fsys *tmpfs.Filesystem
}

// New initializes a new kernel loader configured by args.
func New(args Args) (*Loader, error) {
	conf := args.Conf
	fsys := tmpfs.New(conf.DiskSize)
	if conf.RootFS != "" {
		if err := preload(fsys, conf.RootFS); err != nil {
			return nil, fmt.Errorf("loading root filesystem: %w", err)
		}
	}

	// Tracing is set up on a private copy of the table, so that loaders do
	// not trace each other's processes.
	table := &kernel.SyscallTable{Name: pintos.Table.Name, Table: pintos.Table.Table}
	if err := enableStrace(conf, table); err != nil {
		return nil, fmt.Errorf("enabling strace: %w", err)
	}

	k, err := kernel.New(kernel.InitKernelArgs{
		Filesystem:   fsys,
		Console:      console.New(args.Stdout),
		Input:        input.New(args.Stdin),
		Programs:     args.Programs,
		SyscallTable: table,
		StackPages:   conf.StackPages,
		HeapPages:    conf.HeapPages,
	})
	if err != nil {
		return nil, fmt.Errorf("creating kernel: %w", err)
	}
	return &Loader{k: k, fsys: fsys}, nil
}

// Kernel returns the kernel being run.
func (l *Loader) Kernel() *kernel.Kernel {
	return l.k
}

// Filesystem returns the filesystem shared by every process.
func (l *Loader) Filesystem() *tmpfs.Filesystem {
	return l.fsys
}

// Run starts one initial process per command line and waits for all of them
// to exit. It returns the exit status of the first. If the machine halts,
// processes still running count as exiting with -1.
//
// If ctx is cancelled, or a process cannot be started, the machine is halted
// and Run returns the error.
func (l *Loader) Run(ctx context.Context, cmdlines []string) (int32, error) {
	if len(cmdlines) == 0 {
		return abi.ExitFault, fmt.Errorf("no command line to run")
	}
	statuses := make([]int32, len(cmdlines))
	g, gctx := errgroup.WithContext(ctx)
	for i, cmdline := range cmdlines {
		i, cmdline := i, cmdline
		g.Go(func() error {
			t, err := l.k.CreateProcess(cmdline)
			if err != nil {
				statuses[i] = abi.ExitFault
				return fmt.Errorf("starting %q: %w", cmdline, err)
			}
			log.Infof("Started %v for %q", t, cmdline)
			select {
			case <-t.Exited():
				statuses[i] = t.ExitStatus()
			case <-l.k.Halted():
				statuses[i] = abi.ExitFault
			case <-gctx.Done():
				statuses[i] = abi.ExitFault
				return gctx.Err()
			}
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		l.k.Halt()
	}
	log.Infof("Initial processes finished with statuses %v", statuses)
	return statuses[0], err
}
