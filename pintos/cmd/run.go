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

// Package cmd holds implementations of the pintos commands.
package cmd

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/containerd/console"
	"github.com/google/subcommands"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/comeintostout/pintos/pkg/log"
	"github.com/comeintostout/pintos/pkg/metric"
	"github.com/comeintostout/pintos/pintos/boot"
	"github.com/comeintostout/pintos/pintos/cmd/util"
	"github.com/comeintostout/pintos/pintos/config"
	"github.com/comeintostout/pintos/pintos/programs"
)

// Run implements subcommands.Command for the "run" command.
type Run struct{}

// Name implements subcommands.Command.Name.
func (*Run) Name() string {
	return "run"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Run) Synopsis() string {
	return "boot a machine and run user programs"
}

// Usage implements subcommands.Command.Usage.
func (*Run) Usage() string {
	return `run [flags] <command line>... - boot a machine and run each command line as an initial process.

Each command line is one argument, e.g. run 'echo hello' 'cat notes'. The
exit status is the status of the first process.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Run) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (r *Run) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() < 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)
	waitStatus := args[1].(*unix.WaitStatus)

	if conf.RawTTY && term.IsTerminal(int(os.Stdin.Fd())) {
		c, err := console.ConsoleFromFile(os.Stdin)
		if err != nil {
			util.Fatalf("opening terminal: %v", err)
		}
		if err := c.SetRaw(); err != nil {
			util.Fatalf("setting terminal to raw mode: %v", err)
		}
		defer func() {
			if err := c.Reset(); err != nil {
				log.Warningf("Restoring terminal: %v", err)
			}
		}()
	}

	l, err := boot.New(boot.Args{
		Conf:     conf,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Programs: programs.Programs(),
	})
	if err != nil {
		util.Fatalf("creating loader: %v", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, unix.SIGTERM)
	defer stop()
	status, err := l.Run(ctx, f.Args())
	if err != nil {
		util.Errorf("running: %v", err)
	}

	if conf.Metrics {
		if err := metric.WritePrometheus(os.Stderr); err != nil {
			util.Errorf("writing metrics: %v", err)
		}
	}

	*waitStatus = unix.WaitStatus(uint32(uint8(status)) << 8)
	return subcommands.ExitSuccess
}
