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

// Package config provides basic infrastructure to set configuration settings
// for pintos. Each setting is registered as a flag and may also be set from a
// TOML file given with --config.
package config

import (
	"fmt"

	"github.com/comeintostout/pintos/pkg/log"
)

// Config holds configuration that is not part of the command lines being
// run.
type Config struct {
	// ConfigFile is a TOML file whose top-level keys are flag names. Flags
	// set on the command line take precedence over the file.
	ConfigFile string `flag:"config"`

	// RootFS is a host directory whose regular files are copied into the
	// in-memory filesystem before any process starts.
	RootFS string `flag:"rootfs"`

	// DiskSize caps the bytes stored in the in-memory filesystem. Zero
	// selects tmpfs.DefaultCapacity.
	DiskSize int64 `flag:"disk-size"`

	// StackPages and HeapPages size the user memory of every process.
	StackPages int `flag:"stack-pages"`
	HeapPages  int `flag:"heap-pages"`

	// LogFilename is the filename to log to, if not empty.
	LogFilename string `flag:"log"`

	// LogFormat is the log format.
	LogFormat string `flag:"log-format"`

	// Debug indicates that debug logging should be enabled.
	Debug bool `flag:"debug"`

	// DebugLog is the path to log debug information to, if not empty. It
	// may contain %TIMESTAMP%, %COMMAND% and %PID%.
	DebugLog string `flag:"debug-log"`

	// AlsoLogToStderr allows to send log messages to stderr.
	AlsoLogToStderr bool `flag:"alsologtostderr"`

	// Strace indicates that strace should be enabled.
	Strace bool `flag:"strace"`

	// StraceSyscalls is the set of syscalls to trace (comma-separated
	// values). If Strace is true and this string is empty, then all
	// syscalls will be traced.
	StraceSyscalls string `flag:"strace-syscalls"`

	// StraceLogSize is the max size of data blobs to display.
	StraceLogSize uint `flag:"strace-log-size"`

	// Metrics prints the kernel metrics in Prometheus text format to stderr
	// once the run finishes.
	Metrics bool `flag:"metrics"`

	// RawTTY puts a terminal on stdin in raw mode for the run, so that the
	// input device sees each key as it is typed.
	RawTTY bool `flag:"raw-tty"`
}

func (c *Config) validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q, must be 'text' or 'json'", c.LogFormat)
	}
	if c.DiskSize < 0 {
		return fmt.Errorf("disk-size must be non-negative, got %d", c.DiskSize)
	}
	if c.StackPages < 0 || c.HeapPages < 0 {
		return fmt.Errorf("stack-pages and heap-pages must be non-negative, got %d and %d", c.StackPages, c.HeapPages)
	}
	return nil
}

// Log logs important aspects of the configuration to the given log function.
func (c *Config) Log() {
	log.Infof("Config.RootFS: %q", c.RootFS)
	log.Infof("Config.DiskSize: %d", c.DiskSize)
	log.Infof("Config.StackPages: %d, Config.HeapPages: %d", c.StackPages, c.HeapPages)
	log.Infof("Config.Debug: %t", c.Debug)
	log.Infof("Config.Strace: %t, Config.StraceSyscalls: %q", c.Strace, c.StraceSyscalls)
	for _, f := range c.ToFlags() {
		log.Debugf("Config flag: %s", f)
	}
}
