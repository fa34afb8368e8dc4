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

// Package errors defines the error type that the pintos kernel reports
// through its syscalls. Every kernel error carries one of the numbers in
// pkg/abi/pintos/errno; the values themselves live in pkg/errors/kerr.
package errors

import (
	"github.com/comeintostout/pintos/pkg/abi/pintos/errno"
)

// Error is a kernel error: an errno that user space can be told about, and
// the text used in logs and strace output.
type Error struct {
	errno   errno.Errno
	message string
}

// New returns an Error for err described by message. Errors are compared by
// pointer, so each errno should have a single Error, declared in kerr.
func New(err errno.Errno, message string) *Error {
	return &Error{errno: err, message: message}
}

// Error implements error.Error.
func (e *Error) Error() string { return e.message }

// Errno returns the errno carried by e.
func (e *Error) Errno() errno.Errno { return e.errno }
