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

// Package kerr contains the kernel's error codes exported as error interface
// pointers. This allows for fast comparison and return operations.
//
// The errors fall into two classes. Protocol violations can only be caused by
// a broken or hostile program and cost that program its life; every other
// error is an ordinary failure that a syscall reports back through its return
// value.
package kerr

import (
	"fmt"

	"github.com/comeintostout/pintos/pkg/abi/pintos/errno"
	"github.com/comeintostout/pintos/pkg/errors"
)

// Protocol violations.
var (
	EFAULT = errors.New(errno.EFAULT, "bad address")
	EBADF  = errors.New(errno.EBADF, "bad file number")
	ENOSYS = errors.New(errno.ENOSYS, "invalid system call number")
)

// Ordinary failures.
var (
	ENOENT       = errors.New(errno.ENOENT, "no such file or directory")
	ESRCH        = errors.New(errno.ESRCH, "no such process")
	ECHILD       = errors.New(errno.ECHILD, "no child processes")
	ENOMEM       = errors.New(errno.ENOMEM, "out of memory")
	EACCES       = errors.New(errno.EACCES, "permission denied")
	EEXIST       = errors.New(errno.EEXIST, "file exists")
	EINVAL       = errors.New(errno.EINVAL, "invalid argument")
	EMFILE       = errors.New(errno.EMFILE, "too many open files")
	ETXTBSY      = errors.New(errno.ETXTBSY, "text file busy")
	ENOSPC       = errors.New(errno.ENOSPC, "no space left on device")
	ENAMETOOLONG = errors.New(errno.ENAMETOOLONG, "file name too long")
)

var errorsByErrno = map[errno.Errno]*errors.Error{}

func init() {
	for _, e := range []*errors.Error{
		EFAULT, EBADF, ENOSYS,
		ENOENT, ESRCH, ECHILD, ENOMEM, EACCES, EEXIST, EINVAL, EMFILE,
		ETXTBSY, ENOSPC, ENAMETOOLONG,
	} {
		errorsByErrno[e.Errno()] = e
	}
}

// ErrorFromErrno returns the canonical *errors.Error for e.
func ErrorFromErrno(e errno.Errno) *errors.Error {
	if err, ok := errorsByErrno[e]; ok {
		return err
	}
	return errors.New(e, fmt.Sprintf("errno %d", uint32(e)))
}

// ToErrno returns the errno carried by err, or errno.NOERRNO if err is nil or
// does not carry one.
func ToErrno(err error) errno.Errno {
	if e, ok := err.(*errors.Error); ok && e != nil {
		return e.Errno()
	}
	return errno.NOERRNO
}

// Equals compares an *errors.Error against any error by errno.
func Equals(e *errors.Error, err error) bool {
	if err == nil {
		return e == nil
	}
	return e != nil && ToErrno(err) == e.Errno()
}

// IsProtocolViolation returns true if err must terminate the process that
// caused it. Errors that carry no kernel errno are treated as violations too:
// the kernel cannot tell the process anything meaningful about them.
func IsProtocolViolation(err error) bool {
	if err == nil {
		return false
	}
	switch ToErrno(err) {
	case errno.EFAULT, errno.EBADF, errno.ENOSYS, errno.NOERRNO:
		return true
	}
	return false
}
