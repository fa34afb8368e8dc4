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

// Package errno holds the error numbers reported by the pintos kernel.
//
// The numbering matches the Linux values for the same conditions so that
// traces read familiarly.
package errno

// Errno represents a kernel error number.
type Errno uint32

// Error numbers.
const (
	NOERRNO      Errno = 0
	ENOENT       Errno = 2
	ESRCH        Errno = 3
	EBADF        Errno = 9
	ECHILD       Errno = 10
	ENOMEM       Errno = 12
	EACCES       Errno = 13
	EFAULT       Errno = 14
	EEXIST       Errno = 17
	EINVAL       Errno = 22
	EMFILE       Errno = 24
	ETXTBSY      Errno = 26
	ENOSPC       Errno = 28
	ENAMETOOLONG Errno = 36
	ENOSYS       Errno = 38
)
