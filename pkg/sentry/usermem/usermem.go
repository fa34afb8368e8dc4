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

// Package usermem governs access to user memory.
package usermem

import (
	"encoding/binary"

	"github.com/comeintostout/pintos/pkg/errors/kerr"
	"github.com/comeintostout/pintos/pkg/hostarch"
)

// IO provides access to the contents of a user address space.
type IO interface {
	// CopyOut copies len(src) bytes from src to the memory mapped at addr. It
	// returns the number of bytes copied. If the number of bytes copied is <
	// len(src), it returns a non-nil error explaining why.
	CopyOut(addr hostarch.Addr, src []byte) (int, error)

	// CopyIn copies len(dst) bytes from the memory mapped at addr to dst.
	// It returns the number of bytes copied. If the number of bytes copied is
	// < len(dst), it returns a non-nil error explaining why.
	CopyIn(addr hostarch.Addr, dst []byte) (int, error)
}

// IOReadWriter is an io.ReadWriter that reads from / writes to addresses
// starting at Addr in IO. The preconditions that apply to IO.CopyIn and
// IO.CopyOut also apply to IOReadWriter.Read and IOReadWriter.Write
// respectively.
type IOReadWriter struct {
	IO   IO
	Addr hostarch.Addr
}

// Read implements io.Reader.Read.
//
// Note that an address space does not have an "end of file". Attempts to read
// unmapped memory, or beyond the end of the user address space, return
// EFAULT.
func (rw *IOReadWriter) Read(dst []byte) (int, error) {
	n, err := rw.IO.CopyIn(rw.Addr, dst)
	end, ok := rw.Addr.AddLength(uint32(n))
	if ok {
		rw.Addr = end
	} else {
		// Disallow wraparound.
		rw.Addr = ^hostarch.Addr(0)
		if err == nil {
			err = kerr.EFAULT
		}
	}
	return n, err
}

// Write implements io.Writer.Write.
func (rw *IOReadWriter) Write(src []byte) (int, error) {
	n, err := rw.IO.CopyOut(rw.Addr, src)
	end, ok := rw.Addr.AddLength(uint32(n))
	if ok {
		rw.Addr = end
	} else {
		// Disallow wraparound.
		rw.Addr = ^hostarch.Addr(0)
		if err == nil {
			err = kerr.EFAULT
		}
	}
	return n, err
}

// ReadWord reads the 32-bit little-endian word at addr.
func ReadWord(uio IO, addr hostarch.Addr) (uint32, error) {
	var b [hostarch.WordSize]byte
	if _, err := uio.CopyIn(addr, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// WriteWord writes v as a 32-bit little-endian word at addr.
func WriteWord(uio IO, addr hostarch.Addr, v uint32) error {
	var b [hostarch.WordSize]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := uio.CopyOut(addr, b[:])
	return err
}

// CopyStringIn copies a NUL-terminated string of unknown length from the
// memory mapped at addr in uio and returns it as a string (not including the
// trailing NUL). If the length of the string, including the terminating NUL,
// would exceed maxlen, CopyStringIn returns the string truncated to maxlen
// and ENAMETOOLONG.
//
// Every byte up to and including the NUL is read through uio, so every byte
// is checked against the address space before the string is accepted.
func CopyStringIn(uio IO, addr hostarch.Addr, maxlen int) (string, error) {
	buf := make([]byte, maxlen)
	var done int
	for done < maxlen {
		start, ok := addr.AddLength(uint32(done))
		if !ok {
			return string(buf[:done]), kerr.EFAULT
		}
		readlen := hostarch.PageSize - int(start.PageOffset())
		if readlen > maxlen-done {
			readlen = maxlen - done
		}
		n, err := uio.CopyIn(start, buf[done:done+readlen])
		// Look for the terminating zero byte, which may have occurred before
		// hitting err.
		for i, c := range buf[done : done+n] {
			if c == 0 {
				return string(buf[:done+i]), nil
			}
		}
		done += n
		if err != nil {
			return string(buf[:done]), err
		}
	}
	return string(buf), kerr.ENAMETOOLONG
}

// CopyStringOut copies s followed by a NUL byte to addr.
func CopyStringOut(uio IO, addr hostarch.Addr, s string) (int, error) {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return uio.CopyOut(addr, b)
}
