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

// Package hostarch describes the address layout of pintos user processes.
//
// User programs run with a 32-bit ABI: every address and every syscall word
// is 32 bits wide regardless of the host architecture.
package hostarch

import (
	"fmt"
)

const (
	// PageShift is the binary log of PageSize.
	PageShift = 12

	// PageSize is the size of a user page in bytes.
	PageSize = 1 << PageShift

	// WordSize is the size of a user stack word in bytes.
	WordSize = 4

	// PhysBase is the first address that is not user-addressable. Every
	// user address is strictly below it.
	PhysBase Addr = 0xc0000000

	// UserCodeBase is where user images conventionally begin. Addresses
	// below it are never mapped.
	UserCodeBase Addr = 0x08048000
)

// Addr represents a user virtual address.
type Addr uint32

// String implements fmt.Stringer.String.
func (v Addr) String() string {
	return fmt.Sprintf("%#x", uint32(v))
}

// RoundDown returns the address rounded down to the nearest page boundary.
func (v Addr) RoundDown() Addr {
	return v & ^Addr(PageSize-1)
}

// RoundUp returns the address rounded up to the nearest page boundary. ok is
// true iff rounding up did not wrap around.
func (v Addr) RoundUp() (addr Addr, ok bool) {
	addr = Addr(v + PageSize - 1).RoundDown()
	ok = addr >= v
	return
}

// MustRoundUp is equivalent to RoundUp, but panics if rounding up wraps
// around.
func (v Addr) MustRoundUp() Addr {
	addr, ok := v.RoundUp()
	if !ok {
		panic(fmt.Sprintf("hostarch.Addr(%d).RoundUp() wraps", v))
	}
	return addr
}

// PageOffset returns the offset of v into the current page.
func (v Addr) PageOffset() uint32 {
	return uint32(v & Addr(PageSize-1))
}

// IsPageAligned returns true if v.PageOffset() == 0.
func (v Addr) IsPageAligned() bool {
	return v.PageOffset() == 0
}

// IsUser returns true if v is a non-null address below PhysBase. It says
// nothing about whether v is mapped.
func (v Addr) IsUser() bool {
	return v != 0 && v < PhysBase
}

// AddLength adds the given length to start and returns the result. ok is true
// iff adding the length did not overflow the 32-bit address space.
func (v Addr) AddLength(length uint32) (end Addr, ok bool) {
	end = v + Addr(length)
	// The computation cannot overflow unless the result is smaller.
	ok = end >= v
	return
}

// ToRange returns [v, v+length).
func (v Addr) ToRange(length uint32) (AddrRange, bool) {
	end, ok := v.AddLength(length)
	return AddrRange{v, end}, ok
}

// PageRoundDown rounds a length down to a multiple of PageSize.
func PageRoundDown(x uint32) uint32 {
	return x &^ (PageSize - 1)
}

// PageRoundUp rounds a length up to a multiple of PageSize. ok is true iff
// rounding up did not wrap around.
func PageRoundUp(x uint32) (addr uint32, ok bool) {
	addr = PageRoundDown(x + PageSize - 1)
	ok = addr >= x
	return
}
