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

package usermem

import (
	"fmt"
	"sync"

	"github.com/google/btree"
	"golang.org/x/sys/unix"

	"github.com/comeintostout/pintos/pkg/errors/kerr"
	"github.com/comeintostout/pintos/pkg/hostarch"
)

// mapping is one contiguous mapped region of a user address space, backed by
// anonymous host memory.
type mapping struct {
	ar   hostarch.AddrRange
	data []byte
}

func mappingLess(a, b *mapping) bool {
	return a.ar.Start < b.ar.Start
}

// AddressSpace is the user-addressable memory of one process.
//
// It is the kernel's only view of user memory. All access goes through
// Validate, ValidateRange, CopyIn and CopyOut, which refuse the null address,
// anything at or above hostarch.PhysBase and anything not mapped.
type AddressSpace struct {
	mu sync.RWMutex

	// mappings is ordered by start address and never holds overlapping
	// ranges. Protected by mu.
	mappings *btree.BTreeG[*mapping]

	// released is set once Release has returned the backing memory. Protected
	// by mu.
	released bool
}

// NewAddressSpace returns an empty address space.
func NewAddressSpace() *AddressSpace {
	return &AddressSpace{
		mappings: btree.NewG[*mapping](8, mappingLess),
	}
}

// findLocked returns the mapping containing addr, or nil.
//
// Preconditions: as.mu is locked.
func (as *AddressSpace) findLocked(addr hostarch.Addr) *mapping {
	var found *mapping
	as.mappings.DescendLessOrEqual(&mapping{ar: hostarch.AddrRange{Start: addr}}, func(m *mapping) bool {
		if m.ar.Contains(addr) {
			found = m
		}
		return false
	})
	return found
}

// Map makes ar accessible, zero-filled.
func (as *AddressSpace) Map(ar hostarch.AddrRange) error {
	if !ar.WellFormed() || ar.Length() == 0 || !ar.IsPageAligned() {
		return kerr.EINVAL
	}
	if ar.Start == 0 || ar.End > hostarch.PhysBase {
		return kerr.EINVAL
	}

	as.mu.Lock()
	defer as.mu.Unlock()
	if as.released {
		return kerr.EINVAL
	}
	overlap := as.findLocked(ar.Start) != nil
	as.mappings.AscendGreaterOrEqual(&mapping{ar: hostarch.AddrRange{Start: ar.Start}}, func(m *mapping) bool {
		overlap = overlap || m.ar.Start < ar.End
		return false
	})
	if overlap {
		return kerr.EEXIST
	}

	data, err := unix.Mmap(-1, 0, int(ar.Length()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return fmt.Errorf("mapping %v: %w", ar, err)
	}
	as.mappings.ReplaceOrInsert(&mapping{ar: ar, data: data})
	return nil
}

// Unmap removes every mapping contained in ar. A mapping that only partially
// overlaps ar is an error and leaves the address space unchanged.
func (as *AddressSpace) Unmap(ar hostarch.AddrRange) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	var victims []*mapping
	bad := false
	as.mappings.Ascend(func(m *mapping) bool {
		if !m.ar.Overlaps(ar) {
			return true
		}
		if !ar.IsSupersetOf(m.ar) {
			bad = true
			return false
		}
		victims = append(victims, m)
		return true
	})
	if bad {
		return kerr.EINVAL
	}
	for _, m := range victims {
		as.mappings.Delete(m)
		if err := unix.Munmap(m.data); err != nil {
			return fmt.Errorf("unmapping %v: %w", m.ar, err)
		}
	}
	return nil
}

// Release unmaps everything. The address space is unusable afterwards; every
// access faults.
func (as *AddressSpace) Release() {
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.released {
		return
	}
	as.released = true
	as.mappings.Ascend(func(m *mapping) bool {
		unix.Munmap(m.data)
		return true
	})
	as.mappings.Clear(false)
}

// Mappings returns the mapped ranges in address order.
func (as *AddressSpace) Mappings() []hostarch.AddrRange {
	as.mu.RLock()
	defer as.mu.RUnlock()
	ars := make([]hostarch.AddrRange, 0, as.mappings.Len())
	as.mappings.Ascend(func(m *mapping) bool {
		ars = append(ars, m.ar)
		return true
	})
	return ars
}

// Validate returns EFAULT unless addr is a non-null, mapped user address.
func (as *AddressSpace) Validate(addr hostarch.Addr) error {
	if !addr.IsUser() {
		return kerr.EFAULT
	}
	as.mu.RLock()
	defer as.mu.RUnlock()
	if as.findLocked(addr) == nil {
		return kerr.EFAULT
	}
	return nil
}

// ValidateRange returns EFAULT unless every address in [start, start+count)
// is a valid user address. A buffer may straddle mapped and unmapped memory,
// so the interior is checked, not just the ends: each step of the walk finds
// the mapping holding the next unchecked unit, and that mapping vouches for
// all of its units.
//
// The start address is always validated, even when count is zero.
func (as *AddressSpace) ValidateRange(start hostarch.Addr, count uint32) error {
	if err := as.Validate(start); err != nil {
		return err
	}
	ar, ok := start.ToRange(count)
	if !ok || ar.End > hostarch.PhysBase {
		return kerr.EFAULT
	}

	as.mu.RLock()
	defer as.mu.RUnlock()
	for addr := ar.Start; addr < ar.End; {
		m := as.findLocked(addr)
		if m == nil {
			return kerr.EFAULT
		}
		addr = m.ar.End
	}
	return nil
}

// copy moves bytes between b and user memory at addr. It stops at the first
// unit that is not a valid user address.
func (as *AddressSpace) copy(addr hostarch.Addr, b []byte, out bool) (int, error) {
	as.mu.RLock()
	defer as.mu.RUnlock()

	done := 0
	for done < len(b) {
		cur, ok := addr.AddLength(uint32(done))
		if !ok || !cur.IsUser() {
			return done, kerr.EFAULT
		}
		m := as.findLocked(cur)
		if m == nil {
			return done, kerr.EFAULT
		}
		off := int(cur - m.ar.Start)
		var n int
		if out {
			n = copy(m.data[off:], b[done:])
		} else {
			n = copy(b[done:], m.data[off:])
		}
		done += n
	}
	return done, nil
}

// CopyIn implements IO.CopyIn.
func (as *AddressSpace) CopyIn(addr hostarch.Addr, dst []byte) (int, error) {
	return as.copy(addr, dst, false)
}

// CopyOut implements IO.CopyOut.
func (as *AddressSpace) CopyOut(addr hostarch.Addr, src []byte) (int, error) {
	return as.copy(addr, src, true)
}
