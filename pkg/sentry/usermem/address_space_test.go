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
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/comeintostout/pintos/pkg/errors/kerr"
	"github.com/comeintostout/pintos/pkg/hostarch"
)

const (
	lowStart  = hostarch.UserCodeBase
	highStart = hostarch.PhysBase - 2*hostarch.PageSize
)

// newTestAddressSpace maps one page at lowStart and two pages ending at
// PhysBase, leaving everything else unmapped.
func newTestAddressSpace(t *testing.T) *AddressSpace {
	t.Helper()
	as := NewAddressSpace()
	t.Cleanup(as.Release)
	if err := as.Map(hostarch.AddrRange{Start: lowStart, End: lowStart + hostarch.PageSize}); err != nil {
		t.Fatalf("Map low: %v", err)
	}
	if err := as.Map(hostarch.AddrRange{Start: highStart, End: hostarch.PhysBase}); err != nil {
		t.Fatalf("Map high: %v", err)
	}
	return as
}

func TestValidate(t *testing.T) {
	as := newTestAddressSpace(t)
	for _, tc := range []struct {
		name string
		addr hostarch.Addr
		ok   bool
	}{
		{"null", 0, false},
		{"below code", lowStart - 1, false},
		{"first mapped", lowStart, true},
		{"last mapped low", lowStart + hostarch.PageSize - 1, true},
		{"hole", lowStart + hostarch.PageSize, false},
		{"last user byte", hostarch.PhysBase - 1, true},
		{"kernel", hostarch.PhysBase, false},
		{"top", 0xffffffff, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := as.Validate(tc.addr)
			if tc.ok && err != nil {
				t.Errorf("Validate(%v) = %v, want nil", tc.addr, err)
			}
			if !tc.ok && err != kerr.EFAULT {
				t.Errorf("Validate(%v) = %v, want EFAULT", tc.addr, err)
			}
		})
	}
}

func TestValidateRange(t *testing.T) {
	as := newTestAddressSpace(t)
	lowEnd := lowStart + hostarch.PageSize
	for _, tc := range []struct {
		name  string
		start hostarch.Addr
		count uint32
		ok    bool
	}{
		{"empty at mapped", lowStart, 0, true},
		{"empty at null", 0, 0, false},
		{"whole low page", lowStart, hostarch.PageSize, true},
		{"straddles into hole", lowEnd - 4, 8, false},
		{"inside high pair", highStart + 10, hostarch.PageSize, true},
		{"up to PhysBase", hostarch.PhysBase - 16, 16, true},
		{"past PhysBase", hostarch.PhysBase - 16, 17, false},
		{"wraps", 0xfffffff0, 0x20, false},
		// Both ends are mapped but the middle is not.
		{"spans hole", lowStart, uint32(highStart - lowStart + 1), false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := as.ValidateRange(tc.start, tc.count)
			if tc.ok && err != nil {
				t.Errorf("ValidateRange(%v, %d) = %v, want nil", tc.start, tc.count, err)
			}
			if !tc.ok && err != kerr.EFAULT {
				t.Errorf("ValidateRange(%v, %d) = %v, want EFAULT", tc.start, tc.count, err)
			}
		})
	}
}

func TestMapRejects(t *testing.T) {
	as := newTestAddressSpace(t)
	for _, tc := range []struct {
		name string
		ar   hostarch.AddrRange
		want error
	}{
		{"unaligned", hostarch.AddrRange{Start: 0x10001, End: 0x11000}, kerr.EINVAL},
		{"empty", hostarch.AddrRange{Start: 0x10000, End: 0x10000}, kerr.EINVAL},
		{"null page", hostarch.AddrRange{Start: 0, End: hostarch.PageSize}, kerr.EINVAL},
		{"kernel", hostarch.AddrRange{Start: hostarch.PhysBase, End: hostarch.PhysBase + hostarch.PageSize}, kerr.EINVAL},
		{"overlap start", hostarch.AddrRange{Start: lowStart, End: lowStart + hostarch.PageSize}, kerr.EEXIST},
		{"overlap tail", hostarch.AddrRange{Start: lowStart - hostarch.PageSize, End: lowStart + hostarch.PageSize}, kerr.EEXIST},
		{"cover", hostarch.AddrRange{Start: highStart - hostarch.PageSize, End: hostarch.PhysBase}, kerr.EEXIST},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if err := as.Map(tc.ar); err != tc.want {
				t.Errorf("Map(%v) = %v, want %v", tc.ar, err, tc.want)
			}
		})
	}
	want := []hostarch.AddrRange{
		{Start: lowStart, End: lowStart + hostarch.PageSize},
		{Start: highStart, End: hostarch.PhysBase},
	}
	if diff := cmp.Diff(want, as.Mappings()); diff != "" {
		t.Errorf("Mappings() mismatch (-want +got):\n%s", diff)
	}
}

func TestCopyRoundTrip(t *testing.T) {
	as := newTestAddressSpace(t)
	// Cross the page boundary inside the high mapping.
	addr := highStart + hostarch.PageSize - 3
	src := []byte("across pages")
	if n, err := as.CopyOut(addr, src); err != nil || n != len(src) {
		t.Fatalf("CopyOut = %d, %v", n, err)
	}
	dst := make([]byte, len(src))
	if n, err := as.CopyIn(addr, dst); err != nil || n != len(dst) {
		t.Fatalf("CopyIn = %d, %v", n, err)
	}
	if !bytes.Equal(src, dst) {
		t.Errorf("CopyIn got %q, want %q", dst, src)
	}
}

func TestCopyPartial(t *testing.T) {
	as := newTestAddressSpace(t)
	addr := lowStart + hostarch.PageSize - 2
	n, err := as.CopyOut(addr, []byte("abcd"))
	if n != 2 || err != kerr.EFAULT {
		t.Errorf("CopyOut across a hole = %d, %v, want 2, EFAULT", n, err)
	}
}

func TestWords(t *testing.T) {
	as := newTestAddressSpace(t)
	if err := WriteWord(as, lowStart+8, 0xdeadbeef); err != nil {
		t.Fatalf("WriteWord: %v", err)
	}
	v, err := ReadWord(as, lowStart+8)
	if err != nil || v != 0xdeadbeef {
		t.Errorf("ReadWord = %#x, %v", v, err)
	}
	var b [4]byte
	as.CopyIn(lowStart+8, b[:])
	if b != [4]byte{0xef, 0xbe, 0xad, 0xde} {
		t.Errorf("word is not little-endian: % x", b)
	}
	if _, err := ReadWord(as, lowStart+hostarch.PageSize-2); err != kerr.EFAULT {
		t.Errorf("ReadWord straddling a hole = %v, want EFAULT", err)
	}
}

func TestCopyStringIn(t *testing.T) {
	as := newTestAddressSpace(t)
	if _, err := CopyStringOut(as, lowStart, "hello"); err != nil {
		t.Fatalf("CopyStringOut: %v", err)
	}
	if s, err := CopyStringIn(as, lowStart, 64); err != nil || s != "hello" {
		t.Errorf("CopyStringIn = %q, %v", s, err)
	}
	if s, err := CopyStringIn(as, lowStart, 3); err != kerr.ENAMETOOLONG || s != "hel" {
		t.Errorf("CopyStringIn(maxlen 3) = %q, %v, want \"hel\", ENAMETOOLONG", s, err)
	}

	// An unterminated string running off the end of the mapping faults.
	tail := lowStart + hostarch.PageSize - 4
	as.CopyOut(tail, []byte("abcd"))
	if _, err := CopyStringIn(as, tail, 64); err != kerr.EFAULT {
		t.Errorf("CopyStringIn off the end = %v, want EFAULT", err)
	}
	if _, err := CopyStringIn(as, 0, 64); err != kerr.EFAULT {
		t.Errorf("CopyStringIn(null) = %v, want EFAULT", err)
	}
}

func TestUnmapAndRelease(t *testing.T) {
	as := newTestAddressSpace(t)
	if err := as.Unmap(hostarch.AddrRange{Start: highStart, End: highStart + hostarch.PageSize}); err != kerr.EINVAL {
		t.Errorf("partial Unmap = %v, want EINVAL", err)
	}
	if err := as.Unmap(hostarch.AddrRange{Start: lowStart, End: lowStart + hostarch.PageSize}); err != nil {
		t.Fatalf("Unmap: %v", err)
	}
	if err := as.Validate(lowStart); err != kerr.EFAULT {
		t.Errorf("Validate after Unmap = %v, want EFAULT", err)
	}
	as.Release()
	if err := as.Validate(highStart); err != kerr.EFAULT {
		t.Errorf("Validate after Release = %v, want EFAULT", err)
	}
	if err := as.Map(hostarch.AddrRange{Start: lowStart, End: lowStart + hostarch.PageSize}); err != kerr.EINVAL {
		t.Errorf("Map after Release = %v, want EINVAL", err)
	}
}

func TestIOReadWriter(t *testing.T) {
	as := newTestAddressSpace(t)
	w := &IOReadWriter{IO: as, Addr: lowStart}
	if _, err := io.Copy(w, strings.NewReader("stream")); err != nil {
		t.Fatalf("io.Copy: %v", err)
	}
	if w.Addr != lowStart+6 {
		t.Errorf("writer advanced to %v, want %v", w.Addr, lowStart+6)
	}
	r := &IOReadWriter{IO: as, Addr: lowStart}
	got := make([]byte, 6)
	if _, err := io.ReadFull(r, got); err != nil || string(got) != "stream" {
		t.Errorf("ReadFull = %q, %v", got, err)
	}
}
