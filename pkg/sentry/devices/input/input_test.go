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

package input

import (
	"strings"
	"testing"
)

func TestGetc(t *testing.T) {
	d := New(strings.NewReader("ab"))
	for _, want := range []byte("ab") {
		if c, ok := d.Getc(); !ok || c != want {
			t.Fatalf("Getc() = %q, %t, want %q", c, ok, want)
		}
	}
	for i := 0; i < 2; i++ {
		if _, ok := d.Getc(); ok {
			t.Errorf("Getc() at end of input returned ok")
		}
	}
}
