// Copyright 2018 The gVisor Authors.
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

package drivers

import "testing"

func TestNewUserAllocatorRoundsUpToPageSize(t *testing.T) {
	a, err := NewUserAllocator(1)
	if err != nil {
		t.Fatalf("NewUserAllocator: %v", err)
	}
	defer a.Release()
	if len(a.Bytes()) != pageSize {
		t.Fatalf("len(Bytes()) = %d, want %d", len(a.Bytes()), pageSize)
	}
}

func TestUserAllocatorCloneIsIndependentCopy(t *testing.T) {
	a, err := NewUserAllocator(pageSize)
	if err != nil {
		t.Fatalf("NewUserAllocator: %v", err)
	}
	defer a.Release()
	a.Bytes()[0] = 0xAB

	clone := a.Clone().(*UserAllocator)
	defer clone.Release()

	if clone.Bytes()[0] != 0xAB {
		t.Fatalf("clone did not inherit parent's contents at offset 0")
	}

	clone.Bytes()[0] = 0xCD
	if a.Bytes()[0] != 0xAB {
		t.Fatalf("mutating the clone mutated the parent: parent = %#x, want 0xab", a.Bytes()[0])
	}
}

func TestUserAllocatorReleaseIsIdempotent(t *testing.T) {
	a, err := NewUserAllocator(pageSize)
	if err != nil {
		t.Fatalf("NewUserAllocator: %v", err)
	}
	a.Release()
	a.Release() // must not double-munmap or panic
	if a.Bytes() != nil {
		t.Fatalf("Bytes() non-nil after Release")
	}
}
