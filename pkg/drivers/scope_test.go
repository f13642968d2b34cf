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

func TestAllocatorScopeStartsBackup(t *testing.T) {
	s := NewAllocatorScope()
	if s.Active() != BACKUP {
		t.Fatalf("Active() = %v, want BACKUP", s.Active())
	}
}

func TestAllocatorScopeEnterUserAndRestore(t *testing.T) {
	s := NewAllocatorScope()
	restore := s.EnterUser()
	if s.Active() != USER {
		t.Fatalf("Active() = %v, want USER", s.Active())
	}
	restore()
	if s.Active() != BACKUP {
		t.Fatalf("Active() = %v after restore, want BACKUP", s.Active())
	}
}

func TestAllocatorScopeRestoreIsPriorViewNotAlwaysBackup(t *testing.T) {
	s := NewAllocatorScope()
	outer := s.EnterUser()
	inner := s.EnterUser() // nested entry, e.g. a fault taken while already in USER
	inner()
	if s.Active() != USER {
		t.Fatalf("Active() after inner restore = %v, want USER (outer scope's view)", s.Active())
	}
	outer()
	if s.Active() != BACKUP {
		t.Fatalf("Active() after outer restore = %v, want BACKUP", s.Active())
	}
}

func TestAllocatorScopeBindReturnsLastBound(t *testing.T) {
	s := NewAllocatorScope()
	if s.Allocator() != nil {
		t.Fatalf("Allocator() = %v before any Bind, want nil", s.Allocator())
	}

	first, err := NewUserAllocator(1)
	if err != nil {
		t.Fatalf("NewUserAllocator: %v", err)
	}
	defer first.Release()
	s.Bind(first)
	if s.Allocator() != first {
		t.Fatalf("Allocator() after first Bind did not return the bound allocator")
	}

	second, err := NewUserAllocator(1)
	if err != nil {
		t.Fatalf("NewUserAllocator: %v", err)
	}
	defer second.Release()
	s.Bind(second)
	if s.Allocator() != second {
		t.Fatalf("Allocator() after second Bind did not return the newly bound allocator")
	}
}

func TestViewString(t *testing.T) {
	if BACKUP.String() != "BACKUP" {
		t.Fatalf("BACKUP.String() = %q, want %q", BACKUP.String(), "BACKUP")
	}
	if USER.String() != "USER" {
		t.Fatalf("USER.String() = %q, want %q", USER.String(), "USER")
	}
}
