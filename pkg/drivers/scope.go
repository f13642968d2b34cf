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

import (
	"sync"

	"github.com/aarch64os/kernel/pkg/process"
)

// View names which allocator view the MMU's TTBR0-relative addressing is
// currently bound to: BACKUP is the kernel's own view, active whenever the
// core is not mid-trap; USER is the faulting process's view, bound for the
// duration of exception handling so a syscall or fault handler addressing
// user memory goes through that process's own page tables.
type View int

const (
	BACKUP View = iota
	USER
)

// String implements fmt.Stringer.
func (v View) String() string {
	switch v {
	case BACKUP:
		return "BACKUP"
	case USER:
		return "USER"
	default:
		return "unknown"
	}
}

// AllocatorScope tracks the currently bound allocator view. pkg/traps swaps
// to USER on exception entry and restores the prior view on every exit
// path via a deferred call to the function EnterUser returns, so a
// handler's panic cannot leave the core mid-trap with the wrong view bound.
//
// It also tracks which process's concrete Allocator the USER view currently
// resolves to: Bind is called by the scheduler's selection loop every time
// a new process is chosen to run, so a handler that needs the running
// process's user pages (a page fault, or a future syscall that copies to or
// from user memory) can reach them through Allocator() without threading a
// *process.Process through the dispatcher.
type AllocatorScope struct {
	mu      sync.Mutex
	active  View
	current process.Allocator
}

// NewAllocatorScope returns a scope with BACKUP active, the state the core
// is in outside of exception handling.
func NewAllocatorScope() *AllocatorScope {
	return &AllocatorScope{active: BACKUP}
}

// EnterUser swaps the active view to USER and returns a restore function
// that swaps back to whatever view was active before. Callers must defer
// the restore immediately so it runs unconditionally, including on panic.
func (s *AllocatorScope) EnterUser() (restore func()) {
	s.mu.Lock()
	prev := s.active
	s.active = USER
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.active = prev
		s.mu.Unlock()
	}
}

// Active reports the currently bound view.
func (s *AllocatorScope) Active() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Bind sets the Allocator the USER view currently resolves to, implementing
// spec.md §4.2's "switch the active user-allocator handle to the selected
// process's" step. Called by the scheduler's selection loop on every
// process it picks, and by GlobalScheduler.Start for the very first process
// it hands off to.
func (s *AllocatorScope) Bind(alloc process.Allocator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = alloc
}

// Allocator returns the Allocator most recently bound, or nil if none has
// been bound yet.
func (s *AllocatorScope) Allocator() process.Allocator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
