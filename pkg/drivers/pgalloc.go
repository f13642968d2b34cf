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
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/aarch64os/kernel/pkg/process"
)

// UserAllocator is a host-backed stand-in for the guest physical page
// allocator a bare-metal port would back with a bitmap over real DRAM.
// Each allocation is an anonymous mmap region; Clone deep-copies the
// backing bytes so a forked process's allocator view is independent of its
// parent's, matching the copy-on-fork (not copy-on-write) semantics
// spec.md §4.5 requires of DoFork. It satisfies process.Allocator.
type UserAllocator struct {
	mem []byte
}

const pageSize = 4096

// NewUserAllocator allocates an allocator view of n bytes, rounded up to a
// whole number of pages.
func NewUserAllocator(n int) (*UserAllocator, error) {
	if n <= 0 {
		n = pageSize
	}
	size := ((n + pageSize - 1) / pageSize) * pageSize
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("drivers: allocating %d-byte page view: %w", size, err)
	}
	return &UserAllocator{mem: mem}, nil
}

// Bytes exposes the backing view for image loading and debugging.
func (a *UserAllocator) Bytes() []byte {
	return a.mem
}

// Base implements process.Allocator: the address of this view's backing
// region, stamped into TrapFrame.Ttbr0 as the page-table base a bare-metal
// port's MMU would be pointed at.
func (a *UserAllocator) Base() uintptr {
	if len(a.mem) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&a.mem[0]))
}

// Clone implements process.Allocator.
func (a *UserAllocator) Clone() process.Allocator {
	clone, err := NewUserAllocator(len(a.mem))
	if err != nil {
		// A host mmap failure here mirrors running out of guest physical
		// pages; there is no recovery short of failing the fork that
		// requested the clone, so panic and let the syscall layer recover.
		panic(fmt.Sprintf("drivers: cloning page allocator: %v", err))
	}
	copy(clone.mem, a.mem)
	return clone
}

// Release implements process.Allocator. Safe to call more than once: calls
// after the first find no backing region and do nothing.
func (a *UserAllocator) Release() {
	if a.mem == nil {
		return
	}
	_ = unix.Munmap(a.mem)
	a.mem = nil
}
