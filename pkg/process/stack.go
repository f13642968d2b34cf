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

package process

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/aarch64os/kernel/pkg/kernelerr"
)

// PageSize is the page granularity this core assumes for stacks and pages,
// matching AArch64's common 4KB translation granule.
const PageSize = 4096

// DefaultStackPages is the default process stack size, in pages.
const DefaultStackPages = 4

// Stack is an owned, page-aligned region serving as a process's user
// stack. It is backed by real host memory obtained via mmap so that the
// bytes are addressable and zero-filled, standing in for a guest physical
// allocation a bare-metal port would take from the page allocator.
type Stack struct {
	mem []byte
}

// NewStack allocates a Stack of the given size in pages. Returns
// ErrOutOfMemory-wrapping error if the host allocation fails.
func NewStack(pages int) (*Stack, error) {
	if pages <= 0 {
		pages = DefaultStackPages
	}
	size := pages * PageSize
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("process: allocating %d-page stack: %w: %w", pages, kernelerr.ErrOutOfMemory, err)
	}
	return &Stack{mem: mem}, nil
}

// Top returns the address of the top of the stack (the stack grows down
// from here), matching the AArch64 convention the TrapFrame.Sp is
// initialized to.
func (s *Stack) Top() uint64 {
	return s.Base() + uint64(len(s.mem))
}

// Base returns the address of the bottom of the stack.
func (s *Stack) Base() uint64 {
	if len(s.mem) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(&s.mem[0])))
}

// Free releases the stack's backing memory. Called when a process is
// reaped.
func (s *Stack) Free() error {
	if s.mem == nil {
		return nil
	}
	err := unix.Munmap(s.mem)
	s.mem = nil
	return err
}
