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

// Package drivers provides host-backed stand-ins for the hardware
// collaborators spec.md §6 names: the interrupt controller, the timer,
// the page allocator, the image loader, and the console. A bare-metal
// AArch64 port would replace each of these with MMIO-backed code behind
// the same interfaces; nothing in pkg/kernel, pkg/traps, or pkg/syscalls
// depends on the host-backed nature of these implementations.
package drivers

import "sync"

// Source names a known interrupt source. Timer1 is the only source this
// core's IRQ dispatch loop currently polls, but the controller supports
// any number of named sources.
type Source string

// Timer1 is the periodic preemption tick source, polled first in the IRQ
// dispatch order per spec.md §4.4.
const Timer1 Source = "timer1"

// Controller is an in-memory stand-in for the BCM2837-style interrupt
// controller: a source must be Enable'd once before it can usefully be
// polled, and IsPending reports (and does not clear) its pending bit —
// clearing is the responsibility of whichever handler services it.
type Controller struct {
	mu      sync.Mutex
	enabled map[Source]bool
	pending map[Source]bool
}

// NewController returns a Controller with no sources enabled.
func NewController() *Controller {
	return &Controller{
		enabled: make(map[Source]bool),
		pending: make(map[Source]bool),
	}
}

// Enable marks source as enabled.
func (c *Controller) Enable(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled[Source(source)] = true
}

// IsPending reports whether source currently has a pending interrupt.
func (c *Controller) IsPending(source string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled[Source(source)] && c.pending[Source(source)]
}

// Raise marks source pending. Used by test/demo harnesses standing in for
// the hardware event that would otherwise set this bit.
func (c *Controller) Raise(source Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[source] = true
}

// Clear clears source's pending bit. Called by a handler once it has
// serviced the interrupt.
func (c *Controller) Clear(source Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[source] = false
}
