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

package kernel

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/aarch64os/kernel/pkg/arch"
	"github.com/aarch64os/kernel/pkg/kernelerr"
	"github.com/aarch64os/kernel/pkg/process"
)

// ImageLoader loads a user binary image into a process's address space,
// the external collaborator named in spec.md §6. Implementations live in
// pkg/drivers; this interface is declared here (rather than imported from
// drivers) to keep pkg/kernel free of a dependency on the driver
// implementations it merely calls through.
type ImageLoader interface {
	Load(ctx context.Context, proc *process.Process, imageAddr uintptr) error
}

// InterruptController is the interrupt controller collaborator: enable a
// source once, and poll whether it is pending.
type InterruptController interface {
	Enable(source string)
	IsPending(source string) bool
}

// Timer arms a one-shot tick.
type Timer interface {
	TickIn(units uint64)
}

// Console is the byte-oriented UART stand-in backing the putc/getc
// syscalls. Implemented by pkg/drivers.Console.
type Console interface {
	PutChar(b byte) error
	GetChar() (byte, error)
}

// GlobalScheduler is a process-wide, mutex-guarded, optional Scheduler. It
// is uninitialized at boot, initialized exactly once by Start, and never
// destroyed. Accessors panic if called before Start completes — a
// programmer error, per spec.md §7.
type GlobalScheduler struct {
	mu      sync.Mutex
	sch     *Scheduler
	console Console
}

// NewGlobalScheduler returns an uninitialized GlobalScheduler.
func NewGlobalScheduler() *GlobalScheduler {
	return &GlobalScheduler{}
}

func (g *GlobalScheduler) locked() *Scheduler {
	if g.sch == nil {
		panic(fmt.Sprintf("%v: accessor used before Start completed", kernelerr.ErrSchedulerUninitialized))
	}
	return g.sch
}

// Add delegates to Scheduler.Add under the global lock.
func (g *GlobalScheduler) Add(proc *process.Process) (ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.locked().Add(proc)
}

// Switch delegates to Scheduler.Switch under the global lock.
func (g *GlobalScheduler) Switch(newState process.State, tf *arch.TrapFrame) (ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.locked().Switch(newState, tf)
}

// PopCurrent delegates to Scheduler.PopCurrent under the global lock.
func (g *GlobalScheduler) PopCurrent() *process.Process {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.locked().PopCurrent()
}

// PushCurrentFront delegates to Scheduler.PushCurrentFront under the
// global lock.
func (g *GlobalScheduler) PushCurrentFront(proc *process.Process) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.locked().PushCurrentFront(proc)
}

// IsEmpty delegates to Scheduler.IsEmpty under the global lock.
func (g *GlobalScheduler) IsEmpty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.locked().IsEmpty()
}

// LastID delegates to Scheduler.LastID under the global lock.
func (g *GlobalScheduler) LastID() ID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.locked().LastID()
}

// Snapshot delegates to Scheduler.Snapshot under the global lock.
func (g *GlobalScheduler) Snapshot() []SnapshotEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.locked().Snapshot()
}

// SelectNextAfterExit delegates to Scheduler.SelectNextAfterExit under the
// global lock.
func (g *GlobalScheduler) SelectNextAfterExit(tf *arch.TrapFrame) (ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.locked().SelectNextAfterExit(tf)
}

// PushBack delegates to Scheduler.PushBack under the global lock.
func (g *GlobalScheduler) PushBack(proc *process.Process) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.locked().PushBack(proc)
}

// Lookup delegates to Scheduler.Lookup under the global lock.
func (g *GlobalScheduler) Lookup(id ID) (*process.Process, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.locked().Lookup(id)
}

// Clear resets the GlobalScheduler to uninitialized. Exposed for test
// teardown only.
func (g *GlobalScheduler) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sch = nil
	g.console = nil
}

// Console returns the console bound at Start, or nil if none was
// configured. Used by the putc/getc syscalls.
func (g *GlobalScheduler) Console() Console {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.console
}

// StartOptions configures the boot handoff performed by Start.
type StartOptions struct {
	// ImageAddr is the kernel-virtual address of the first user image.
	ImageAddr uintptr
	Loader    ImageLoader
	Intc      InterruptController
	Timer     Timer
	TickUnits uint64

	// MaxProcesses bounds the process table (see Config.MaxProcesses);
	// zero means unbounded.
	MaxProcesses int

	// Scope, if set, is bound to the first process's allocator here and
	// to every subsequently selected process's allocator by the
	// scheduler's selection loop (see Scheduler.selectRunning). A nil
	// Scope leaves spec.md §4.2's "switch the active user-allocator
	// handle" step a no-op, which is fine for tests that never exercise
	// user memory through it.
	Scope AllocatorScope

	// Console, if set, backs the putc/getc syscalls for the lifetime of
	// this GlobalScheduler. Nil leaves those syscalls behaving as
	// Unimplemented (ENOSYS).
	Console Console

	// OnReady is invoked with the prepared first process's trap frame
	// once it is ready to be "restored into". Production boot paths wire
	// this to the context-restore stub (an eret that never returns); the
	// default test double simply returns.
	OnReady func(tf *arch.TrapFrame)
}

// timerInterruptSource names the interrupt source the boot timer is
// enabled and armed on, matching the Timer1 source spec.md names first in
// IRQ dispatch order.
const timerInterruptSource = "timer1"

// Start is the handoff from boot to user-space, spec.md §4.3:
//
//  1. Construct the Scheduler.
//  2. Construct the first Process; Elr = 4 (user entry trampoline), Spsr
//     unmasks IRQs in EL0.
//  3. Load the user image at opts.ImageAddr into the process.
//  4. Clone its TrapFrame for handoff, register the process.
//  5. Switch the active user-allocator handle (opts.Scope) to the first
//     process's, same as the selection loop does for every later switch.
//  6. Enable the periodic timer interrupt and arm the first tick.
//  7. Hand the trap frame to opts.OnReady (the context-restore stub in a
//     real port); this call does not return under normal conditions.
func (g *GlobalScheduler) Start(ctx context.Context, opts StartOptions) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.sch != nil {
		return fmt.Errorf("kernel: Start called twice")
	}
	g.sch = NewSchedulerWithCapacity(opts.MaxProcesses)
	if opts.Scope != nil {
		g.sch.BindScope(opts.Scope)
	}
	g.console = opts.Console

	proc, err := process.New()
	if err != nil {
		return fmt.Errorf("kernel: %w: %v", kernelerr.ErrOutOfMemory, err)
	}
	proc.TrapFrame.Elr = 4
	proc.TrapFrame.Spsr = 0 // EL0, IRQs unmasked.

	if opts.Loader != nil {
		if err := opts.Loader.Load(ctx, proc, opts.ImageAddr); err != nil {
			return fmt.Errorf("kernel: loading initial image: %w", err)
		}
	}

	tf := proc.TrapFrame.Clone()
	if _, err := g.sch.Add(proc); err != nil {
		return fmt.Errorf("kernel: adding initial process: %w", err)
	}
	if opts.Scope != nil {
		// The first process never goes through selectRunning (it is
		// Add-ed directly, not picked by the selection loop), so nothing
		// else would bind it.
		opts.Scope.Bind(proc.Allocator)
	}

	if opts.Intc != nil {
		opts.Intc.Enable(timerInterruptSource)
	}
	if opts.Timer != nil {
		opts.Timer.TickIn(opts.TickUnits)
	}

	log.WithField("pid", proc.ID()).Info("kernel: handing off to user mode")
	if opts.OnReady != nil {
		opts.OnReady(tf)
	}
	return nil
}
