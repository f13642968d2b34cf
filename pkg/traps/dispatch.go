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

// Package traps implements the single entry point invoked by the
// (simulated) exception-entry stub on every synchronous exception, IRQ,
// FIQ, and SError: HandleException. It decodes the syndrome, routes to a
// syscall or fault handler, and drives the timer-IRQ preemption path.
package traps

import (
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/aarch64os/kernel/pkg/arch"
	"github.com/aarch64os/kernel/pkg/drivers"
	"github.com/aarch64os/kernel/pkg/kernel"
	"github.com/aarch64os/kernel/pkg/kernelerr"
	"github.com/aarch64os/kernel/pkg/process"
	"github.com/aarch64os/kernel/pkg/syscalls"
)

// InterruptController is the polled side of the interrupt controller
// collaborator.
type InterruptController interface {
	IsPending(source string) bool
}

// Timer arms the next preemption tick, re-armed by the timer IRQ handler
// on every fire.
type Timer interface {
	TickIn(units uint64)
}

// irqSources lists every interrupt source this core polls, in dispatch
// order; Timer1 is first, matching spec.md's fixed ordering.
var irqSources = []string{string(drivers.Timer1)}

// Dispatcher holds everything HandleException needs to route an
// exception: the scheduler it may call Switch on, the syscall table, the
// interrupt controller and timer it polls on the IRQ path, the allocator
// view scope it swaps on entry/exit, and the tick period used to re-arm
// the timer.
type Dispatcher struct {
	Scheduler *kernel.GlobalScheduler
	Syscalls  *syscalls.Table
	Intc      InterruptController
	Timer     Timer
	Scope     *drivers.AllocatorScope
	TickUnits uint64
}

// NewDispatcher returns a Dispatcher wired to the given collaborators and
// scope. scope must be the same instance passed as kernel.StartOptions.Scope
// to GlobalScheduler.Start, so the process the scheduler selects and the
// process the dispatcher's handlers see bound are always the same one.
func NewDispatcher(sched *kernel.GlobalScheduler, table *syscalls.Table, intc InterruptController, timer Timer, tickUnits uint64, scope *drivers.AllocatorScope) *Dispatcher {
	return &Dispatcher{
		Scheduler: sched,
		Syscalls:  table,
		Intc:      intc,
		Timer:     timer,
		Scope:     scope,
		TickUnits: tickUnits,
	}
}

// HandleException is the single C-ABI-shaped entry point the exception
// entry stub calls on every trap, carrying the decoded exception info, the
// decoded syndrome (meaningful only for Synchronous exceptions), and a
// pointer to the TrapFrame the stub saved registers into.
//
// The allocator view is swapped BACKUP→USER on entry and restored on
// every exit path — including a handler panic — via a deferred restore,
// satisfying the "every path, including error paths" requirement.
func (d *Dispatcher) HandleException(info arch.Info, syn arch.Syndrome, tf *arch.TrapFrame) error {
	restore := d.Scope.EnterUser()
	defer restore()

	switch info.Kind {
	case arch.Synchronous:
		return d.dispatchSynchronous(syn, tf)
	case arch.IRQ:
		return d.dispatchIRQ(tf)
	case arch.FIQ, arch.SError:
		log.WithField("kind", info.Kind).Error("traps: fatal exception class, halting")
		return kernelerr.ErrFatalException
	default:
		log.WithField("kind", info.Kind).Error("traps: unrecognized exception info")
		return kernelerr.ErrBadSyndrome
	}
}

func (d *Dispatcher) dispatchSynchronous(syn arch.Syndrome, tf *arch.TrapFrame) error {
	switch syn.Class {
	case arch.Brk:
		tf.AdvanceElr(4)
		return nil
	case arch.Svc:
		return d.Syscalls.Dispatch(d.Scheduler, syn.SvcNumber, tf)
	case arch.InstructionAbort:
		log.WithFields(log.Fields{
			"kind":  syn.AbortKind,
			"level": syn.AbortLevel,
			"elr":   tf.Elr,
		}).Warn("traps: instruction abort")
		return nil
	case arch.DataAbort:
		return d.handlePageFault(syn, tf)
	default:
		log.WithField("class", syn.Class).Error("traps: unknown synchronous syndrome, halting")
		return kernelerr.ErrBadSyndrome
	}
}

// handlePageFault is the page-fault handler spec.md §4.4 names for
// DataAbort. This core's Non-goals exclude demand paging beyond
// fault-to-allocate, so a translation fault against the faulting
// process's own user allocator view is treated as an allocate-on-fault
// (the allocator already backs the process's entire address range as a
// single mmap region, so there is nothing further to map); every other
// abort kind is logged and reported as an error, since it indicates an
// access this minimal core has no policy for repairing.
func (d *Dispatcher) handlePageFault(syn arch.Syndrome, tf *arch.TrapFrame) error {
	if syn.AbortKind == arch.AbortTranslation {
		var base uintptr
		if alloc := d.Scope.Allocator(); alloc != nil {
			base = alloc.Base()
		}
		log.WithFields(log.Fields{
			"pid":  tf.Tpidr,
			"base": base,
		}).Debug("traps: translation fault serviced by fault-to-allocate")
		return nil
	}
	log.WithFields(log.Fields{
		"pid":   tf.Tpidr,
		"kind":  syn.AbortKind,
		"level": syn.AbortLevel,
	}).Error("traps: unrecoverable data abort")
	return kernelerr.ErrBadSyndrome
}

// dispatchIRQ polls every known interrupt source in fixed order and
// services the first one pending. The timer handler performs the
// preemptive context switch: Switch(Ready, tf) followed by re-arming the
// tick. ErrNoRunnable from Switch is not an error at this layer — it means
// the core should idle, which the caller does simply by returning.
func (d *Dispatcher) dispatchIRQ(tf *arch.TrapFrame) error {
	for _, source := range irqSources {
		if !d.Intc.IsPending(source) {
			continue
		}
		if source == string(drivers.Timer1) {
			_, err := d.Scheduler.Switch(process.ReadyState(), tf)
			if d.Timer != nil {
				d.Timer.TickIn(d.TickUnits)
			}
			if err != nil && !errors.Is(err, kernelerr.ErrNoRunnable) {
				return err
			}
		}
		return nil
	}
	return nil
}
