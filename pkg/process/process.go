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

// Package process describes a single schedulable unit of user-mode work:
// its trap frame, its stack, its scheduling state, and its per-process
// user-page allocator handle.
package process

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/aarch64os/kernel/pkg/arch"
)

// Allocator is the per-process user-page allocator view a Process owns,
// satisfied by pkg/drivers.UserAllocator. Declared as an interface here so
// this package does not import pkg/drivers (which in turn depends on
// process for image loading), avoiding an import cycle.
type Allocator interface {
	// Clone returns an independent allocator view for a forked child.
	Clone() Allocator
	// Release frees all pages owned by this view. Called when a zombie
	// process is reaped.
	Release()
	// Base returns this view's page-table base address, stamped into
	// TrapFrame.Ttbr0 whenever a process's Allocator is (re)bound.
	Base() uintptr
}

// Process is one schedulable entity. It owns a TrapFrame (heap-allocated
// so its address is stable across moves), a Stack, a State, a parent
// pointer (for WaitProc bookkeeping), and a per-process user allocator.
type Process struct {
	// TrapFrame is heap-allocated so a stable pointer can be handed to the
	// (simulated) assembly stub.
	TrapFrame *arch.TrapFrame

	Stack     *Stack
	State     State
	Allocator Allocator

	// Parent is the ID of the process that created this one via fork, or
	// 0 for the first (init) process. Used to police WaitProc: a process
	// may only wait on its own children.
	Parent ID

	// ExitStatus is set by DoExit and observed by the parent's WaitPID.
	ExitStatus int
}

// New allocates a Stack and a TrapFrame whose Sp is initialized to the
// stack's top (spec.md: "The TrapFrame's initial sp points to its top");
// Ttbr0 is left zero until an Allocator is bound (see FileLoader.Load),
// since there is no page-table base to point to before then. The initial
// state is Ready. Fails iff the stack allocation fails.
func New() (*Process, error) {
	stack, err := NewStack(DefaultStackPages)
	if err != nil {
		return nil, fmt.Errorf("process: new: %w", err)
	}
	tf := &arch.TrapFrame{}
	tf.Sp = stack.Top()
	return &Process{
		TrapFrame: tf,
		Stack:     stack,
		State:     ReadyState(),
	}, nil
}

// BindAllocator attaches alloc as p's user-page allocator view and stamps
// its base address into TrapFrame.Ttbr0, so the two are never set out of
// sync with each other.
func (p *Process) BindAllocator(alloc Allocator) {
	p.Allocator = alloc
	p.TrapFrame.Ttbr0 = uint64(alloc.Base())
}

// ID reads the process ID out of the TrapFrame's Tpidr field.
func (p *Process) ID() ID {
	return ID(p.TrapFrame.Tpidr)
}

// setID stamps id into the TrapFrame; called exactly once, by
// Scheduler.Add.
func (p *Process) setID(id ID) {
	p.TrapFrame.Tpidr = uint64(id)
}

// SetID is the exported form of setID, used by Scheduler.Add which lives
// in a different package.
func (p *Process) SetID(id ID) { p.setID(id) }

// IsReady returns whether this process is eligible for the CPU now.
//
//   - Ready: true.
//   - Running: false — it is already conceptually on the CPU; the
//     scheduler never reselects a Running process until it has been
//     relabeled (typically back to Ready) by Switch's first step.
//   - Waiting(poll): the predicate is extracted from the state (replacing
//     it with a Ready placeholder) and invoked with this process. If it
//     panics, the panic is recovered, logged, and the process is left in
//     the Ready placeholder state rather than crashing the single-CPU
//     scheduler loop over one process's bug. If it returns true the
//     process transitions to Ready and true is returned; otherwise the
//     predicate is reinstalled and false is returned.
//   - All other states (WaitProc, Zombie): false.
//
// The extract/reinstall pattern is mandatory: a poll predicate must never
// observe its own process in the Waiting state, or a predicate that reads
// p.State could re-enter itself.
func (p *Process) IsReady() bool {
	switch p.State.Kind() {
	case Ready:
		return true
	case Running:
		return false
	case Waiting:
		poll := p.State.poll
		p.State = ReadyState()
		ready, panicked := p.invokePoll(poll)
		if ready {
			return true
		}
		if panicked {
			return false
		}
		p.State = WaitingState(poll)
		return false
	default:
		return false
	}
}

func (p *Process) invokePoll(poll PollFunc) (ready, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"pid":   p.ID(),
				"panic": r,
			}).Error("process: wait predicate panicked; leaving process ready")
			ready = false
			panicked = true
		}
	}()
	return poll(p), false
}

// NotZombie reports whether this process's state is anything other than
// Zombie.
func (p *Process) NotZombie() bool {
	return p.State.Kind() != Zombie
}

// Fork returns a new child Process that is a deep copy of p's trap frame
// and allocator view, parented to p. The child's return register (x0) is
// zeroed per fork(2) convention; the caller is responsible for setting the
// parent's return register to the child's ID once the child has been
// added to the scheduler and allocated an ID.
func (p *Process) Fork() (*Process, error) {
	stack, err := NewStack(DefaultStackPages)
	if err != nil {
		return nil, fmt.Errorf("process: fork: %w", err)
	}
	child := &Process{
		TrapFrame: p.TrapFrame.Clone(),
		Stack:     stack,
		State:     ReadyState(),
		Parent:    p.ID(),
	}
	if p.Allocator != nil {
		// The clone is a fresh host mmap region at its own address, so
		// Ttbr0 cannot simply carry over from the parent's cloned trap
		// frame (it still holds the parent's now-stale base address);
		// BindAllocator re-derives it from the clone.
		child.BindAllocator(p.Allocator.Clone())
	}
	child.TrapFrame.Sp = stack.Top()
	child.TrapFrame.SetReturn(0)
	return child, nil
}

// Release frees the resources exclusively owned by a reaped process: its
// stack and its user allocator view.
func (p *Process) Release() error {
	var err error
	if p.Stack != nil {
		err = p.Stack.Free()
	}
	if p.Allocator != nil {
		p.Allocator.Release()
	}
	return err
}
