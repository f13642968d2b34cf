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

// Package kernel implements the FIFO round-robin process scheduler and the
// process-wide GlobalScheduler singleton that wraps it.
package kernel

import (
	"container/list"
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/google/btree"
	"golang.org/x/sync/semaphore"

	"github.com/aarch64os/kernel/pkg/arch"
	"github.com/aarch64os/kernel/pkg/kernelerr"
	"github.com/aarch64os/kernel/pkg/process"
)

// ID is an alias for process.ID, re-exported so callers outside this
// module need only import pkg/kernel for scheduler-facing code.
type ID = process.ID

// AllocatorScope is the collaborator that mirrors which process's user
// allocator view is currently bound, the handle spec.md §4.2's "switch"
// step names. Declared here (rather than imported from pkg/drivers) to keep
// pkg/kernel free of a dependency on the driver implementations it merely
// calls through; implemented by pkg/drivers.AllocatorScope.
type AllocatorScope interface {
	Bind(alloc process.Allocator)
}

// idRecord is the google/btree item backing Scheduler.Snapshot: a
// read-only, ID-ordered view over the processes currently known to the
// scheduler. It never influences scheduling decisions.
type idRecord struct {
	id ID
	el *list.Element
}

func (r idRecord) Less(than btree.Item) bool {
	return r.id < than.(idRecord).id
}

// Scheduler holds an ordered FIFO sequence of processes, an optional
// current process ID, and the last-allocated ID. At most one process is
// Running at a time; current, if set, always names a process present in
// the queue.
type Scheduler struct {
	queue   *list.List // of *process.Process
	index   *btree.BTree
	current *ID
	lastID  *ID

	// capacity bounds the number of live table entries (Add through
	// final reap) when non-nil. A weighted semaphore of weight 1 per
	// process gives Add a non-blocking TryAcquire/Release pair without
	// this package hand-rolling its own counter and mutex.
	capacity *semaphore.Weighted

	// scope, if bound, is told about every process the selection loop
	// picks to run. Optional: nil leaves the switch step a no-op, which
	// is fine for tests that never touch user memory through it.
	scope AllocatorScope
}

// BindScope attaches scope as the collaborator told about every process
// the selection loop selects to run. Called once by GlobalScheduler.Start.
func (s *Scheduler) BindScope(scope AllocatorScope) {
	s.scope = scope
}

// NewScheduler returns an empty, capacity-unbounded Scheduler: no queue
// entries, no current process, no last-allocated ID.
func NewScheduler() *Scheduler {
	return NewSchedulerWithCapacity(0)
}

// NewSchedulerWithCapacity returns an empty Scheduler whose process table
// holds at most maxProcesses entries (from Add until the entry is finally
// reaped); zero means unbounded, matching Config.MaxProcesses's zero
// value.
func NewSchedulerWithCapacity(maxProcesses int) *Scheduler {
	s := &Scheduler{
		queue: list.New(),
		index: btree.New(8),
	}
	if maxProcesses > 0 {
		s.capacity = semaphore.NewWeighted(int64(maxProcesses))
	}
	return s
}

// Add allocates the next ID (last+1, or 0 if none yet allocated), stamps
// it into proc's TrapFrame, and appends proc to the back of the queue. If
// no process is current, proc becomes current. Fails if the ID space is
// exhausted (lastID == math.MaxUint64) or the table is at capacity.
func (s *Scheduler) Add(proc *process.Process) (ID, error) {
	if s.capacity != nil && !s.capacity.TryAcquire(1) {
		return 0, kernelerr.ErrTableFull
	}

	var id ID
	if s.lastID != nil {
		if *s.lastID == math.MaxUint64 {
			if s.capacity != nil {
				s.capacity.Release(1)
			}
			return 0, kernelerr.ErrIDExhausted
		}
		id = *s.lastID + 1
	}

	proc.SetID(id)
	el := s.queue.PushBack(proc)
	s.index.ReplaceOrInsert(idRecord{id: id, el: el})

	if s.current == nil {
		cur := id
		s.current = &cur
	}
	s.lastID = &id
	return id, nil
}

// releaseCapacity frees one table slot. Called only when resolveWaitProc
// reaps a zombie child; every other path that visits a zombie pushes it
// back onto the queue rather than removing it for good.
func (s *Scheduler) releaseCapacity() {
	if s.capacity != nil {
		s.capacity.Release(1)
	}
}

// LastID returns the most recently allocated ID. Panics if no process has
// ever been added — mirroring the original "no process to fork" invariant
// violation this would represent.
func (s *Scheduler) LastID() ID {
	if s.lastID == nil {
		panic("kernel: LastID called on a scheduler with no processes")
	}
	return *s.lastID
}

// IsEmpty reports whether the queue holds no processes.
func (s *Scheduler) IsEmpty() bool {
	return s.queue.Len() == 0
}

// PopCurrent removes and returns the process at the front of the queue,
// transferring its ownership to the caller. The caller must return it via
// PushCurrentFront on every path, or permanently remove it (e.g. because
// it was reaped).
func (s *Scheduler) PopCurrent() *process.Process {
	el := s.queue.Front()
	if el == nil {
		panic("kernel: PopCurrent called on an empty scheduler")
	}
	proc := el.Value.(*process.Process)
	s.queue.Remove(el)
	s.index.Delete(idRecord{id: proc.ID()})
	return proc
}

// PushCurrentFront reinserts proc at the front of the queue, restoring the
// order PopCurrent took it from when called immediately after PopCurrent
// with no other mutation in between.
func (s *Scheduler) PushCurrentFront(proc *process.Process) {
	el := s.queue.PushFront(proc)
	s.index.ReplaceOrInsert(idRecord{id: proc.ID(), el: el})
}

func (s *Scheduler) pushBack(proc *process.Process) *list.Element {
	el := s.queue.PushBack(proc)
	s.index.ReplaceOrInsert(idRecord{id: proc.ID(), el: el})
	return el
}

func (s *Scheduler) popFront() *process.Process {
	el := s.queue.Front()
	if el == nil {
		return nil
	}
	proc := el.Value.(*process.Process)
	s.queue.Remove(el)
	s.index.Delete(idRecord{id: proc.ID()})
	return proc
}

// Switch sets the current process's state to newState, saves tf into it,
// and pushes it to the back of the queue; it then runs the selection loop
// to find the next runnable process, overwrites tf with that process's
// saved trap frame, marks it Running, and pushes it to the front so the
// next Switch call treats it as current. Returns the selected process's
// ID, or ErrNoRunnable if the queue is empty or, after one full rotation,
// every process is a zombie or a WaitProc waiter whose child has not
// exited — in which case tf is left untouched and the caller (typically
// the IRQ handler) should idle until the next interrupt. A Waiting process
// whose predicate returns false keeps the rotation going: it is polled
// again on each pass until its predicate returns true.
func (s *Scheduler) Switch(newState process.State, tf *arch.TrapFrame) (ID, error) {
	cur := s.popFront()
	if cur == nil {
		return 0, kernelerr.ErrNoRunnable
	}
	currentID := cur.ID()
	cur.TrapFrame = tf.Clone()
	cur.State = newState
	s.pushBack(cur)

	return s.runSelectionLoop(tf, currentID)
}

// SelectNextAfterExit runs the selection loop portion of Switch without its
// leading "relabel the current process" step. DoExit needs this: by the
// time it calls this, the exiting process has already been popped off the
// front of the queue and handled separately (marked Zombie and reinserted
// at the back so waiting parents can find it), so there is no suspended
// process left to stamp tf into — only a next process to pick. Using
// Switch here would incorrectly overwrite whatever process now happens to
// be at the front of the queue with the exiting process's trap frame.
func (s *Scheduler) SelectNextAfterExit(tf *arch.TrapFrame) (ID, error) {
	back := s.queue.Back()
	if back == nil {
		return 0, kernelerr.ErrNoRunnable
	}
	sentinel := back.Value.(*process.Process).ID()
	return s.runSelectionLoop(tf, sentinel)
}

func (s *Scheduler) runSelectionLoop(tf *arch.TrapFrame, currentID ID) (ID, error) {
	allZombies := true
	for {
		candidate := s.popFront()
		if candidate == nil {
			return 0, kernelerr.ErrNoRunnable
		}

		if candidate.State.Kind() == process.WaitProc {
			selected, satisfied := s.resolveWaitProc(candidate)
			if satisfied {
				return s.selectRunning(selected, tf), nil
			}
			// resolveWaitProc already pushed candidate to the back.
			if candidate.ID() == currentID && allZombies {
				return 0, kernelerr.ErrNoRunnable
			}
			continue
		}

		if candidate.IsReady() {
			return s.selectRunning(candidate, tf), nil
		}

		if candidate.NotZombie() {
			allZombies = false
		} else if candidate.ID() == currentID && allZombies {
			s.pushBack(candidate)
			return 0, kernelerr.ErrNoRunnable
		}
		s.pushBack(candidate)
	}
}

// PushBack reinserts proc at the back of the queue. Used by DoExit to make
// an exited process's Zombie state discoverable to WaitProc scans, and by
// tests that need to place a process at a specific queue position.
func (s *Scheduler) PushBack(proc *process.Process) {
	s.pushBack(proc)
}

// Lookup returns the process currently known to the scheduler with the
// given ID for read-only inspection, without removing it from the queue.
// Backed by the same btree index Snapshot uses.
func (s *Scheduler) Lookup(id ID) (*process.Process, bool) {
	item := s.index.Get(idRecord{id: id})
	if item == nil {
		return nil, false
	}
	rec := item.(idRecord)
	return rec.el.Value.(*process.Process), true
}

// resolveWaitProc implements the WaitProc half of the selection loop. It
// pushes waiter to the back of the queue, then scans forward — popping and
// immediately re-pushing each non-matching process — until waiter itself
// is reached again (a full wrap). If a Zombie process with ID == the
// awaited child is encountered during the scan, it is reaped on the spot
// (its exit status copied onto waiter, its stack/allocator released, and
// it is dropped from the queue instead of being pushed back) and waiter
// is returned ready to run. This is the reaping policy named in the
// design notes: a zombie is only ever removed by its waiting parent's
// successful WaitProc resolution, never spontaneously by the scheduler.
func (s *Scheduler) resolveWaitProc(waiter *process.Process) (selected *process.Process, satisfied bool) {
	childID := waiter.State.ChildID()
	waiterID := waiter.ID()
	s.pushBack(waiter)

	var zombieChild *process.Process
	for {
		next := s.popFront()
		if next == nil {
			panic("kernel: WaitProc scan ran off the end of the queue")
		}
		if next.ID() == waiterID {
			break
		}
		if zombieChild == nil && next.State.Kind() == process.Zombie && next.ID() == childID {
			zombieChild = next
			continue
		}
		s.pushBack(next)
	}

	if zombieChild == nil {
		s.pushBack(waiter)
		return waiter, false
	}

	waiter.ExitStatus = zombieChild.ExitStatus
	if err := zombieChild.Release(); err != nil {
		log.WithFields(log.Fields{"child": childID, "err": err}).
			Warn("kernel: releasing reaped zombie resources")
	}
	s.releaseCapacity()
	waiter.State = process.ReadyState()
	return waiter, true
}

func (s *Scheduler) selectRunning(proc *process.Process, tf *arch.TrapFrame) ID {
	s.current = idPtr(proc.ID())
	*tf = *proc.TrapFrame
	proc.State = process.RunningState()
	if s.scope != nil {
		s.scope.Bind(proc.Allocator)
	}
	s.pushFront(proc)
	return proc.ID()
}

func (s *Scheduler) pushFront(proc *process.Process) {
	el := s.queue.PushFront(proc)
	s.index.ReplaceOrInsert(idRecord{id: proc.ID(), el: el})
}

func idPtr(id ID) *ID { return &id }

// SnapshotEntry is one row of a point-in-time scheduler dump.
type SnapshotEntry struct {
	ID    ID
	State string
}

// Snapshot returns every process currently known to the scheduler, sorted
// by ID, for diagnostic tooling (the `ps` subcommand). It never mutates
// scheduler state and plays no role in the scheduling algorithm.
func (s *Scheduler) Snapshot() []SnapshotEntry {
	out := make([]SnapshotEntry, 0, s.index.Len())
	s.index.Ascend(func(it btree.Item) bool {
		rec := it.(idRecord)
		proc := rec.el.Value.(*process.Process)
		out = append(out, SnapshotEntry{ID: rec.id, State: proc.State.String()})
		return true
	})
	return out
}
