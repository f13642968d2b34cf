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

import "testing"

func TestNewProcessIsReady(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.State.Kind() != Ready {
		t.Fatalf("new process state = %v, want Ready", p.State.Kind())
	}
	if !p.IsReady() {
		t.Fatalf("IsReady() = false for a fresh Ready process")
	}
}

func TestIDRoundTripsThroughTrapFrame(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.SetID(42)
	if got := p.ID(); got != 42 {
		t.Fatalf("ID() = %d, want 42", got)
	}
	if p.TrapFrame.Tpidr != 42 {
		t.Fatalf("Tpidr = %d, want 42", p.TrapFrame.Tpidr)
	}
}

func TestIsReadyRunningIsFalse(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.State = RunningState()
	if p.IsReady() {
		t.Fatalf("IsReady() = true for a Running process")
	}
}

func TestIsReadyZombieIsFalse(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.State = ZombieState()
	if p.IsReady() {
		t.Fatalf("IsReady() = true for a Zombie process")
	}
	if p.NotZombie() {
		t.Fatalf("NotZombie() = true for a Zombie process")
	}
}

func TestIsReadyWaitingPollsAndReinstalls(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	calls := 0
	var sawWaitingDuringPoll bool
	p.State = WaitingState(func(self *Process) bool {
		calls++
		if self.State.Kind() == Waiting {
			sawWaitingDuringPoll = true
		}
		return calls >= 3
	})

	if p.IsReady() {
		t.Fatalf("IsReady() = true on call 1, want false")
	}
	if p.State.Kind() != Waiting {
		t.Fatalf("state after failed poll = %v, want Waiting (reinstalled)", p.State.Kind())
	}
	if p.IsReady() {
		t.Fatalf("IsReady() = true on call 2, want false")
	}
	if !p.IsReady() {
		t.Fatalf("IsReady() = false on call 3, want true")
	}
	if p.State.Kind() != Ready {
		t.Fatalf("state after satisfied poll = %v, want Ready", p.State.Kind())
	}
	if calls != 3 {
		t.Fatalf("poll invoked %d times, want 3", calls)
	}
	if sawWaitingDuringPoll {
		t.Fatalf("poll observed its own process still in Waiting state; extract/reinstall invariant violated")
	}
}

func TestIsReadyWaitingPollPanicLeavesReadyPlaceholder(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.State = WaitingState(func(self *Process) bool {
		panic("boom")
	})

	ready := p.IsReady()
	if ready {
		t.Fatalf("IsReady() = true after a panicking poll, want false")
	}
	if p.State.Kind() != Ready {
		t.Fatalf("state after panicking poll = %v, want Ready placeholder", p.State.Kind())
	}
}

func TestForkClonesTrapFrameIndependently(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.SetID(7)
	p.TrapFrame.Elr = 0x1000

	child, err := p.Fork()
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}
	if child.Parent != 7 {
		t.Fatalf("child.Parent = %d, want 7", child.Parent)
	}
	if child.TrapFrame.Return() != 0 {
		t.Fatalf("child return register = %d, want 0", child.TrapFrame.Return())
	}

	child.TrapFrame.Elr = 0x2000
	if p.TrapFrame.Elr != 0x1000 {
		t.Fatalf("mutating child trap frame affected parent: parent.Elr = %#x", p.TrapFrame.Elr)
	}
}
