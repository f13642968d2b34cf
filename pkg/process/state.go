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

import "fmt"

// ID identifies a Process. IDs are strictly monotonic as handed out by the
// scheduler; they are also stored in the owning Process's TrapFrame.Tpidr.
type ID uint64

// Kind tags the variant held by a State.
type Kind int

const (
	// Ready marks a process eligible for the CPU now.
	Ready Kind = iota
	// Running marks a process currently on the CPU.
	Running
	// Waiting marks a process blocked on a predicate, polled at selection
	// time. See PollFunc.
	Waiting
	// WaitProc marks a process blocked until a specific child reaches
	// Zombie.
	WaitProc
	// Zombie marks a terminated process, retained so a waiting parent can
	// observe its termination.
	Zombie
)

func (k Kind) String() string {
	switch k {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Waiting:
		return "waiting"
	case WaitProc:
		return "wait-proc"
	case Zombie:
		return "zombie"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// PollFunc is an owned predicate evaluated against the waiting process at
// scheduler selection time. It must observe a process whose state is not
// Waiting, so that a poll can never re-enter itself; the scheduler enforces
// this by extracting the predicate out of the State before calling it.
type PollFunc func(p *Process) bool

// State is a tagged union over the five scheduling states a Process can
// occupy. The zero State is Ready.
type State struct {
	kind    Kind
	poll    PollFunc
	childID ID
}

// ReadyState returns a State in the Ready variant.
func ReadyState() State { return State{kind: Ready} }

// RunningState returns a State in the Running variant.
func RunningState() State { return State{kind: Running} }

// ZombieState returns a State in the Zombie variant.
func ZombieState() State { return State{kind: Zombie} }

// WaitingState returns a State in the Waiting variant, owning poll.
func WaitingState(poll PollFunc) State {
	if poll == nil {
		panic("process: WaitingState requires a non-nil poll function")
	}
	return State{kind: Waiting, poll: poll}
}

// WaitProcState returns a State in the WaitProc variant, blocked on child.
func WaitProcState(child ID) State {
	return State{kind: WaitProc, childID: child}
}

// Kind reports which variant this State holds.
func (s State) Kind() Kind { return s.kind }

// ChildID returns the waited-on child ID. Valid only when Kind() == WaitProc.
func (s State) ChildID() ID { return s.childID }

func (s State) String() string {
	switch s.kind {
	case WaitProc:
		return fmt.Sprintf("wait-proc(%d)", s.childID)
	default:
		return s.kind.String()
	}
}
