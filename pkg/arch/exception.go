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

package arch

import "fmt"

// Source identifies the exception level and stack pointer in effect when
// an exception was taken, mirroring AArch64's four vector-table sources.
type Source int

const (
	// SourceCurrentSPEL0 is a synchronous exception taken with SP_EL0
	// selected while already in EL1 (never expected here; EL0-originated
	// traps always switch to SP_EL1 first).
	SourceCurrentSPEL0 Source = iota
	// SourceCurrentSPELx is an exception taken from EL1 using SP_EL1.
	SourceCurrentSPELx
	// SourceLowerAArch64 is an exception taken from EL0 (AArch64 user
	// mode), the only source this kernel core expects in practice.
	SourceLowerAArch64
	// SourceLowerAArch32 is an exception taken from an AArch32 EL0, unused.
	SourceLowerAArch32
)

// Kind is the class of exception delivered to the vector table.
type Kind int

const (
	// Synchronous exceptions: SVC, BRK, data/instruction aborts.
	Synchronous Kind = iota
	// IRQ is a maskable interrupt request.
	IRQ
	// FIQ is a fast interrupt request.
	FIQ
	// SError is an asynchronous system error.
	SError
)

func (k Kind) String() string {
	switch k {
	case Synchronous:
		return "synchronous"
	case IRQ:
		return "irq"
	case FIQ:
		return "fiq"
	case SError:
		return "serror"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Info carries the exception source and kind, as decoded from the vector
// table entry taken by the context-save stub.
type Info struct {
	Source Source
	Kind   Kind
}

// AbortKind distinguishes the reason a memory abort was raised.
type AbortKind int

const (
	// AbortTranslation indicates no valid translation exists for the
	// faulting address.
	AbortTranslation AbortKind = iota
	// AbortPermission indicates a translation exists but forbids the
	// attempted access.
	AbortPermission
	// AbortAlignment indicates a misaligned access where alignment is
	// architecturally required.
	AbortAlignment
	// AbortOther covers syndromes this core does not further classify.
	AbortOther
)

// Syndrome is the decoded ESR_EL1 value for a synchronous exception.
// Exactly one of the embedded fields is meaningful, selected by Class.
type Syndrome struct {
	Class SyndromeClass

	// BrkComment is valid when Class == Brk: the 16-bit immediate
	// encoded in the BRK instruction.
	BrkComment uint16

	// SvcNumber is valid when Class == Svc: the syscall number.
	SvcNumber uint16

	// AbortKind and Level are valid when Class is InstructionAbort or
	// DataAbort: the fault reason and the translation table level at
	// which it was detected.
	AbortKind  AbortKind
	AbortLevel int
}

// SyndromeClass is the ESR_EL1.EC field, narrowed to the classes this core
// routes.
type SyndromeClass int

const (
	// Brk is a debug breakpoint instruction trap.
	Brk SyndromeClass = iota
	// Svc is a supervisor call (system call) trap.
	Svc
	// InstructionAbort is a fault fetching an instruction.
	InstructionAbort
	// DataAbort is a fault accessing data.
	DataAbort
	// Unknown is any syndrome this core does not decode.
	Unknown
)

func (s SyndromeClass) String() string {
	switch s {
	case Brk:
		return "brk"
	case Svc:
		return "svc"
	case InstructionAbort:
		return "instruction-abort"
	case DataAbort:
		return "data-abort"
	default:
		return "unknown"
	}
}
