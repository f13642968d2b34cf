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

// Package arch provides the AArch64 trap frame: the fixed-layout register
// snapshot saved by the exception entry stub and restored by the exception
// exit stub. Its field order is ABI — the (simulated) assembly save/restore
// routines and the dispatcher must agree on it.
package arch

import "fmt"

// NumGPR is the number of general-purpose registers saved in a TrapFrame
// (x0-x30).
const NumGPR = 31

// TrapFrame is the architectural register snapshot captured on every
// exception entry. The TrapFrame owned by the Running process always
// reflects its most recently suspended register state.
//
// +marshal
type TrapFrame struct {
	// X holds general-purpose registers x0-x30.
	X [NumGPR]uint64

	// Sp is the stack pointer at the time of the exception.
	Sp uint64

	// Elr is the exception link register: the user PC to resume at.
	Elr uint64

	// Spsr is the saved program status register.
	Spsr uint64

	// Tpidr is the thread-pointer-id register, re-purposed to hold the
	// owning process's ID. Storing the ID here persists it across context
	// switches for free and doubles as a cheap self-identification
	// primitive for user code.
	Tpidr uint64

	// Ttbr0 is the user-space page-table base register.
	Ttbr0 uint64
}

// Arg returns general-purpose register n, used for syscall argument
// decoding (x0-x5 carry syscall arguments per the AAPCS64 convention this
// core assumes).
func (tf *TrapFrame) Arg(n int) uint64 {
	return tf.X[n]
}

// SetReturn sets the syscall return value register (x0).
func (tf *TrapFrame) SetReturn(v uint64) {
	tf.X[0] = v
}

// Return returns the syscall return value register (x0).
func (tf *TrapFrame) Return() uint64 {
	return tf.X[0]
}

// AdvanceElr advances the saved PC past the trapping instruction. Used by
// the Brk handler, which must not re-execute the breakpoint on return.
func (tf *TrapFrame) AdvanceElr(n uint64) {
	tf.Elr += n
}

// String implements fmt.Stringer for diagnostic logging.
func (tf *TrapFrame) String() string {
	return fmt.Sprintf("TrapFrame{pid=%d elr=%#x sp=%#x spsr=%#x ttbr0=%#x}",
		tf.Tpidr, tf.Elr, tf.Sp, tf.Spsr, tf.Ttbr0)
}

// Clone returns a deep copy of tf. TrapFrame is a flat value type, so a
// plain dereference-copy suffices; Clone exists so callers (notably
// Process.Fork) have a single named operation to call rather than
// re-deriving "just copy the struct" at each call site.
func (tf *TrapFrame) Clone() *TrapFrame {
	out := *tf
	return &out
}
