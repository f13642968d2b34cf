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

// Package syscalls is the interface between the dispatcher and the
// kernel's services. Each syscall is a small record naming the handler
// function and its support level, in the same shape gVisor's syscall
// table uses, narrowed to the handful of syscalls this core implements.
package syscalls

import (
	"errors"
	"fmt"

	"github.com/aarch64os/kernel/pkg/arch"
	"github.com/aarch64os/kernel/pkg/kernel"
	"github.com/aarch64os/kernel/pkg/kernelerr"
)

// SupportLevel records how complete a syscall's implementation is.
type SupportLevel int

const (
	SupportFull SupportLevel = iota
	SupportPartial
	SupportUnimplemented
)

// Fn is a syscall handler: given the TrapFrame of the calling process, it
// performs the syscall and returns an error only for conditions the
// dispatcher must log (a failed handler does not itself halt the core;
// error reporting to user space happens through the return register, same
// as any other convention a real ABI would use).
type Fn func(sched *kernel.GlobalScheduler, tf *arch.TrapFrame) error

// Syscall names and documents one table entry.
type Syscall struct {
	Name         string
	Fn           Fn
	SupportLevel SupportLevel
	Note         string
}

// Supported returns a syscall that is fully implemented.
func Supported(name string, fn Fn) Syscall {
	return Syscall{Name: name, Fn: fn, SupportLevel: SupportFull, Note: "fully supported"}
}

// Unimplemented returns a syscall stub that sets the return register to
// the AArch64 ENOSYS convention (-38) without performing any work.
func Unimplemented(name string) Syscall {
	return Syscall{
		Name: name,
		Fn: func(_ *kernel.GlobalScheduler, tf *arch.TrapFrame) error {
			tf.SetReturn(uint64(^uint64(37))) // -38 (ENOSYS) two's complement
			return nil
		},
		SupportLevel: SupportUnimplemented,
		Note:         "not implemented",
	}
}

// Table is a syscall dispatch table, indexed by syscall number.
type Table struct {
	byNumber map[uint16]Syscall
}

// NewTable returns the default table for this core: exit, fork, waitpid,
// the sched_get* introspection syscalls, and putc/getc against whatever
// console GlobalScheduler.Start was configured with.
func NewTable() *Table {
	t := &Table{byNumber: make(map[uint16]Syscall)}
	t.Register(1, Supported("exit", DoExit))
	t.Register(2, Supported("fork", DoFork))
	t.Register(3, Supported("waitpid", DoWaitPID))
	t.Register(4, Supported("sched_getscheduler", DoSchedGetScheduler))
	t.Register(5, Supported("sched_getparam", DoSchedGetParam))
	t.Register(6, Supported("putc", DoPutChar))
	t.Register(7, Supported("getc", DoGetChar))
	return t
}

// Register adds or replaces the entry for sysno.
func (t *Table) Register(sysno uint16, s Syscall) {
	t.byNumber[sysno] = s
}

// Dispatch invokes the handler registered for sysno, passing args already
// decoded by the caller via tf.Arg. Syscall numbers with no registered
// entry behave as Unimplemented would.
func (t *Table) Dispatch(sched *kernel.GlobalScheduler, sysno uint16, tf *arch.TrapFrame) error {
	s, ok := t.byNumber[sysno]
	if !ok {
		tf.SetReturn(uint64(^uint64(37)))
		return nil
	}
	if err := s.Fn(sched, tf); err != nil {
		if errors.Is(err, kernelerr.ErrNoRunnable) {
			// Not a dispatch failure: the selection loop found nothing
			// runnable. DoExit and DoWaitPID already treat this as success;
			// it reaches here only from a handler that returns it as is.
			// The caller is expected to treat this the same as an IRQ-path
			// idle signal.
			return err
		}
		return fmt.Errorf("syscalls: %s (sysno %d): %w", s.Name, sysno, err)
	}
	return nil
}
