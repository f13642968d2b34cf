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

// Package kernelerr collects the small set of sentinel errors this kernel
// core's error taxonomy names. They are plain values comparable with
// errors.Is, in the spirit of gVisor's linuxerr sentinels but narrowed to
// what this core actually needs (it does not speak the full Linux errno
// surface).
package kernelerr

import "errors"

var (
	// ErrOutOfMemory is returned when a stack or page allocation fails.
	// It is fatal to the caller of process creation but not to the
	// scheduler.
	ErrOutOfMemory = errors.New("kernel: out of memory")

	// ErrIDExhausted is returned by Scheduler.Add when the process ID
	// space is exhausted.
	ErrIDExhausted = errors.New("kernel: process id space exhausted")

	// ErrNoRunnable is returned by Scheduler.Switch when no process is
	// eligible to run. It is not a failure: it signals the caller should
	// idle until the next interrupt.
	ErrNoRunnable = errors.New("kernel: no runnable process")

	// ErrSchedulerUninitialized is used only to annotate the panic raised
	// by GlobalScheduler accessors invoked before Start completes; it is
	// a programmer error, not a recoverable condition.
	ErrSchedulerUninitialized = errors.New("kernel: scheduler uninitialized")

	// ErrNotChild is returned by DoWaitPID when the named process is not
	// a child of the calling process.
	ErrNotChild = errors.New("kernel: not a child of the calling process")

	// ErrBadSyndrome is returned when the dispatcher decodes a
	// synchronous exception syndrome it does not recognize. Per spec,
	// this is effectively fatal: the caller logs it and halts.
	ErrBadSyndrome = errors.New("traps: unrecognized exception syndrome")

	// ErrFatalException is returned for FIQ and SError, which this core
	// does not attempt to service; the caller halts.
	ErrFatalException = errors.New("traps: fatal exception class")

	// ErrTableFull is returned by Scheduler.Add when the process table is
	// at its configured capacity (see Config.MaxProcesses). Zero capacity
	// means unbounded and this error is never returned.
	ErrTableFull = errors.New("kernel: process table full")
)
