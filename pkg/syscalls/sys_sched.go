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

package syscalls

import (
	"github.com/aarch64os/kernel/pkg/arch"
	"github.com/aarch64os/kernel/pkg/kernel"
)

// This core supports exactly one scheduling policy (FIFO round-robin) at a
// single fixed priority; there is no setscheduler/setparam counterpart
// because there is nothing to set. onlyScheduler/onlyPriority name the
// values every introspection syscall reports, in the same shape as
// sys_sched.go's onlyScheduler/onlyPriority constants.
const (
	onlyScheduler = 0
	onlyPriority  = 0
)

// DoSchedGetScheduler implements sched_getscheduler: always reports the
// one supported policy.
func DoSchedGetScheduler(_ *kernel.GlobalScheduler, tf *arch.TrapFrame) error {
	tf.SetReturn(uint64(onlyScheduler))
	return nil
}

// DoSchedGetParam implements sched_getparam: always reports the one
// supported (fixed) priority.
func DoSchedGetParam(_ *kernel.GlobalScheduler, tf *arch.TrapFrame) error {
	tf.SetReturn(uint64(onlyPriority))
	return nil
}
