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

// errnoNoMem and errnoGeneric are the two's-complement encodings of
// -ENOMEM (-12) and -1, written into x0 on failure per this core's
// syscall-return convention (a negative value signals an error, same as a
// Linux ABI would use, narrowed to the two cases fork can fail with).
const (
	errnoNoMem   = ^uint64(11) // -12
	errnoGeneric = ^uint64(0)  // -1
)

// DoFork implements the fork syscall: it clones the calling process's trap
// frame and user allocator view into a new child, registers the child with
// the scheduler, and sets each process's return register per fork(2)
// convention — 0 in the child, the child's ID in the parent.
func DoFork(sched *kernel.GlobalScheduler, tf *arch.TrapFrame) error {
	current := sched.PopCurrent()
	defer sched.PushCurrentFront(current)

	current.TrapFrame = tf.Clone()
	child, err := current.Fork()
	if err != nil {
		tf.SetReturn(errnoNoMem)
		return nil
	}

	childID, err := sched.Add(child)
	if err != nil {
		_ = child.Release()
		tf.SetReturn(errnoGeneric)
		return nil
	}

	tf.SetReturn(uint64(childID))
	return nil
}
