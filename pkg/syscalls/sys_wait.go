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
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/aarch64os/kernel/pkg/arch"
	"github.com/aarch64os/kernel/pkg/kernel"
	"github.com/aarch64os/kernel/pkg/kernelerr"
	"github.com/aarch64os/kernel/pkg/process"
)

// DoWaitPID implements waitpid: x0 carries the child ID to wait for. The
// named process must be a child of the caller (tracked via Process.Parent,
// since the scheduler's queue alone does not record parentage); a mismatch
// or unknown ID fails immediately with -1 in x0 rather than blocking
// forever on a process that will never satisfy WaitProc. On success the
// caller's state becomes WaitProc(childID) and Switch resolves it exactly
// as any other context switch would — including reaping the child the
// instant its Zombie state is observed during the selection loop's scan.
func DoWaitPID(sched *kernel.GlobalScheduler, tf *arch.TrapFrame) error {
	childID := kernel.ID(tf.Arg(0))
	current := sched.PopCurrent()

	child, ok := sched.Lookup(childID)
	if !ok || child.Parent != current.ID() {
		log.WithFields(log.Fields{"pid": current.ID(), "child": childID}).
			Debug(kernelerr.ErrNotChild)
		sched.PushCurrentFront(current)
		tf.SetReturn(errnoGeneric)
		return nil
	}
	sched.PushCurrentFront(current)

	_, err := sched.Switch(process.WaitProcState(childID), tf)
	if err != nil && !errors.Is(err, kernelerr.ErrNoRunnable) {
		return err
	}
	return nil
}
