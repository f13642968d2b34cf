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

	"github.com/aarch64os/kernel/pkg/arch"
	"github.com/aarch64os/kernel/pkg/kernel"
	"github.com/aarch64os/kernel/pkg/kernelerr"
	"github.com/aarch64os/kernel/pkg/process"
)

// DoExit implements the exit syscall. Unlike the source this core is
// modeled on, the exiting process is not discarded: it is marked Zombie,
// its exit status (x0) recorded, and it is reinserted into the queue so a
// parent's WaitPID can find and reap it. The next runnable process is then
// selected directly (SelectNextAfterExit), since the exiting process no
// longer occupies the "current" slot Switch's relabeling step expects.
func DoExit(sched *kernel.GlobalScheduler, tf *arch.TrapFrame) error {
	exiting := sched.PopCurrent()
	exiting.ExitStatus = int(tf.Arg(0))
	exiting.State = process.ZombieState()
	sched.PushBack(exiting)

	_, err := sched.SelectNextAfterExit(tf)
	if err != nil && !errors.Is(err, kernelerr.ErrNoRunnable) {
		return err
	}
	return nil
}
