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
	"fmt"

	"github.com/aarch64os/kernel/pkg/arch"
	"github.com/aarch64os/kernel/pkg/kernel"
)

// enosys is the ENOSYS two's-complement return value shared with
// Unimplemented, used here when no console was configured at Start.
const enosys = ^uint64(37)

// DoPutChar implements the putc syscall: writes the low byte of x0 to the
// console bound at Start. Returns 0 in x0 on success.
func DoPutChar(sched *kernel.GlobalScheduler, tf *arch.TrapFrame) error {
	con := sched.Console()
	if con == nil {
		tf.SetReturn(enosys)
		return nil
	}
	if err := con.PutChar(byte(tf.Arg(0))); err != nil {
		return fmt.Errorf("syscalls: putc: %w", err)
	}
	tf.SetReturn(0)
	return nil
}

// DoGetChar implements the getc syscall: reads a single byte from the
// console bound at Start and returns it in x0.
func DoGetChar(sched *kernel.GlobalScheduler, tf *arch.TrapFrame) error {
	con := sched.Console()
	if con == nil {
		tf.SetReturn(enosys)
		return nil
	}
	b, err := con.GetChar()
	if err != nil {
		return fmt.Errorf("syscalls: getc: %w", err)
	}
	tf.SetReturn(uint64(b))
	return nil
}
