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

package drivers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"

	"github.com/aarch64os/kernel/pkg/process"
)

// lockPollInterval is how often TryLockContext retries the image lock
// while waiting for a concurrent writer to release it.
const lockPollInterval = 10 * time.Millisecond

// FileLoader loads a flat user binary image off disk into a process's user
// allocator view. A flock guards the image path for the duration of the
// read: boot may load the same image into several initial processes
// concurrently, and the lock keeps a concurrent re-flash of the image file
// from being read half-written.
type FileLoader struct {
	path string
}

// NewFileLoader returns a loader that reads images from path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// Load reads the image at the loader's path into a freshly allocated user
// allocator sized to the image and binds it to proc, replacing any
// allocator proc already had (the previous one is not released). imageAddr is currently
// advisory only — this host-backed loader has no guest physical address
// space to place the image at, but a bare-metal port would use it as the
// destination page frame.
func (l *FileLoader) Load(ctx context.Context, proc *process.Process, imageAddr uintptr) error {
	lock := flock.New(l.path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockPollInterval)
	if err != nil {
		return fmt.Errorf("drivers: locking image %s: %w", l.path, err)
	}
	if !locked {
		return fmt.Errorf("drivers: could not acquire lock on image %s", l.path)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("drivers: reading image %s: %w", l.path, err)
	}

	alloc, err := NewUserAllocator(len(data))
	if err != nil {
		return fmt.Errorf("drivers: allocating user view for image %s: %w", l.path, err)
	}
	copy(alloc.Bytes(), data)
	// BindAllocator also stamps Ttbr0 with alloc's base address; combined
	// with Sp (set by process.New) and Elr (set by the caller before
	// Load), this is what makes the trap frame valid user entry state.
	proc.BindAllocator(alloc)
	_ = imageAddr
	return nil
}
