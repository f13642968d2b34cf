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
	"os"
	"path/filepath"
	"testing"

	"github.com/aarch64os/kernel/pkg/process"
)

func TestFileLoaderLoadsImageIntoAllocator(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.bin")
	want := []byte("kernel image payload")
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	proc, err := process.New()
	if err != nil {
		t.Fatalf("process.New: %v", err)
	}

	loader := NewFileLoader(path)
	if err := loader.Load(context.Background(), proc, 0); err != nil {
		t.Fatalf("Load: %v", err)
	}

	alloc, ok := proc.Allocator.(*UserAllocator)
	if !ok {
		t.Fatalf("proc.Allocator type = %T, want *UserAllocator", proc.Allocator)
	}
	defer alloc.Release()

	got := alloc.Bytes()[:len(want)]
	if string(got) != string(want) {
		t.Fatalf("loaded image = %q, want %q", got, want)
	}

	if proc.TrapFrame.Ttbr0 != uint64(alloc.Base()) {
		t.Fatalf("Ttbr0 = %#x, want the loaded allocator's base %#x", proc.TrapFrame.Ttbr0, alloc.Base())
	}
	if proc.TrapFrame.Sp == 0 {
		t.Fatalf("Sp = 0, want it to still point at the stack top process.New set")
	}
}

func TestFileLoaderMissingImageFails(t *testing.T) {
	dir := t.TempDir()
	loader := NewFileLoader(filepath.Join(dir, "does-not-exist.bin"))
	proc, err := process.New()
	if err != nil {
		t.Fatalf("process.New: %v", err)
	}
	if err := loader.Load(context.Background(), proc, 0); err == nil {
		t.Fatalf("Load succeeded on a missing image, want an error")
	}
}
