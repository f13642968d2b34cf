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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.StackPages != 4 {
		t.Fatalf("StackPages = %d, want 4", cfg.StackPages)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadOverridesOnlySpecifiedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kernboot.toml")
	contents := "stack_pages = 8\nimage_path = \"/boot/init.img\"\n"
	if err := writeFile(path, contents); err != nil {
		t.Fatalf("writeFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StackPages != 8 {
		t.Fatalf("StackPages = %d, want 8", cfg.StackPages)
	}
	if cfg.ImagePath != "/boot/init.img" {
		t.Fatalf("ImagePath = %q, want /boot/init.img", cfg.ImagePath)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want default info to survive a partial file", cfg.LogLevel)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("Load of a missing file returned nil error")
	}
}
