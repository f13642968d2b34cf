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
	"bytes"
	"strings"
	"testing"
)

// These tests construct Console directly with the fallback (non-terminal)
// reader/writer fields, rather than going through NewConsole, so they do
// not depend on whether the test process happens to have a real
// controlling terminal attached to stdout.

func TestConsolePutChar(t *testing.T) {
	var buf bytes.Buffer
	c := &Console{writer: &buf}
	if err := c.PutChar('A'); err != nil {
		t.Fatalf("PutChar: %v", err)
	}
	if buf.String() != "A" {
		t.Fatalf("buf = %q, want %q", buf.String(), "A")
	}
}

func TestConsoleGetChar(t *testing.T) {
	c := &Console{reader: strings.NewReader("Z")}
	b, err := c.GetChar()
	if err != nil {
		t.Fatalf("GetChar: %v", err)
	}
	if b != 'Z' {
		t.Fatalf("GetChar = %q, want %q", b, 'Z')
	}
}

func TestConsoleGetCharEOF(t *testing.T) {
	c := &Console{reader: strings.NewReader("")}
	if _, err := c.GetChar(); err == nil {
		t.Fatalf("GetChar on empty reader succeeded, want an error")
	}
}

func TestConsoleCloseNoopWithoutRealTerminal(t *testing.T) {
	c := &Console{writer: &bytes.Buffer{}, reader: strings.NewReader("")}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v, want nil when no real terminal was set", err)
	}
}
