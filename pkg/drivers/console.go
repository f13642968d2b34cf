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
	"fmt"
	"io"
	"os"

	"github.com/containerd/console"
)

// Console is the UART stand-in: a single byte-oriented sink/source backing
// the putc/getc syscalls (pkg/syscalls/sys_console.go), wired into
// GlobalScheduler via kernel.StartOptions.Console. When stdout is a real
// terminal it is put into raw mode so user programs see every keystroke
// immediately, matching a bare UART's lack of host-side line editing; when
// it is not (piped output, as in tests), it falls back to plain
// os.Stdout/os.Stdin.
type Console struct {
	c      console.Console
	reader io.Reader
	writer io.Writer
}

// NewConsole constructs a Console backed by the process's controlling
// terminal if stdout is one, or by plain stdio otherwise.
func NewConsole() (*Console, error) {
	if c, err := console.ConsoleFromFile(os.Stdout); err == nil {
		if err := c.SetRaw(); err != nil {
			return nil, fmt.Errorf("drivers: setting console raw mode: %w", err)
		}
		return &Console{c: c, reader: os.Stdin, writer: c}, nil
	}
	return &Console{reader: os.Stdin, writer: os.Stdout}, nil
}

// PutChar writes a single byte to the console.
func (c *Console) PutChar(b byte) error {
	_, err := c.writer.Write([]byte{b})
	return err
}

// GetChar reads a single byte from the console.
func (c *Console) GetChar() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(c.reader, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// Close restores the terminal's prior mode, if it was put into raw mode.
func (c *Console) Close() error {
	if c.c != nil {
		return c.c.Reset()
	}
	return nil
}
