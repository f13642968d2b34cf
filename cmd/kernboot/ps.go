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

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/aarch64os/kernel/pkg/kernel"
)

// psCommand implements subcommands.Command for "ps": it reads the
// snapshot file a running "boot -snapshot path" instance periodically
// writes (this core has no admin socket to query a live scheduler
// directly) and prints it as a process table.
type psCommand struct {
	snapshotPath string
}

func (*psCommand) Name() string     { return "ps" }
func (*psCommand) Synopsis() string { return "list processes from a boot instance's snapshot file" }
func (*psCommand) Usage() string    { return "ps -snapshot path - list processes\n" }

func (c *psCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.snapshotPath, "snapshot", "", "path to a snapshot file written by 'boot -snapshot'")
}

func (c *psCommand) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.snapshotPath == "" {
		fmt.Fprintln(os.Stderr, "ps: -snapshot is required (no admin socket in this core)")
		return subcommands.ExitUsageError
	}
	data, err := os.ReadFile(c.snapshotPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ps: reading snapshot: %v\n", err)
		return subcommands.ExitFailure
	}
	var entries []kernel.SnapshotEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		fmt.Fprintf(os.Stderr, "ps: decoding snapshot: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintln(os.Stdout, "PID\tSTATE")
	for _, entry := range entries {
		fmt.Fprintf(os.Stdout, "%d\t%s\n", entry.ID, entry.State)
	}
	return subcommands.ExitSuccess
}
