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
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/google/subcommands"

	"github.com/aarch64os/kernel/pkg/arch"
	"github.com/aarch64os/kernel/pkg/config"
	"github.com/aarch64os/kernel/pkg/drivers"
	"github.com/aarch64os/kernel/pkg/kernel"
	"github.com/aarch64os/kernel/pkg/syscalls"
	"github.com/aarch64os/kernel/pkg/traps"
)

// bootCommand implements subcommands.Command for "boot": it loads the
// configuration, constructs every driver collaborator, starts the
// GlobalScheduler, and then runs the dispatch loop against a synthetic
// timer-IRQ source until interrupted. A bare-metal port replaces this
// loop's body with the vector-table-driven calls to HandleException; here
// it stands in for the hardware event source.
type bootCommand struct {
	configPath   string
	snapshotPath string
}

func (*bootCommand) Name() string     { return "boot" }
func (*bootCommand) Synopsis() string { return "boot the kernel core against a user image" }
func (*bootCommand) Usage() string {
	return "boot [-config path] [-snapshot path] - boot the kernel core\n"
}

func (c *bootCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "path to a kernboot.toml configuration file")
	f.StringVar(&c.snapshotPath, "snapshot", "", "path to periodically write a scheduler snapshot, for 'ps' to read")
}

func (c *bootCommand) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg := config.Default()
	if c.configPath != "" {
		loaded, err := config.Load(c.configPath)
		if err != nil {
			log.WithError(err).Error("kernboot: loading configuration")
			return subcommands.ExitFailure
		}
		cfg = loaded
	}
	applyLogLevel(cfg)

	sched := kernel.NewGlobalScheduler()
	intc := drivers.NewController()
	timer := drivers.NewTimer(time.Duration(cfg.TickMicros) * time.Microsecond)
	table := syscalls.NewTable()
	scope := drivers.NewAllocatorScope()

	con, err := drivers.NewConsole()
	if err != nil {
		log.WithError(err).Error("kernboot: opening console")
		return subcommands.ExitFailure
	}
	defer con.Close()

	opts := kernel.StartOptions{
		Intc:         intc,
		Timer:        timer,
		TickUnits:    1,
		MaxProcesses: cfg.MaxProcesses,
		Scope:        scope,
		Console:      con,
		OnReady: func(tf *arch.TrapFrame) {
			log.WithField("pid", tf.Tpidr).Info("kernboot: first process ready")
		},
	}
	if cfg.ImagePath != "" {
		opts.Loader = drivers.NewFileLoader(cfg.ImagePath)
	}

	if err := sched.Start(ctx, opts); err != nil {
		log.WithError(err).Error("kernboot: starting scheduler")
		return subcommands.ExitFailure
	}

	dispatcher := traps.NewDispatcher(sched, table, intc, timer, 1, scope)
	runDispatchLoop(ctx, dispatcher, sched, intc, timer, c.snapshotPath)
	return subcommands.ExitSuccess
}

// runDispatchLoop polls the timer for a fired tick and feeds it through
// the dispatcher as a synthetic IRQ, standing in for the hardware vector
// table this core does not have direct access to when hosted. When
// snapshotPath is set, it also writes the scheduler's process table to
// that path on every tick, for "ps" to read.
func runDispatchLoop(ctx context.Context, d *traps.Dispatcher, sched *kernel.GlobalScheduler, intc *drivers.Controller, timer *drivers.Timer, snapshotPath string) {
	var tf arch.TrapFrame
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if timer.Fired() {
			intc.Raise(drivers.Timer1)
			if err := d.HandleException(arch.Info{Kind: arch.IRQ}, arch.Syndrome{}, &tf); err != nil {
				log.WithError(err).Warn("kernboot: dispatching timer IRQ")
			}
			intc.Clear(drivers.Timer1)
			if snapshotPath != "" {
				writeSnapshot(snapshotPath, sched)
			}
		}
		time.Sleep(time.Millisecond)
	}
}

func writeSnapshot(path string, sched *kernel.GlobalScheduler) {
	data, err := json.Marshal(sched.Snapshot())
	if err != nil {
		log.WithError(err).Warn("kernboot: marshaling snapshot")
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.WithError(err).Warn("kernboot: writing snapshot")
	}
}

func applyLogLevel(cfg config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}
}
