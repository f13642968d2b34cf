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

// Command kernboot is the host-side entrypoint for this kernel core: it
// loads a boot configuration, wires the host-backed driver simulators,
// and drives the boot → dispatch loop. Modeled on runsc/cli's subcommand
// registration and flag-driven configuration.
package main

import (
	"context"
	"flag"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&bootCommand{}, "")
	subcommands.Register(&psCommand{}, "")
	subcommands.Register(&versionCommand{}, "")

	flag.Parse()
	configureLogging()

	os.Exit(int(subcommands.Execute(context.Background())))
}

func configureLogging() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)
}
