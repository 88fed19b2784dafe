// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Intermodalics/catkin-tools/cmd/catkin/cli"
	"github.com/Intermodalics/catkin-tools/cmd/catkin/commands"
)

func main() {
	if err := run(); err != nil {
		// Verbs that manage their own output (like a failed build,
		// which already printed its summary) return an exit error with
		// the desired code. Don't print a redundant "error:" line for
		// those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := cli.NewCommandLogger(verboseRequested(os.Args[1:]))
	return commands.Root().Execute(ctx, os.Args[1:], logger)
}

// verboseRequested scans the raw arguments for the verbose flag so the
// logger level is settled before any verb parses its flags.
func verboseRequested(args []string) bool {
	for _, arg := range args {
		if arg == "-v" || arg == "--verbose" {
			return true
		}
		if arg == "--" {
			break
		}
	}
	return false
}
