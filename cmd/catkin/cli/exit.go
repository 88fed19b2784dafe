// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError signals a non-zero exit code without printing an extra
// error message. A verb returns it when the failure was already
// reported through its own output — a build that printed its failure
// summary, a locate --existing-only miss — so main should exit
// silently with the given code.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code. main checks for this interface on
// returned errors to distinguish a handled non-zero exit from an
// unexpected error that still needs printing.
func (e *ExitError) ExitCode() int {
	return e.Code
}
