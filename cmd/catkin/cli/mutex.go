// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"

	"github.com/spf13/pflag"
)

// MutuallyExclusive verifies that at most one of the named flags was
// set on the command line. Returns a validation error naming every
// flag the user set from the group.
func MutuallyExclusive(flagSet *pflag.FlagSet, names ...string) error {
	var set []string
	for _, name := range names {
		if flagSet.Changed(name) {
			set = append(set, "--"+name)
		}
	}
	if len(set) > 1 {
		return Validation("%s are mutually exclusive", strings.Join(set, " and "))
	}
	return nil
}

// ChangedFlag returns the first flag from the group that was set, or
// "" when none was. Callers combine it with [MutuallyExclusive] to
// read one-of-N selector groups.
func ChangedFlag(flagSet *pflag.FlagSet, names ...string) string {
	for _, name := range names {
		if flagSet.Changed(name) {
			return name
		}
	}
	return ""
}
