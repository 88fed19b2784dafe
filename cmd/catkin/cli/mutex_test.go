// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func newGroupFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flagSet.Bool("link-devel", false, "")
	flagSet.Bool("merge-devel", false, "")
	flagSet.Bool("isolate-devel", false, "")
	if err := flagSet.Parse(args); err != nil {
		t.Fatalf("Parse(%v): %v", args, err)
	}
	return flagSet
}

func TestMutuallyExclusiveAllowsOne(t *testing.T) {
	flagSet := newGroupFlagSet(t, "--merge-devel")
	if err := MutuallyExclusive(flagSet, "link-devel", "merge-devel", "isolate-devel"); err != nil {
		t.Fatalf("one flag set should pass: %v", err)
	}
}

func TestMutuallyExclusiveAllowsNone(t *testing.T) {
	flagSet := newGroupFlagSet(t)
	if err := MutuallyExclusive(flagSet, "link-devel", "merge-devel"); err != nil {
		t.Fatalf("no flags set should pass: %v", err)
	}
}

func TestMutuallyExclusiveRejectsTwo(t *testing.T) {
	flagSet := newGroupFlagSet(t, "--link-devel", "--merge-devel")
	err := MutuallyExclusive(flagSet, "link-devel", "merge-devel", "isolate-devel")
	if err == nil {
		t.Fatal("two flags from the group should fail")
	}
	if !strings.Contains(err.Error(), "--link-devel") || !strings.Contains(err.Error(), "--merge-devel") {
		t.Fatalf("error should name both set flags: %v", err)
	}
}

func TestChangedFlag(t *testing.T) {
	flagSet := newGroupFlagSet(t, "--isolate-devel")
	if got := ChangedFlag(flagSet, "link-devel", "merge-devel", "isolate-devel"); got != "isolate-devel" {
		t.Fatalf("ChangedFlag = %q", got)
	}
	if got := ChangedFlag(newGroupFlagSet(t), "link-devel", "merge-devel"); got != "" {
		t.Fatalf("ChangedFlag with nothing set = %q", got)
	}
}
