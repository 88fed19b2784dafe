// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"reflect"
	"testing"
)

type exampleParams struct {
	Name    string   `flag:"name,n" desc:"a name"`
	Count   int      `flag:"count" default:"4"`
	Load    float64  `flag:"load,l"`
	Quiet   bool     `flag:"quiet,q"`
	Extra   []string `flag:"extra"`
	Ignored string
}

func TestFlagsFromParamsBindsTaggedFields(t *testing.T) {
	var params exampleParams
	flagSet := FlagsFromParams("example", &params)

	err := flagSet.Parse([]string{
		"-n", "roscpp", "--load=2.5", "-q", "--extra", "a", "--extra", "b",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if params.Name != "roscpp" {
		t.Errorf("Name = %q", params.Name)
	}
	if params.Count != 4 {
		t.Errorf("Count = %d, want default 4", params.Count)
	}
	if params.Load != 2.5 {
		t.Errorf("Load = %v", params.Load)
	}
	if !params.Quiet {
		t.Error("Quiet not set")
	}
	if !reflect.DeepEqual(params.Extra, []string{"a", "b"}) {
		t.Errorf("Extra = %v", params.Extra)
	}
	if flagSet.Lookup("Ignored") != nil {
		t.Error("untagged field should not be bound")
	}
}

type embeddedParams struct {
	WorkspaceFlags
	ColorFlags
	Verbose bool `flag:"verbose,v"`
}

func TestBindFlagsUsesFlagBinderFields(t *testing.T) {
	var params embeddedParams
	flagSet := FlagsFromParams("embedded", &params)

	err := flagSet.Parse([]string{"-w", "/ws", "--profile", "debug", "--no-color", "-v"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if params.Workspace != "/ws" || params.Profile != "debug" {
		t.Fatalf("workspace flags = %+v", params.WorkspaceFlags)
	}
	if !params.Disable || !params.Verbose {
		t.Fatalf("flags = %+v", params)
	}
}

func TestBindFlagsRejectsNonPointer(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for a non-pointer params value")
		}
	}()
	FlagsFromParams("bad", exampleParams{})
}

func TestBindFlagsRejectsUnsupportedType(t *testing.T) {
	var params struct {
		Ratio complex128 `flag:"ratio"`
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for an unsupported field type")
		}
	}()
	FlagsFromParams("bad", &params)
}

func TestBindFlagsRejectsBadDefault(t *testing.T) {
	var params struct {
		Count int `flag:"count" default:"many"`
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for an unparseable default")
		}
	}()
	FlagsFromParams("bad", &params)
}
