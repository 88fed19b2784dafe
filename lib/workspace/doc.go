// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package workspace manages the persistent metadata directory of a
// catkin workspace.
//
// A workspace is marked by a .catkin_tools directory at its root.
// Inside it, each profile owns a directory under profiles/ holding
// one YAML file per verb (config.yaml, build.yaml, ...), and
// profiles.yaml records which profile is active. The layout is:
//
//	<workspace>/.catkin_tools/
//	    README
//	    VERSION
//	    CATKIN_IGNORE
//	    profiles/
//	        profiles.yaml
//	        default/
//	            config.yaml
//	            build.yaml
//	            packages/
//
// All functions take the workspace root path, not the metadata path;
// path construction is centralized here so verbs never assemble
// metadata paths by hand.
package workspace
