// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config reads logpipe job files.
//
// A job file is YAML. It names a batch of commands, each with the levels its
// stdout and stderr lines are logged at and the rules that change those levels
// for matching lines. Commands can nest into serial or parallel groups.
//
//	name: build
//	parallel: true
//	commands:
//	  - name: compile
//	    exec: make
//	    args: ["-j8"]
//	    stderr_level: warn
//	    rules:
//	      - match: "^error"
//	        level: error
//
// Job files are read from the local filesystem, or fetched with go-getter when
// the source is not a local file.
package config
