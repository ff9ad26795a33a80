// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runbatch runs batches of operating system commands, serially or in
// parallel, and nests them. While a command runs, its stdout and stderr (or its
// pseudo-terminal) are handed to a line forwarder, so output is logged line by
// line with a per-stream level instead of being buffered until the end.
//
// The results tree records exit codes and errors for every command.
package runbatch
