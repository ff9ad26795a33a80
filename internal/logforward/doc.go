// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package logforward forwards line-oriented output from any number of streams,
// typically the stdout and stderr pipes of child processes, to a logging sink.
//
// A single background goroutine multiplexes every registered stream. Streams can
// be registered at any time with Forward, including while the goroutine is
// blocked waiting for data on streams registered earlier: registration asserts a
// persistent wake signal, so the new stream is picked up on the next cycle
// without losing readiness on the others.
//
// On Linux, streams that expose a file descriptor (for example *os.File pipes)
// are watched with epoll and read directly by the multiplexing goroutine, and
// the wake signal is an eventfd in the same epoll set. Any other io.Reader, and
// every stream on other platforms, is read by a small pump goroutine that hands
// each chunk to the multiplexing goroutine and asserts the wake signal. Line
// assembly, level resolution and sink calls always happen on the multiplexing
// goroutine, so lines from one stream are delivered in the order they were read.
//
// Each stream has a current level, which starts at the level it was registered
// with. Without an OverrideFunc every line is logged at that level. With one, the
// override is given each line and the current level, and the level it returns is
// used for the line and becomes the stream's current level, so an escalation
// sticks until the override says otherwise. Blank lines are skipped, and a
// partial line left in the buffer when its stream ends is dropped.
package logforward
