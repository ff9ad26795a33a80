// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package linebuf provides a per-stream line assembler. Bytes are appended as
// they are read from a stream, and complete lines are handed out as soon as
// their terminator has been seen. Bytes after the last terminator stay
// buffered until more data arrives, so a line split across several reads is
// only ever returned once, whole.
package linebuf
