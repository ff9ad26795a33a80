// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package linebuf

import (
	"bytes"
	"errors"
	"fmt"
)

const (
	// DefaultMaxLineLength is the largest unterminated tail a Buffer will hold.
	DefaultMaxLineLength = 1024 * 1024 // 1MB
	terminator           = '\n'
	carriageReturn       = '\r'
)

// ErrLineTooLong is returned by Write when the unterminated tail grows past the maximum line length.
var ErrLineTooLong = errors.New("line exceeds maximum length")

// Buffer accumulates partial reads from a single stream and yields complete lines.
// It is not safe for concurrent use; a Buffer belongs to exactly one reader.
type Buffer struct {
	data    []byte
	start   int // offset of the first byte not yet handed out
	tailLen int // bytes after the last terminator
	max     int
}

// New creates a Buffer. A maxLineLength <= 0 selects DefaultMaxLineLength.
func New(maxLineLength int) *Buffer {
	if maxLineLength <= 0 {
		maxLineLength = DefaultMaxLineLength
	}

	return &Buffer{
		max: maxLineLength,
	}
}

// Write appends p to the buffer. It always consumes all of p.
// If the unterminated tail is now longer than the maximum line length,
// ErrLineTooLong is returned and the stream should be treated as broken.
func (b *Buffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	b.data = append(b.data, p...)

	if i := bytes.LastIndexByte(p, terminator); i >= 0 {
		b.tailLen = len(p) - i - 1
	} else {
		b.tailLen += len(p)
	}

	if b.tailLen > b.max {
		return len(p), fmt.Errorf("%w: %d bytes without a newline (max %d)", ErrLineTooLong, b.tailLen, b.max)
	}

	return len(p), nil
}

// Next returns the next complete line with its terminator stripped.
// A carriage return immediately before the newline is stripped too.
// The boolean is false when no complete line is buffered.
func (b *Buffer) Next() (string, bool) {
	i := bytes.IndexByte(b.data[b.start:], terminator)
	if i < 0 {
		b.compact()
		return "", false
	}

	line := b.data[b.start : b.start+i]
	b.start += i + 1

	if n := len(line); n > 0 && line[n-1] == carriageReturn {
		line = line[:n-1]
	}

	return string(line), true
}

// Lines drains every complete line currently buffered, in order.
func (b *Buffer) Lines() []string {
	var lines []string

	for {
		line, ok := b.Next()
		if !ok {
			return lines
		}

		lines = append(lines, line)
	}
}

// Pending returns the bytes buffered after the last complete line.
// Complete lines that have not been taken with Next are included.
func (b *Buffer) Pending() string {
	return string(b.data[b.start:])
}

// Len returns the number of buffered bytes not yet handed out.
func (b *Buffer) Len() int {
	return len(b.data) - b.start
}

// Discard drops everything buffered and returns the number of bytes dropped.
func (b *Buffer) Discard() int {
	n := b.Len()
	b.data = b.data[:0]
	b.start = 0
	b.tailLen = 0

	return n
}

// compact moves the unread bytes to the front so the backing array does not grow without bound.
func (b *Buffer) compact() {
	if b.start == 0 {
		return
	}

	n := copy(b.data, b.data[b.start:])
	b.data = b.data[:n]
	b.start = 0
}
