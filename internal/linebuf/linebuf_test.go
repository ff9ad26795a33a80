// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package linebuf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	b := New(0)

	assert.NotNil(t, b)
	assert.Equal(t, DefaultMaxLineLength, b.max)
	assert.Empty(t, b.Pending())
	assert.Zero(t, b.Len())

	b = New(10)
	assert.Equal(t, 10, b.max)
}

func TestBuffer_SingleWrite(t *testing.T) {
	tests := []struct {
		name            string
		input           string
		expectedLines   []string
		expectedPartial string
	}{
		{
			name:            "single line with newline",
			input:           "hello world\n",
			expectedLines:   []string{"hello world"},
			expectedPartial: "",
		},
		{
			name:            "single line without newline",
			input:           "hello world",
			expectedLines:   nil,
			expectedPartial: "hello world",
		},
		{
			name:            "empty string",
			input:           "",
			expectedLines:   nil,
			expectedPartial: "",
		},
		{
			name:            "just newline",
			input:           "\n",
			expectedLines:   []string{""},
			expectedPartial: "",
		},
		{
			name:            "two lines without final newline",
			input:           "line1\nline2",
			expectedLines:   []string{"line1"},
			expectedPartial: "line2",
		},
		{
			name:            "multiple empty lines",
			input:           "line1\n\n\nline4\n",
			expectedLines:   []string{"line1", "", "", "line4"},
			expectedPartial: "",
		},
		{
			name:            "crlf terminators",
			input:           "first\r\nsecond\r\n",
			expectedLines:   []string{"first", "second"},
			expectedPartial: "",
		},
		{
			name:            "lone carriage return is kept",
			input:           "a\rb\n",
			expectedLines:   []string{"a\rb"},
			expectedPartial: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(0)

			n, err := b.Write([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, len(tt.input), n)

			assert.Equal(t, tt.expectedLines, b.Lines())
			assert.Equal(t, tt.expectedPartial, b.Pending())
		})
	}
}

func TestBuffer_ChunkedWrites(t *testing.T) {
	input := "first line\nsecond line\nthird line\nfourth line"
	b := New(0)

	var lines []string

	for chunk := range slicesOf(input, 5) {
		_, err := b.Write([]byte(chunk))
		require.NoError(t, err)

		lines = append(lines, b.Lines()...)
	}

	assert.Equal(t, []string{"first line", "second line", "third line"}, lines)
	assert.Equal(t, "fourth line", b.Pending())
}

func TestBuffer_ProgressiveWrites(t *testing.T) {
	b := New(0)

	_, err := b.Write([]byte("line1\nl"))
	require.NoError(t, err)

	line, ok := b.Next()
	assert.True(t, ok)
	assert.Equal(t, "line1", line)

	_, ok = b.Next()
	assert.False(t, ok)
	assert.Equal(t, "l", b.Pending())

	_, err = b.Write([]byte("ine2\nl"))
	require.NoError(t, err)
	assert.Equal(t, []string{"line2"}, b.Lines())
	assert.Equal(t, "l", b.Pending())

	_, err = b.Write([]byte("ine3\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"line3"}, b.Lines())
	assert.Empty(t, b.Pending())
}

func TestBuffer_Discard(t *testing.T) {
	b := New(0)

	_, err := b.Write([]byte("line1\nline2\npartial"))
	require.NoError(t, err)

	assert.Equal(t, len("line1\nline2\npartial"), b.Discard())
	assert.Empty(t, b.Pending())
	assert.Nil(t, b.Lines())

	_, err = b.Write([]byte("fresh\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, b.Lines())
}

func TestBuffer_LineTooLong(t *testing.T) {
	b := New(8)

	_, err := b.Write([]byte("12345678"))
	require.NoError(t, err, "a tail of exactly max bytes is allowed")

	_, err = b.Write([]byte("9"))
	require.ErrorIs(t, err, ErrLineTooLong)
}

func TestBuffer_LongCompleteLineIsAllowed(t *testing.T) {
	b := New(8)
	long := strings.Repeat("x", 100)

	_, err := b.Write([]byte(long + "\nok"))
	require.NoError(t, err)
	assert.Equal(t, []string{long}, b.Lines())
	assert.Equal(t, "ok", b.Pending())
}

func TestBuffer_LargeData(t *testing.T) {
	lines := make([]string, 1000)
	for i := range lines {
		lines[i] = strings.Repeat("x", 100)
	}

	input := strings.Join(lines, "\n") + "\n"
	b := New(0)

	var got []string

	for chunk := range slicesOf(input, 4096) {
		_, err := b.Write([]byte(chunk))
		require.NoError(t, err)

		got = append(got, b.Lines()...)
	}

	assert.Equal(t, lines, got)
	assert.Zero(t, b.Len())
}

// slicesOf yields s in chunks of at most n bytes.
func slicesOf(s string, n int) func(func(string) bool) {
	return func(yield func(string) bool) {
		for len(s) > 0 {
			end := min(n, len(s))
			if !yield(s[:end]) {
				return
			}

			s = s[end:]
		}
	}
}
