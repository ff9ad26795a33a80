// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package logforward

import (
	"io"
	"log/slog"

	"github.com/matt-FFFFFF/logpipe/internal/linebuf"
)

// source is how the multiplexing goroutine gets bytes out of one stream.
type source interface {
	// poll returns the next chunk of bytes if one is available without blocking.
	// ok is false when nothing was ready. A non-nil error ends the stream;
	// io.EOF means the peer closed it.
	poll(buf []byte) (chunk []byte, ok bool, err error)
	// alive reports an error when the stream can no longer be read,
	// e.g. because the caller closed the file.
	alive() error
	// release stops watching the stream. It does not close it.
	release()
}

// registration is one stream being forwarded to one sink.
// Everything except id is only touched by the multiplexing goroutine once registered.
type registration struct {
	id       uint64
	stream   io.Reader
	sink     Sink
	level    slog.Level // current level, starts at the registered base level
	override OverrideFunc
	buf      *linebuf.Buffer
	src      source
	closed   bool
}

// close releases the source and closes the stream if it can be closed.
func (r *registration) close() error {
	if r.src != nil {
		r.src.release()
	}

	if c, ok := r.stream.(io.Closer); ok {
		return c.Close() //nolint:wrapcheck
	}

	return nil
}
