// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package logforward

import (
	"log/slog"

	"github.com/matt-FFFFFF/logpipe/internal/ctxlog"
)

// dispatch hands every complete line buffered for reg to its sink.
// Blank lines are dropped. The level a line resolves to becomes the stream's
// level for the lines after it.
func (f *Forwarder) dispatch(reg *registration) {
	for {
		line, ok := reg.buf.Next()
		if !ok {
			return
		}

		if line == "" {
			continue
		}

		reg.level = f.resolve(reg, line)
		f.deliver(reg, line, reg.level)
	}
}

// resolve runs the override for one line. A panicking override leaves the level unchanged.
func (f *Forwarder) resolve(reg *registration, line string) (level slog.Level) {
	defer func() {
		if p := recover(); p != nil {
			ctxlog.Warn(f.ctx, "level override panicked, keeping current level",
				"stream", reg.id, "level", reg.level, "panic", p)

			level = reg.level
		}
	}()

	return Resolve(line, reg.level, reg.override)
}

// deliver calls the sink. A panicking sink loses the line but not the stream.
func (f *Forwarder) deliver(reg *registration, line string, level slog.Level) {
	defer func() {
		if p := recover(); p != nil {
			ctxlog.Warn(f.ctx, "sink panicked, line dropped", "stream", reg.id, "panic", p)
		}
	}()

	reg.sink.Log(level, line)
}
