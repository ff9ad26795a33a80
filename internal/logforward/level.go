// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package logforward

import "log/slog"

// OverrideFunc picks the level for a single line. It receives the line without
// its terminator and the stream's current level, and returns the level to log
// that line at. The returned level is what the next line from the same stream
// is handed, so an override that escalates once keeps the stream escalated
// until it returns something else.
type OverrideFunc func(line string, base slog.Level) slog.Level

// Resolve returns the level a line should be logged at.
func Resolve(line string, base slog.Level, override OverrideFunc) slog.Level {
	if override == nil {
		return base
	}

	return override(line, base)
}
