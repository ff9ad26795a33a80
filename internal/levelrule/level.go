// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package levelrule

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/matt-FFFFFF/logpipe/internal/ctxlog"
)

// ErrUnknownLevel is returned when a level name cannot be parsed.
var ErrUnknownLevel = errors.New("unknown log level")

var names = map[string]slog.Level{
	"trace":    ctxlog.LevelTrace,
	"debug":    slog.LevelDebug,
	"info":     slog.LevelInfo,
	"warn":     slog.LevelWarn,
	"warning":  slog.LevelWarn,
	"error":    slog.LevelError,
	"critical": ctxlog.LevelCritical,
	"crit":     ctxlog.LevelCritical,
}

// Parse returns the level called name. Names are case-insensitive.
// Besides the names above it accepts anything slog.Level understands,
// such as "ERROR+2" or "INFO-4".
func Parse(name string) (slog.Level, error) {
	trimmed := strings.TrimSpace(name)
	if level, ok := names[strings.ToLower(trimmed)]; ok {
		return level, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(trimmed)); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, name)
	}

	return level, nil
}

// ParseOr is Parse with a fallback for the empty string.
func ParseOr(name string, fallback slog.Level) (slog.Level, error) {
	if strings.TrimSpace(name) == "" {
		return fallback, nil
	}

	return Parse(name)
}
