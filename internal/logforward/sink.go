// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package logforward

import (
	"context"
	"log/slog"

	"github.com/matt-FFFFFF/logpipe/internal/ctxlog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sink receives forwarded lines. Log is called synchronously from the
// multiplexing goroutine and should return quickly: a slow sink delays every
// other stream.
type Sink interface {
	Log(level slog.Level, line string)
}

// SinkFunc adapts an ordinary function to the Sink interface.
type SinkFunc func(level slog.Level, line string)

// Log calls f(level, line).
func (f SinkFunc) Log(level slog.Level, line string) {
	f(level, line)
}

var (
	_ Sink = (*slogSink)(nil)
	_ Sink = (*zapSink)(nil)
)

type slogSink struct {
	ctx    context.Context
	logger *slog.Logger
}

// NewSlogSink returns a Sink that logs each line as the message of a slog record.
// If logger is nil the logger from ctx is used (see ctxlog.Logger).
// Any args are added to every record, e.g. "command", "make", "stream", "stderr".
func NewSlogSink(ctx context.Context, logger *slog.Logger, args ...any) Sink {
	if logger == nil {
		logger = ctxlog.Logger(ctx)
	}

	if len(args) > 0 {
		logger = logger.With(args...)
	}

	return &slogSink{
		ctx:    ctx,
		logger: logger,
	}
}

// Log implements Sink.
func (s *slogSink) Log(level slog.Level, line string) {
	s.logger.Log(s.ctx, level, line)
}

type zapSink struct {
	logger *zap.Logger
}

// NewZapSink returns a Sink that writes each line to a zap logger.
// slog levels are mapped onto the nearest zap level at or below them.
func NewZapSink(logger *zap.Logger) Sink {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &zapSink{
		logger: logger,
	}
}

// Log implements Sink.
func (s *zapSink) Log(level slog.Level, line string) {
	if ce := s.logger.Check(ZapLevel(level), line); ce != nil {
		ce.Write()
	}
}

// ZapLevel maps a slog level to a zap level. Anything above error stays at error
// so a forwarded line can never trigger zap's panic or fatal behaviour.
func ZapLevel(level slog.Level) zapcore.Level {
	switch {
	case level < slog.LevelInfo:
		return zapcore.DebugLevel
	case level < slog.LevelWarn:
		return zapcore.InfoLevel
	case level < slog.LevelError:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
