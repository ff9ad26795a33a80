// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/matt-FFFFFF/logpipe/internal/logforward"
	"github.com/matt-FFFFFF/logpipe/internal/runbatch"
	"go.uber.org/zap"
)

// NewZapLogger returns a JSON zap logger writing to stderr at level or above.
// Sampling is off so that no forwarded line is dropped.
func NewZapLogger(level slog.Level) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(logforward.ZapLevel(level))
	cfg.Sampling = nil
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building zap logger: %w", err)
	}

	return logger, nil
}

// ZapSinkFactory sends every forwarded line to logger, tagged with its command and stream.
func ZapSinkFactory(logger *zap.Logger) runbatch.SinkFactory {
	return func(_ context.Context, label, stream string) logforward.Sink {
		return logforward.NewZapSink(logger.With(zap.String("command", label), zap.String("stream", stream)))
	}
}
