// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"

	"github.com/matt-FFFFFF/logpipe/internal/ctxlog"
	"github.com/matt-FFFFFF/logpipe/internal/logforward"
)

// SinkFactory returns the sink for one output stream of a command.
// label is the command's full label and stream is "stdout", "stderr" or "pty".
type SinkFactory func(ctx context.Context, label, stream string) logforward.Sink

type sinkFactoryKey struct{}

// WithSinkFactory returns a copy of ctx that makes every OSCommand run with it
// send its output to the sinks f creates, instead of its logger.
func WithSinkFactory(ctx context.Context, f SinkFactory) context.Context {
	return context.WithValue(ctx, sinkFactoryKey{}, f)
}

func (c *OSCommand) sink(ctx context.Context, label, stream string) logforward.Sink {
	if f, ok := ctx.Value(sinkFactoryKey{}).(SinkFactory); ok && f != nil {
		return f(ctx, label, stream)
	}

	return logforward.NewSlogSink(ctx, c.Logger, ctxlog.OriginCommandKey, label, ctxlog.OriginStreamKey, stream)
}
