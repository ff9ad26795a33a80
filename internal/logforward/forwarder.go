// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package logforward

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/matt-FFFFFF/logpipe/internal/ctxlog"
	"github.com/matt-FFFFFF/logpipe/internal/linebuf"
)

const (
	// DefaultReadSize is the number of bytes read from a stream at a time.
	DefaultReadSize = 32 * 1024 // 32KB
)

var (
	// ErrStopped is returned by Forward once the forwarder has been stopped.
	ErrStopped = errors.New("forwarder is stopped")
	// ErrNilSink is returned by Forward when no sink is given.
	ErrNilSink = errors.New("sink must not be nil")
	// ErrNilStream is returned by Forward when no stream is given.
	ErrNilStream = errors.New("stream must not be nil")
)

// Forwarder multiplexes registered streams onto their sinks from a single goroutine.
// It is safe for concurrent use.
type Forwarder struct {
	ctx           context.Context
	registry      *registry
	poller        poller
	readSize      int
	maxLineLength int
	pumps         sync.WaitGroup
	done          chan struct{}
	stopCtxWatch  func() bool
}

// Option configures a Forwarder.
type Option func(*options)

type options struct {
	readSize      int
	maxLineLength int
	portable      bool
}

// WithReadSize sets how many bytes are read from a stream at a time.
func WithReadSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.readSize = n
		}
	}
}

// WithMaxLineLength sets the longest partial line a stream may buffer.
// A stream that exceeds it is treated as broken and closed.
func WithMaxLineLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLineLength = n
		}
	}
}

// WithPortablePoller reads every stream with a pump goroutine, even where
// the platform poller could watch it directly.
func WithPortablePoller() Option {
	return func(o *options) {
		o.portable = true
	}
}

// New starts a Forwarder. It stops when ctx is cancelled or Stop is called.
// The logger in ctx (see ctxlog) receives the forwarder's own diagnostics,
// never the forwarded lines.
func New(ctx context.Context, opts ...Option) *Forwarder {
	o := &options{
		readSize:      DefaultReadSize,
		maxLineLength: linebuf.DefaultMaxLineLength,
	}

	for _, opt := range opts {
		opt(o)
	}

	var p poller = newChanPoller()

	if !o.portable {
		pp, err := newPlatformPoller()
		if err != nil {
			ctxlog.Warn(ctx, "platform poller unavailable, reading every stream with a pump", "error", err)
		} else {
			p = pp
		}
	}

	f := &Forwarder{
		ctx:           ctx,
		poller:        p,
		readSize:      o.readSize,
		maxLineLength: o.maxLineLength,
		done:          make(chan struct{}),
	}
	f.registry = newRegistry(p.wake)
	f.stopCtxWatch = context.AfterFunc(ctx, f.requestStop)

	go f.run()

	return f
}

// Forward registers stream so that each complete line read from it is logged to
// sink at level, or at the level returned by override if override is not nil.
// It does not block: reading happens on the forwarder's goroutine. When the stream
// ends or fails it is closed (if it is an io.Closer) and dropped; the caller is
// not told. A stream that is neither an io.Closer nor pollable is read by a
// goroutine that only exits once its Read returns, which may be after Stop.
func (f *Forwarder) Forward(sink Sink, level slog.Level, stream io.Reader, override OverrideFunc) error {
	if sink == nil {
		return ErrNilSink
	}

	if stream == nil {
		return ErrNilStream
	}

	return f.registry.register(&registration{
		stream:   stream,
		sink:     sink,
		level:    level,
		override: override,
		buf:      linebuf.New(f.maxLineLength),
	})
}

// Active returns the number of streams that have not ended yet.
func (f *Forwarder) Active() int {
	return f.registry.len()
}

// WaitForLogEnd blocks until every registered stream has ended and been closed,
// or ctx is done.
func (f *Forwarder) WaitForLogEnd(ctx context.Context) error {
	return f.registry.waitIdle(ctx)
}

// Stop makes Forward reject new streams, drains whatever is ready to be read,
// closes the remaining streams and waits for the forwarder's goroutines to exit.
// Partial lines still buffered are dropped. Stop is safe to call more than once.
// It does not wait for reads blocked on streams that are not io.Closers.
func (f *Forwarder) Stop(ctx context.Context) error {
	f.requestStop()

	select {
	case <-f.done:
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck
	}

	f.stopCtxWatch()

	pumpsDone := make(chan struct{})

	go func() {
		f.pumps.Wait()
		close(pumpsDone)
	}()

	select {
	case <-pumpsDone:
		return nil
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck
	}
}

// Done is closed once the forwarder's multiplexing goroutine has exited.
func (f *Forwarder) Done() <-chan struct{} {
	return f.done
}

func (f *Forwarder) requestStop() {
	if f.registry.stop() {
		ctxlog.Debug(f.ctx, "forwarder stopping", "activeStreams", f.registry.len())
	}

	f.poller.wake()
}

var (
	defaultOnce      sync.Once
	defaultForwarder *Forwarder
)

// Default returns the process-wide Forwarder used by the package-level functions.
// It is started on first use and runs until the process exits.
func Default() *Forwarder {
	defaultOnce.Do(func() {
		defaultForwarder = New(ctxlog.New(context.Background(), nil))
	})

	return defaultForwarder
}

// Forward registers stream with the default forwarder. See Forwarder.Forward.
func Forward(sink Sink, level slog.Level, stream io.Reader, override OverrideFunc) error {
	return Default().Forward(sink, level, stream, override)
}

// WaitForLogEnd waits for every stream registered with the default forwarder to end.
func WaitForLogEnd(ctx context.Context) error {
	return Default().WaitForLogEnd(ctx)
}
