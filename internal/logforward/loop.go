// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package logforward

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/matt-FFFFFF/logpipe/internal/ctxlog"
)

const pollErrorBackoff = 100 * time.Millisecond

// errStopping closes the streams still open when the forwarder stops.
var errStopping = errors.New("forwarder stopping")

// run is the multiplexing goroutine.
func (f *Forwarder) run() {
	defer close(f.done)

	logger := ctxlog.Logger(f.ctx)
	buf := make([]byte, f.readSize)

	for {
		regs, fresh, stopping := f.registry.snapshot()

		for _, reg := range fresh {
			if err := f.attach(reg); err != nil {
				f.finish(reg, err)
			}
		}

		for _, reg := range regs {
			if reg.closed || reg.src == nil {
				continue
			}

			if err := reg.src.alive(); err != nil {
				f.finish(reg, err)
			}
		}

		// once stopping, only what is ready right now gets drained
		ready, err := f.poller.wait(!stopping)
		if err != nil {
			logger.Error("waiting for stream readiness failed", "error", err)

			if !stopping {
				time.Sleep(pollErrorBackoff)
				continue
			}
		}

		for _, reg := range ready {
			f.service(reg, buf)
		}

		// pumps assert the wake signal, so the wait above has returned for them
		for _, reg := range regs {
			if _, ok := reg.src.(*pumpSource); ok {
				f.service(reg, buf)
			}
		}

		if stopping {
			f.shutdown(regs)
			return
		}
	}
}

// attach hands reg to the poller, or to a pump if the poller cannot watch it.
func (f *Forwarder) attach(reg *registration) error {
	err := f.poller.attach(reg)
	if err == nil {
		ctxlog.Debug(f.ctx, "stream attached to poller", "stream", reg.id)
		return nil
	}

	if !errors.Is(err, errNotPollable) {
		return err
	}

	// Stop closes the stream to end a pump blocked in Read. A stream that cannot
	// be closed leaves its pump to exit on its own, so Stop does not wait for it.
	var wg *sync.WaitGroup
	if _, ok := reg.stream.(io.Closer); ok {
		wg = &f.pumps
	}

	reg.src = startPump(reg.stream, f.readSize, f.poller.wake, wg)
	ctxlog.Debug(f.ctx, "stream attached to pump", "stream", reg.id)

	return nil
}

// service takes whatever reg has ready, dispatches complete lines, and ends the
// stream on end of file or error.
func (f *Forwarder) service(reg *registration, buf []byte) {
	if reg.closed {
		return
	}

	chunk, ok, err := reg.src.poll(buf)
	if !ok {
		return
	}

	if len(chunk) > 0 {
		if _, werr := reg.buf.Write(chunk); werr != nil {
			err = errors.Join(err, werr)
		}

		f.dispatch(reg)
	}

	if err != nil {
		f.finish(reg, err)
	}
}

// finish drops any partial line, closes the stream and removes it from the registry.
// The stream is closed before it leaves the registry.
func (f *Forwarder) finish(reg *registration, cause error) {
	if reg.closed {
		return
	}

	reg.closed = true
	discarded := reg.buf.Discard()
	closeErr := reg.close()

	f.registry.unregister(reg)

	logger := ctxlog.Logger(f.ctx).With("stream", reg.id, "discardedBytes", discarded)

	switch {
	case errors.Is(cause, io.EOF):
		logger.Debug("stream reached end of file")
	case errors.Is(cause, errStopping):
		logger.Debug("stream closed on stop")
	default:
		logger.Debug("stream read failed", "error", cause)
	}

	if closeErr != nil {
		logger.Debug("closing stream failed", "error", closeErr)
	}
}

func (f *Forwarder) shutdown(regs []*registration) {
	for _, reg := range regs {
		f.finish(reg, errStopping)
	}

	if err := f.poller.close(); err != nil {
		ctxlog.Warn(f.ctx, "closing poller failed", "error", err)
	}
}
