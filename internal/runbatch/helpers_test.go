// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matt-FFFFFF/logpipe/internal/logforward"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const stopTimeout = 5 * time.Second

// fakeCmd is a Runnable that returns a canned result.
type fakeCmd struct {
	*BaseCommand
	delay    time.Duration
	status   ResultStatus
	exitCode int
	err      error
	runs     atomic.Int32
	gauge    *concurrencyGauge
}

func newFakeCmd(label string, status ResultStatus, exitCode int, err error) *fakeCmd {
	return &fakeCmd{
		BaseCommand: NewBaseCommand(label, "", RunOnSuccess, nil),
		status:      status,
		exitCode:    exitCode,
		err:         err,
	}
}

// Run implements the Runnable interface for fakeCmd.
func (f *fakeCmd) Run(_ context.Context, _ Forwarder) Results {
	f.runs.Add(1)

	if f.gauge != nil {
		f.gauge.enter()
		defer f.gauge.leave()
	}

	time.Sleep(f.delay)

	return Results{&Result{
		Label:    f.GetLabel(),
		ExitCode: f.exitCode,
		Error:    f.err,
		Status:   f.status,
	}}
}

// concurrencyGauge records the highest number of fake commands running at once.
type concurrencyGauge struct {
	running atomic.Int32
	peak    atomic.Int32
}

func (g *concurrencyGauge) enter() {
	n := g.running.Add(1)

	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (g *concurrencyGauge) leave() {
	g.running.Add(-1)
}

// capturedLine is one forwarded output line.
type capturedLine struct {
	level  slog.Level
	stream string
	msg    string
}

type lineStore struct {
	mu    sync.Mutex
	lines []capturedLine
}

func (s *lineStore) all() []capturedLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.lines)
}

// messages returns the messages logged for stream, in order.
func (s *lineStore) messages(stream string) []string {
	var msgs []string

	for _, l := range s.all() {
		if l.stream == stream {
			msgs = append(msgs, l.msg)
		}
	}

	return msgs
}

// captureHandler is a slog.Handler that stores every record in a lineStore.
type captureHandler struct {
	store  *lineStore
	stream string
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	h.store.lines = append(h.store.lines, capturedLine{level: r.Level, stream: h.stream, msg: r.Message})

	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h

	for _, a := range attrs {
		if a.Key == "stream" {
			nh.stream = a.Value.String()
		}
	}

	return &nh
}

func (h *captureHandler) WithGroup(string) slog.Handler { return h }

// newCaptureLogger returns a logger whose records end up in the returned store.
func newCaptureLogger() (*slog.Logger, *lineStore) {
	store := &lineStore{}
	return slog.New(&captureHandler{store: store}), store
}

// newTestForwarder starts a forwarder that is stopped when the test ends.
func newTestForwarder(t *testing.T) *logforward.Forwarder {
	t.Helper()

	fwd := logforward.New(context.Background())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()

		require.NoError(t, fwd.Stop(ctx))
	})

	return fwd
}

// verifyNoLeaks checks for leaked goroutines after every other cleanup has run.
func verifyNoLeaks(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { goleak.VerifyNone(t) })
}
