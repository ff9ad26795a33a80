// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"syscall"

	"github.com/matt-FFFFFF/logpipe/internal/logforward"
)

// outputStream is one stream of a command's output, read by the forwarder.
type outputStream struct {
	name     string
	level    slog.Level
	override logforward.OverrideFunc
	file     *os.File
}

// commandOutput holds both ends of a command's output streams.
type commandOutput struct {
	childFiles []*os.File // stdin, stdout and stderr of the child
	childEnds  []*os.File // the child's ends, closed in the parent once it has started
	streams    []outputStream
	sys        *syscall.SysProcAttr
}

func (c *OSCommand) openOutput() (*commandOutput, error) {
	if c.PTY {
		master, tty, sys, err := openPTY()
		if err != nil {
			return nil, err
		}

		return &commandOutput{
			childFiles: []*os.File{tty, tty, tty},
			childEnds:  []*os.File{tty},
			streams:    []outputStream{{name: "pty", level: c.StdoutLevel, override: c.StdoutOverride, file: master}},
			sys:        sys,
		}, nil
	}

	rOut, wOut, err := os.Pipe()
	if err != nil {
		return nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	rErr, wErr, err := os.Pipe()
	if err != nil {
		_ = rOut.Close()
		_ = wOut.Close()

		return nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	return &commandOutput{
		childFiles: []*os.File{os.Stdin, wOut, wErr},
		childEnds:  []*os.File{wOut, wErr},
		streams: []outputStream{
			{name: "stdout", level: c.StdoutLevel, override: c.StdoutOverride, file: rOut},
			{name: "stderr", level: c.StderrLevel, override: c.StderrOverride, file: rErr},
		},
	}, nil
}

func (o *commandOutput) closeChildEnds() {
	for _, f := range o.childEnds {
		_ = f.Close()
	}
}

func (o *commandOutput) closeStreams() {
	for _, s := range o.streams {
		_ = s.file.Close()
	}
}

// forward hands every stream to fwd. The returned channels are closed once the
// forwarder has closed the matching stream.
func (o *commandOutput) forward(ctx context.Context, fwd Forwarder, c *OSCommand, label string) ([]<-chan struct{}, error) {
	drained := make([]<-chan struct{}, 0, len(o.streams))

	for i, s := range o.streams {
		nf := newNotifyingFile(s.file)
		sink := c.sink(ctx, label, s.name)

		if err := fwd.Forward(sink, s.level, nf, s.override); err != nil {
			for _, rest := range o.streams[i:] {
				_ = rest.file.Close()
			}

			return nil, errors.Join(ErrForwardOutput, err)
		}

		drained = append(drained, nf.closed)
	}

	return drained, nil
}

// notifyingFile is an *os.File that reports when it has been closed.
// Embedding keeps SyscallConn, so the forwarder can still poll the descriptor.
type notifyingFile struct {
	*os.File
	once   sync.Once
	closed chan struct{}
}

func newNotifyingFile(f *os.File) *notifyingFile {
	return &notifyingFile{
		File:   f,
		closed: make(chan struct{}),
	}
}

// Close closes the file and signals the closed channel.
func (f *notifyingFile) Close() error {
	err := f.File.Close()
	f.once.Do(func() { close(f.closed) })

	return err //nolint:wrapcheck
}
