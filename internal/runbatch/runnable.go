// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"io"
	"log/slog"

	"github.com/matt-FFFFFF/logpipe/internal/logforward"
)

// Forwarder takes over a command's output streams. *logforward.Forwarder implements it.
type Forwarder interface {
	Forward(sink logforward.Sink, level slog.Level, stream io.Reader, override logforward.OverrideFunc) error
}

var _ Forwarder = (*logforward.Forwarder)(nil)

// Runnable is an interface for something that can be run as part of a batch (either a Command or a nested Batch).
type Runnable interface {
	// Run executes the command or batch and returns the results.
	// Output is handed to fwd line by line while the command runs.
	// It should handle context cancellation and passing signals to any spawned process.
	Run(ctx context.Context, fwd Forwarder) Results
	// SetCwd resolves a relative working directory against cwd. Absolute ones are kept.
	SetCwd(cwd string)
	// InheritEnv adds environment variables that are not already set.
	InheritEnv(env map[string]string)
	// GetLabel returns the label or description of the command or batch.
	GetLabel() string
	// GetParent returns the parent for this command or batch.
	GetParent() Runnable
	// SetParent sets the parent for this command or batch.
	SetParent(parent Runnable)
	// ShouldRun decides whether to run, given how the previous command in a serial batch ended.
	ShouldRun(prev PreviousCommandStatus) ShouldRunAction
}
