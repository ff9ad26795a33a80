// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"slices"
	"time"

	"github.com/matt-FFFFFF/logpipe/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

var _ Runnable = (*ParallelBatch)(nil)

// ParallelBatch represents a collection of commands, which can be run in parallel.
// All of them share the forwarder, so their output is interleaved line by line.
type ParallelBatch struct {
	*BaseCommand
	Commands    []Runnable // The commands or nested batches to run
	MaxParallel int        // Maximum number of commands running at once, zero or less means no limit
}

// Run implements the Runnable interface for ParallelBatch.
func (b *ParallelBatch) Run(ctx context.Context, fwd Forwarder) Results {
	logger := ctxlog.Logger(ctx).With("label", FullLabel(b), "runnableType", "ParallelBatch")

	for _, cmd := range b.Commands {
		cmd.InheritEnv(b.Env)
		cmd.SetCwd(b.Cwd)

		logger.Debug("setting environment for child commands",
			"commandLabel", cmd.GetLabel(),
			"env", b.Env)
	}

	startTime := time.Now()

	// children fill their own slot, which keeps results in declaration order
	slots := make([]Results, len(b.Commands))

	var g errgroup.Group
	if b.MaxParallel > 0 {
		g.SetLimit(b.MaxParallel)
	}

	for i, cmd := range b.Commands {
		g.Go(func() error {
			slots[i] = cmd.Run(ctx, fwd)
			return nil
		})
	}

	_ = g.Wait()

	return aggregate(b.GetLabel(), startTime, slices.Concat(slots...))
}
