// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"time"

	"github.com/matt-FFFFFF/logpipe/internal/ctxlog"
)

var _ Runnable = (*SerialBatch)(nil)

// SerialBatch runs its commands one after the other.
// Each command's RunCondition is checked against the result of the one before it.
type SerialBatch struct {
	*BaseCommand
	Commands []Runnable
}

// Run implements the Runnable interface for SerialBatch.
// Once ctx is done the remaining commands are not started and do not appear in the results.
func (b *SerialBatch) Run(ctx context.Context, fwd Forwarder) Results {
	logger := ctxlog.Logger(ctx).With("label", FullLabel(b), "runnableType", "SerialBatch")
	start := time.Now()
	children := make(Results, 0, len(b.Commands))
	prev := PreviousCommandStatus{State: ResultStatusSuccess}

	for i, cmd := range b.Commands {
		if err := ctx.Err(); err != nil {
			logger.Warn("context done, not running remaining commands",
				"error", err, "remaining", len(b.Commands)-i)

			break
		}

		cmd.InheritEnv(b.Env)
		cmd.SetCwd(b.Cwd)

		if skipErr := skipReason(cmd.ShouldRun(prev)); skipErr != nil {
			logger.Debug("skipping command", "commandLabel", cmd.GetLabel(), "reason", skipErr)
			children = append(children, &Result{
				Label:    cmd.GetLabel(),
				ExitCode: -1,
				Status:   ResultStatusSkipped,
				Error:    skipErr,
			})

			continue
		}

		res := cmd.Run(ctx, fwd)
		if len(res) > 0 {
			prev = PreviousCommandStatus{State: res[0].Status, ExitCode: res[0].ExitCode, Err: res[0].Error}
		}

		children = append(children, res...)
	}

	return aggregate(b.GetLabel(), start, children)
}

func skipReason(action ShouldRunAction) error {
	switch action {
	case ShouldRunActionSkip:
		return ErrSkipIntentional
	case ShouldRunActionError:
		return ErrSkipOnError
	default:
		return nil
	}
}
