// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/logpipe/internal/ctxlog"
)

// Watch reads sigCh until it is closed or ctx is done.
// The second signal of a kind cancels the run; sigCh is then stopped and closed.
func Watch(ctx context.Context, sigCh chan os.Signal, cancel context.CancelFunc) {
	logger := ctxlog.Logger(ctx)
	seen := make(map[os.Signal]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, dup := seen[sig]; dup {
				logger.Warn("watchdog", "detail", "received second signal of type, forcefully terminating", "signal", sig.String())
				Stop(sigCh)
				close(sigCh)
				cancel()

				return
			}

			logger.Info("watchdog", "detail", "received first signal of type, waiting for commands to exit", "signal", sig.String())

			seen[sig] = struct{}{}
		}
	}
}
