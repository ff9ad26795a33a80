// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runner runs a tree of commands with their output forwarded line by
// line and reports the results. It is shared by the run and exec commands.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/matt-FFFFFF/logpipe/internal/color"
	"github.com/matt-FFFFFF/logpipe/internal/ctxlog"
	"github.com/matt-FFFFFF/logpipe/internal/logforward"
	"github.com/matt-FFFFFF/logpipe/internal/runbatch"
	"github.com/urfave/cli/v3"
)

const (
	// DefaultLogEndTimeout bounds the wait for trailing output once every command has exited.
	DefaultLogEndTimeout = 10 * time.Second
	stopTimeout          = 5 * time.Second
	cliExitStr           = ""
)

// Options controls a run.
type Options struct {
	Timeout       time.Duration // Kill commands still running after this long, zero means no limit
	LogEndTimeout time.Duration // Defaults to DefaultLogEndTimeout
	JSON          bool          // Write the results as JSON instead of a tree
	ShowSuccess   bool          // Include successful commands in the results
	Quiet         bool          // Do not write the results at all
}

// Execute runs r, waits for its output to end and writes the results to w.
// The returned error is a cli.ExitCoder carrying the exit code of the first failed command.
func Execute(ctx context.Context, w io.Writer, r runbatch.Runnable, opts Options) error {
	logger := ctxlog.Logger(ctx).With("label", r.GetLabel())

	// the forwarder outlives cancellation of ctx so output of killed commands still drains
	fwd := logforward.New(context.WithoutCancel(ctx))

	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
		defer cancel()

		if err := fwd.Stop(stopCtx); err != nil {
			logger.Warn("forwarder did not stop cleanly", "error", err)
		}
	}()

	runCtx := ctx

	if opts.Timeout > 0 {
		var cancel context.CancelFunc

		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	logger.Debug("running", "timeout", opts.Timeout.String())

	res := r.Run(runCtx, fwd)

	logEndTimeout := opts.LogEndTimeout
	if logEndTimeout <= 0 {
		logEndTimeout = DefaultLogEndTimeout
	}

	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logEndTimeout)
	defer cancel()

	if err := fwd.WaitForLogEnd(waitCtx); err != nil {
		logger.Warn("output still open after every command finished", "activeStreams", fwd.Active(), "error", err)
	}

	if !opts.Quiet {
		if err := WriteResults(w, res, opts); err != nil {
			logger.Error("failed to write results", "error", err)
			return cli.Exit(cliExitStr, 1)
		}
	}

	if res.HasError() {
		code := res.ExitCode()
		logger.Error("some commands failed", "exitCode", code)

		return cli.Exit(cliExitStr, code)
	}

	return nil
}

// WriteResults writes res to w in the format opts selects.
// JSON is colourised only when colour is on and w is a terminal.
func WriteResults(w io.Writer, res runbatch.Results, opts Options) error {
	if opts.JSON {
		f, ok := w.(*os.File)
		return res.WriteJSON(w, color.Enabled() && ok && color.IsTerminal(f))
	}

	if err := res.WriteText(w, &runbatch.OutputOptions{
		ShowSuccess:  opts.ShowSuccess,
		ShowDuration: true,
	}); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	return nil
}
