// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/matt-FFFFFF/logpipe/internal/ctxlog"
	"github.com/matt-FFFFFF/logpipe/internal/logforward"
	"github.com/matt-FFFFFF/logpipe/internal/signalbroker"
)

const (
	tickerInterval = 30 * time.Second // Interval for the still running log line
	drainTimeout   = 10 * time.Second // How long output may keep flowing after the process exits
)

var _ Runnable = (*OSCommand)(nil)

var (
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrTimeoutExceeded is returned when the command was killed because its context ended.
	ErrTimeoutExceeded = errors.New("timeout exceeded")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrFailedToCreatePTY is returned when a pseudo-terminal could not be opened.
	ErrFailedToCreatePTY = errors.New("failed to create pseudo-terminal")
	// ErrForwardOutput is returned when the command's output could not be handed to the forwarder.
	ErrForwardOutput = errors.New("could not forward command output")
	// ErrSignalReceived is returned when a operating system signal is received by the child process.
	ErrSignalReceived = errors.New("signal received")
	// ErrDuplicateSignalReceived is returned when a duplicate signal is received, forcing process termination.
	ErrDuplicateSignalReceived = errors.New("duplicate signal received, process forcefully terminated")
)

// OSCommand runs an executable and forwards its output line by line while it runs.
type OSCommand struct {
	*BaseCommand
	Path             string                  // The command to run, looked up in PATH if it has no separator.
	Args             []string                // Arguments to the command, do not include the executable name itself.
	PTY              bool                    // Run under a pseudo-terminal; stdout and stderr arrive merged at StdoutLevel.
	StdoutLevel      slog.Level              // Level of lines written to stdout.
	StderrLevel      slog.Level              // Level of lines written to stderr.
	StdoutOverride   logforward.OverrideFunc // Optional level override for stdout lines, also used for the PTY.
	StderrOverride   logforward.OverrideFunc // Optional level override for stderr lines.
	Logger           *slog.Logger            // Receives the output lines; nil uses the logger in the context.
	SuccessExitCodes []int                   // Exit codes that indicate success, defaults to 0.
	sigCh            chan os.Signal          // Channel to receive signals, allows mocking in test.
}

// Run implements the Runnable interface for OSCommand.
func (c *OSCommand) Run(ctx context.Context, fwd Forwarder) Results {
	label := FullLabel(c)
	logger := ctxlog.Logger(ctx).With("runnableType", "OSCommand", "label", label)

	logger.Debug("command info", "path", c.Path, "cwd", c.Cwd, "args", c.Args, "pty", c.PTY)

	res := &Result{
		Label:    c.GetLabel(),
		ExitCode: -1,
		Status:   ResultStatusError,
	}

	path, err := exec.LookPath(c.Path)
	if err != nil {
		res.Error = errors.Join(ErrCouldNotStartProcess, err)
		return Results{res}
	}

	out, err := c.openOutput()
	if err != nil {
		res.Error = err
		return Results{res}
	}

	sigCh := c.sigCh
	if sigCh == nil {
		sigCh = signalbroker.New(ctx)
		defer signalbroker.Stop(sigCh)
	}

	ps, err := os.StartProcess(path, slices.Concat([]string{filepath.Base(path)}, c.Args), &os.ProcAttr{
		Dir:   c.Cwd,
		Env:   c.environ(),
		Files: out.childFiles,
		Sys:   out.sys,
	})

	// the child has its own copies now, and our copies would keep the streams open
	out.closeChildEnds()

	if err != nil {
		out.closeStreams()

		res.Error = errors.Join(ErrCouldNotStartProcess, err)

		return Results{res}
	}

	startTime := time.Now()

	logger.Info("command started", "pid", ps.Pid)

	drained, err := out.forward(ctx, fwd, c, label)
	if err != nil {
		killPs(ctx, ps)
		_, _ = ps.Wait()

		res.Error = err
		res.Duration = time.Since(startTime)

		return Results{res}
	}

	done := make(chan struct{})
	// This allows us to track why the process was killed.
	wasKilled := make(chan error, 2) //nolint:mnd

	var watchdog sync.WaitGroup

	watchdog.Add(1)

	go func() {
		defer watchdog.Done()
		c.watch(ctx, logger, ps, sigCh, startTime, done, wasKilled)
	}()

	state, psErr := ps.Wait()

	close(done)
	watchdog.Wait()
	close(wasKilled)

	res.Error = psErr
	if state != nil {
		res.ExitCode = state.ExitCode()
	}

	for e := range wasKilled {
		res.Error = errors.Join(res.Error, e)
	}

	waitForOutput(ctx, logger, drained)

	res.Duration = time.Since(startTime)

	successExitCodes := c.SuccessExitCodes
	if successExitCodes == nil {
		successExitCodes = []int{0}
	}

	switch {
	case res.Error == nil && slices.Contains(successExitCodes, res.ExitCode):
		res.Status = ResultStatusSuccess
	case res.ExitCode == 0:
		// an error without a failing exit code, e.g. a relayed signal the child survived
		res.ExitCode = -1
	}

	logger.Info("command finished",
		"exitCode", res.ExitCode,
		"status", res.Status.String(),
		"duration", res.Duration.Round(time.Millisecond).String())

	return Results{res}
}

// watch relays signals to the process, kills it when ctx ends, and logs that it is still running.
func (c *OSCommand) watch(
	ctx context.Context,
	logger *slog.Logger,
	ps *os.Process,
	sigCh <-chan os.Signal,
	startTime time.Time,
	done <-chan struct{},
	wasKilled chan<- error,
) {
	signalCount := make(map[os.Signal]struct{})

	ticker := time.NewTicker(tickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Info("command still running", "elapsed", time.Since(startTime).Round(time.Second).String())

		case s := <-sigCh:
			// is this the second signal received of this type?
			if _, ok := signalCount[s]; ok {
				logger.Warn("received duplicate signal, killing process", "signal", s.String())
				killPs(ctx, ps)

				wasKilled <- ErrDuplicateSignalReceived

				return
			}

			signalCount[s] = struct{}{}

			logger.Info("received signal, passing it on", "signal", s.String())

			if err := ps.Signal(s); err != nil {
				logger.Info("failed to send signal", "signal", s.String(), "error", err)
			}

			wasKilled <- ErrSignalReceived

		case <-ctx.Done():
			logger.Warn("context done, killing process")
			killPs(ctx, ps)

			wasKilled <- ErrTimeoutExceeded

			return

		case <-done:
			return
		}
	}
}

func (c *OSCommand) environ() []string {
	env := os.Environ()

	for _, k := range slices.Sorted(maps.Keys(c.Env)) {
		env = append(env, fmt.Sprintf("%s=%s", k, c.Env[k]))
	}

	return env
}

// waitForOutput waits for every output stream to be closed by the forwarder.
// Grandchildren can keep a stream open after the process exits, so the wait is bounded.
func waitForOutput(ctx context.Context, logger *slog.Logger, drained []<-chan struct{}) {
	timer := time.NewTimer(drainTimeout)
	defer timer.Stop()

	for _, ch := range drained {
		select {
		case <-ch:
		case <-ctx.Done():
			return
		case <-timer.C:
			logger.Warn("command output still open after the process exited, no longer waiting for it",
				"timeout", drainTimeout.String())

			return
		}
	}
}

// killPs kills the process.
func killPs(ctx context.Context, ps *os.Process) {
	if err := ps.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			ctxlog.Debug(ctx, "process already done", "pid", ps.Pid)
			return
		}

		ctxlog.Error(ctx, "process kill error", "pid", ps.Pid, "error", err)

		return
	}

	ctxlog.Info(ctx, "process killed", "pid", ps.Pid)
}
