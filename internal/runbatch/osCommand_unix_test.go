// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build unix

package runbatch

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matt-FFFFFF/logpipe/internal/ctxlog"
	"github.com/matt-FFFFFF/logpipe/internal/logforward"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShellCommand(label, script string) (*OSCommand, *lineStore) {
	logger, store := newCaptureLogger()

	return &OSCommand{
		BaseCommand: NewBaseCommand(label, "", RunOnSuccess, nil),
		Path:        "/bin/sh",
		Args:        []string{"-c", script},
		StdoutLevel: slog.LevelInfo,
		StderrLevel: slog.LevelWarn,
		Logger:      logger,
		sigCh:       make(chan os.Signal, 1),
	}, store
}

func testContext(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)

	return ctxlog.New(ctx, ctxlog.DefaultLogger)
}

func TestOSCommand_ForwardsBothStreams(t *testing.T) {
	verifyNoLeaks(t)

	fwd := newTestForwarder(t)
	cmd, store := newShellCommand("echo test", "echo hello; echo oops >&2; echo world")

	results := cmd.Run(testContext(t, 10*time.Second), fwd)
	require.Len(t, results, 1)

	res := results[0]
	require.NoError(t, res.Error)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, ResultStatusSuccess, res.Status)
	assert.Positive(t, res.Duration)

	// Run returns once both streams have ended, so every line has been delivered
	assert.Equal(t, []string{"hello", "world"}, store.messages("stdout"))
	assert.Equal(t, []string{"oops"}, store.messages("stderr"))

	for _, l := range store.all() {
		switch l.stream {
		case "stdout":
			assert.Equal(t, slog.LevelInfo, l.level, l.msg)
		case "stderr":
			assert.Equal(t, slog.LevelWarn, l.level, l.msg)
		}
	}

	assert.Zero(t, fwd.Active())
}

func TestOSCommand_OverrideEscalates(t *testing.T) {
	fwd := newTestForwarder(t)
	cmd, store := newShellCommand("override", "echo starting; echo 'error: broken'; echo after")
	cmd.StdoutLevel = slog.LevelDebug
	cmd.StdoutOverride = func(line string, current slog.Level) slog.Level {
		if strings.HasPrefix(line, "error:") {
			return slog.LevelError
		}

		return current
	}

	results := cmd.Run(testContext(t, 10*time.Second), fwd)
	require.Equal(t, ResultStatusSuccess, results[0].Status)

	levels := make([]slog.Level, 0, 3)
	for _, l := range store.all() {
		levels = append(levels, l.level)
	}

	assert.Equal(t, []slog.Level{slog.LevelDebug, slog.LevelError, slog.LevelError}, levels)
}

func TestOSCommand_PartialLastLineIsDropped(t *testing.T) {
	fwd := newTestForwarder(t)
	cmd, store := newShellCommand("partial", "echo complete; printf incomplete")

	results := cmd.Run(testContext(t, 10*time.Second), fwd)
	require.Equal(t, ResultStatusSuccess, results[0].Status)
	assert.Equal(t, []string{"complete"}, store.messages("stdout"))
}

func TestOSCommand_Failure(t *testing.T) {
	fwd := newTestForwarder(t)
	cmd, _ := newShellCommand("fail test", "exit 3")

	results := cmd.Run(testContext(t, 10*time.Second), fwd)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, ResultStatusError, res.Status)
	assert.NoError(t, res.Error)
}

func TestOSCommand_SuccessExitCodes(t *testing.T) {
	fwd := newTestForwarder(t)
	cmd, _ := newShellCommand("tolerated", "exit 3")
	cmd.SuccessExitCodes = []int{0, 3}

	res := cmd.Run(testContext(t, 10*time.Second), fwd)[0]
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, ResultStatusSuccess, res.Status)
}

func TestOSCommand_NotFound(t *testing.T) {
	fwd := newTestForwarder(t)
	cmd, _ := newShellCommand("notfound test", "")
	cmd.Path = "/not/a/real/command"

	res := cmd.Run(testContext(t, 10*time.Second), fwd)[0]
	assert.Equal(t, -1, res.ExitCode)
	assert.Equal(t, ResultStatusError, res.Status)
	require.ErrorIs(t, res.Error, ErrCouldNotStartProcess)
	assert.Zero(t, fwd.Active(), "no stream is registered for a command that never started")
}

func TestOSCommand_LooksUpPath(t *testing.T) {
	fwd := newTestForwarder(t)
	cmd, store := newShellCommand("lookup", "")
	cmd.Path = "sh"
	cmd.Args = []string{"-c", "echo found"}

	res := cmd.Run(testContext(t, 10*time.Second), fwd)[0]
	require.NoError(t, res.Error)
	assert.Equal(t, []string{"found"}, store.messages("stdout"))
}

func TestOSCommand_EnvAndCwd(t *testing.T) {
	tempDir := t.TempDir()
	fwd := newTestForwarder(t)
	cmd, store := newShellCommand("env and cwd test", `echo "$FOO"; pwd`)
	cmd.Env = map[string]string{"FOO": "BAR"}
	cmd.Cwd = tempDir

	res := cmd.Run(testContext(t, 10*time.Second), fwd)[0]
	require.NoError(t, res.Error)

	out := store.messages("stdout")
	require.Len(t, out, 2)
	assert.Equal(t, "BAR", out[0])
	assert.Contains(t, out[1], tempDir)
}

func TestOSCommand_ContextCancelled(t *testing.T) {
	fwd := newTestForwarder(t)
	cmd, _ := newShellCommand("sleep test", "exec sleep 10")
	ctx := testContext(t, 200*time.Millisecond)

	start := time.Now()
	res := cmd.Run(ctx, fwd)[0]

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, -1, res.ExitCode, "expected -1 exit code for killed process")
	assert.Equal(t, ResultStatusError, res.Status)
	require.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
	require.ErrorIs(t, res.Error, ErrTimeoutExceeded)
}

func TestOSCommand_SigInt(t *testing.T) {
	fwd := newTestForwarder(t)
	cmd, _ := newShellCommand("sleep test", "exec sleep 10")
	ctx := testContext(t, 10*time.Second)

	go func() {
		time.Sleep(500 * time.Millisecond)
		cmd.sigCh <- os.Interrupt
	}()

	res := cmd.Run(ctx, fwd)[0]
	assert.Equal(t, -1, res.ExitCode, "expected -1 exit code for interrupted process")
	require.NoError(t, ctx.Err(), "expected context to be unclosed")
	require.ErrorIs(t, res.Error, ErrSignalReceived)
	assert.NotErrorIs(t, res.Error, ErrDuplicateSignalReceived)
}

func TestOSCommand_DuplicateSignalKills(t *testing.T) {
	fwd := newTestForwarder(t)
	cmd, _ := newShellCommand("stubborn", "trap '' INT; exec sleep 10")
	ctx := testContext(t, 10*time.Second)

	go func() {
		time.Sleep(500 * time.Millisecond)
		cmd.sigCh <- os.Interrupt

		time.Sleep(200 * time.Millisecond)
		cmd.sigCh <- os.Interrupt
	}()

	start := time.Now()
	res := cmd.Run(ctx, fwd)[0]

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, -1, res.ExitCode)
	require.ErrorIs(t, res.Error, ErrSignalReceived)
	require.ErrorIs(t, res.Error, ErrDuplicateSignalReceived)
}

func TestOSCommand_PTY(t *testing.T) {
	fwd := newTestForwarder(t)
	cmd, store := newShellCommand("pty test", "echo out; echo err >&2; [ -t 1 ] && echo terminal")
	cmd.PTY = true

	res := cmd.Run(testContext(t, 10*time.Second), fwd)[0]
	require.NoError(t, res.Error)
	assert.Equal(t, ResultStatusSuccess, res.Status)

	// both streams share the terminal and its level
	assert.Equal(t, []string{"out", "err", "terminal"}, store.messages("pty"))
	assert.Empty(t, store.messages("stderr"))

	for _, l := range store.all() {
		assert.Equal(t, slog.LevelInfo, l.level, l.msg)
	}
}

func TestOSCommand_StoppedForwarder(t *testing.T) {
	fwd := newTestForwarder(t)
	require.NoError(t, fwd.Stop(context.Background()))

	cmd, _ := newShellCommand("too late", "exec sleep 10")

	start := time.Now()
	res := cmd.Run(testContext(t, 10*time.Second), fwd)[0]

	assert.Less(t, time.Since(start), 5*time.Second, "the process is killed when its output cannot be forwarded")
	assert.Equal(t, ResultStatusError, res.Status)
	require.ErrorIs(t, res.Error, ErrForwardOutput)
}

func TestOSCommand_ParentLabelIsUsed(t *testing.T) {
	fwd := newTestForwarder(t)
	cmd, _ := newShellCommand("child", "true")
	parent := &SerialBatch{BaseCommand: NewBaseCommand("parent", "", RunOnSuccess, nil), Commands: []Runnable{cmd}}
	cmd.SetParent(parent)

	assert.Equal(t, "parent > child", FullLabel(cmd))

	res := parent.Run(testContext(t, 10*time.Second), fwd)[0]
	require.NoError(t, res.Error)
	require.Len(t, res.Children, 1)
	assert.Equal(t, "child", res.Children[0].Label)
}

func TestOSCommand_SinkFactory(t *testing.T) {
	fwd := newTestForwarder(t)
	cmd, store := newShellCommand("factory", "echo routed; echo also >&2")

	var (
		mu  sync.Mutex
		got []string
	)

	ctx := WithSinkFactory(testContext(t, 10*time.Second), func(_ context.Context, label, stream string) logforward.Sink {
		return logforward.SinkFunc(func(level slog.Level, line string) {
			mu.Lock()
			defer mu.Unlock()

			got = append(got, label+"/"+stream+"/"+level.String()+"/"+line)
		})
	})

	res := cmd.Run(ctx, fwd)[0]
	require.NoError(t, res.Error)

	mu.Lock()
	defer mu.Unlock()

	assert.ElementsMatch(t, []string{"factory/stdout/INFO/routed", "factory/stderr/WARN/also"}, got)
	assert.Empty(t, store.all(), "the command's logger is bypassed")
}
