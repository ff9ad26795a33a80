// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the logpipe command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/logpipe"
	"github.com/matt-FFFFFF/logpipe/cmd/logpipe/exec"
	"github.com/matt-FFFFFF/logpipe/cmd/logpipe/run"
	"github.com/matt-FFFFFF/logpipe/cmd/logpipe/runner"
	"github.com/matt-FFFFFF/logpipe/cmd/logpipe/schema"
	"github.com/matt-FFFFFF/logpipe/internal/color"
	"github.com/matt-FFFFFF/logpipe/internal/ctxlog"
	"github.com/matt-FFFFFF/logpipe/internal/runbatch"
	"github.com/matt-FFFFFF/logpipe/internal/signalbroker"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const (
	logFormatFlag = "log-format"
	noColorFlag   = "no-color"

	logFormatPretty = "pretty"
	logFormatJSON   = "json"
	logFormatZap    = "zap"
)

// zapLogger is set when forwarded lines go to zap, so it can be flushed on exit.
var zapLogger *zap.Logger

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		run.RunCmd,
		exec.ExecCmd,
		schema.SchemaCmd,
	},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name: logFormatFlag,
			Usage: "How log records are written to stderr: pretty, json, " +
				"or zap (forwarded lines through zap, logpipe's own records as json)",
			Value: logFormatPretty,
		},
		&cli.BoolFlag{
			Name:  noColorFlag,
			Usage: "Disable colour output, the same as setting NO_COLOR",
		},
	},
	Before:    before,
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "logpipe",
	Description: `logpipe runs commands and logs their output line by line while they run.
Each line is logged as soon as it is complete, at a level chosen per stream
(stdout or stderr) or by rules that match the line. Commands can be run
ad hoc with exec, or as batches defined in a YAML job file with run.

Set LOGPIPE_LOG_LEVEL to TRACE, DEBUG, INFO, WARN, ERROR or CRITICAL to choose which lines are shown.`,
	Usage:     "logpipe exec -- make all",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}

func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool(noColorFlag) {
		color.Set(false)
	}

	switch f := cmd.String(logFormatFlag); f {
	case logFormatPretty:
		return ctx, nil
	case logFormatJSON:
		return ctxlog.New(ctx, ctxlog.JSONLogger), nil
	case logFormatZap:
		zl, err := runner.NewZapLogger(ctxlog.LevelVar.Level())
		if err != nil {
			return ctx, cli.Exit(err.Error(), 1)
		}

		zapLogger = zl
		ctx = ctxlog.New(ctx, ctxlog.JSONLogger)

		return runbatch.WithSinkFactory(ctx, runner.ZapSinkFactory(zl)), nil
	default:
		return ctx, cli.Exit(fmt.Sprintf("unknown log format %q, use %s, %s or %s",
			f, logFormatPretty, logFormatJSON, logFormatZap), 1)
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)

	sigCh := signalbroker.New(ctx)

	go signalbroker.Watch(ctx, sigCh, cancel)

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", logpipe.Version, logpipe.Commit)

	err := rootCmd.Run(ctx, os.Args) // Err is handled by cli framework

	if zapLogger != nil {
		_ = zapLogger.Sync()
	}

	// Check if the context was cancelled (e.g., due to signals)
	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Error("command terminated due to cancellation", "error", ctx.Err())
		cancel()
		os.Exit(1)
	}

	cancel()

	if err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(1)
	}
}
