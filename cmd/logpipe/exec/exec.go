// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package exec contains the exec command, which runs a single command given on the command line.
package exec

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/matt-FFFFFF/logpipe/cmd/logpipe/runner"
	"github.com/matt-FFFFFF/logpipe/internal/config"
	"github.com/matt-FFFFFF/logpipe/internal/ctxlog"
	"github.com/matt-FFFFFF/logpipe/internal/levelrule"
	"github.com/matt-FFFFFF/logpipe/internal/runbatch"
	"github.com/urfave/cli/v3"
)

const (
	nameFlag        = "name"
	stdoutLevelFlag = "stdout-level"
	stderrLevelFlag = "stderr-level"
	ruleFlag        = "rule"
	escalateFlag    = "escalate"
	ptyFlag         = "pty"
	cwdFlag         = "cwd"
	timeoutFlag     = "timeout"
	jsonFlag        = "json"
	quietFlag       = "quiet"
	cliExitStr      = ""
)

// ErrNoCommand is returned when no command is given after the flags.
var ErrNoCommand = errors.New("no command given, use: logpipe exec [flags] -- command [args...]")

const description = `Run a single command and log every line it writes as soon as the line is complete.
Lines from stdout and stderr are logged at their own levels. A rule of the form
PATTERN=LEVEL logs the lines matching the regular expression PATTERN at LEVEL instead.
With --escalate, a matching line also raises the level of the lines that follow it.

Levels are trace, debug, info, warn, error and critical.

Example:

  logpipe exec --stderr-level info --rule '^error=error' --rule 'warning:=warn' -- make -j8
`

// ExecCmd runs a single command with its output forwarded line by line.
var ExecCmd = New()

// New returns a fresh exec command.
func New() *cli.Command {
	return &cli.Command{
		Name:        "exec",
		Usage:       "Run one command, logging its output line by line",
		ArgsUsage:   "-- command [args...]",
		Description: description,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  nameFlag,
				Usage: "Label of the command in the log and the results. Defaults to the executable name",
			},
			&cli.StringFlag{
				Name:  stdoutLevelFlag,
				Usage: "Level of lines written to stdout",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  stderrLevelFlag,
				Usage: "Level of lines written to stderr",
				Value: "warn",
			},
			&cli.StringSliceFlag{
				Name:    ruleFlag,
				Aliases: []string{"r"},
				Usage:   "Log lines matching PATTERN at LEVEL, given as PATTERN=LEVEL. The first matching rule wins",
			},
			&cli.BoolFlag{
				Name:  escalateFlag,
				Usage: "Keep a stream at the level of the last matching rule",
			},
			&cli.BoolFlag{
				Name:  ptyFlag,
				Usage: "Run the command on a pseudo-terminal. Stdout and stderr are merged at the stdout level",
			},
			&cli.StringFlag{
				Name:      cwdFlag,
				Usage:     "Directory to run the command in",
				TakesFile: true,
			},
			&cli.DurationFlag{
				Name:  timeoutFlag,
				Usage: "Kill the command if it is still running after this long, e.g. 90s",
			},
			&cli.BoolFlag{
				Name:  jsonFlag,
				Usage: "Write the result as JSON",
			},
			&cli.BoolFlag{
				Name:    quietFlag,
				Aliases: []string{"q"},
				Usage:   "Do not write the result, only the forwarded output",
				Value:   false,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	c, err := newCommand(cmd)
	if err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	logger.Debug("running exec command", "path", c.Path, "args", c.Args)

	return runner.Execute(ctx, cmd.Writer, c, runner.Options{
		Timeout:     cmd.Duration(timeoutFlag),
		JSON:        cmd.Bool(jsonFlag),
		ShowSuccess: true,
		Quiet:       cmd.Bool(quietFlag),
	})
}

// newCommand builds the command described by the flags and arguments of cmd.
func newCommand(cmd *cli.Command) (*runbatch.OSCommand, error) {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return nil, ErrNoCommand
	}

	stdoutLevel, err := levelrule.ParseOr(cmd.String(stdoutLevelFlag), config.DefaultStdoutLevel)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	stderrLevel, err := levelrule.ParseOr(cmd.String(stderrLevelFlag), config.DefaultStderrLevel)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	rules, err := levelrule.ParseRules(cmd.StringSlice(ruleFlag))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	label := cmd.String(nameFlag)
	if label == "" {
		label = filepath.Base(args[0])
	}

	return &runbatch.OSCommand{
		BaseCommand:    runbatch.NewBaseCommand(label, cmd.String(cwdFlag), runbatch.RunOnAlways, nil),
		Path:           args[0],
		Args:           args[1:],
		PTY:            cmd.Bool(ptyFlag),
		StdoutLevel:    stdoutLevel,
		StderrLevel:    stderrLevel,
		StdoutOverride: rules.Override(stdoutLevel, cmd.Bool(escalateFlag)),
		StderrOverride: rules.Override(stderrLevel, cmd.Bool(escalateFlag)),
	}, nil
}
