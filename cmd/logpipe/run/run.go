// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run contains the run command, which runs the commands of one or more job files.
package run

import (
	"context"
	"fmt"
	"time"

	"github.com/matt-FFFFFF/logpipe/cmd/logpipe/runner"
	"github.com/matt-FFFFFF/logpipe/internal/config"
	"github.com/matt-FFFFFF/logpipe/internal/ctxlog"
	"github.com/matt-FFFFFF/logpipe/internal/runbatch"
	"github.com/urfave/cli/v3"
)

const (
	fileFlag                    = "file"
	jsonFlag                    = "json"
	outputSuccessDetailsFlag    = "output-success-details"
	quietFlag                   = "quiet"
	timeoutFlag                 = "timeout"
	configTimeoutFlag           = "config-timeout"
	configTimeoutSecondsDefault = 30
	cliExitStr                  = ""
)

// RunCmd is the command that runs the commands defined in YAML job files.
var RunCmd = &cli.Command{
	Name:  "run",
	Usage: "Run the commands of a job file, logging their output line by line",
	Description: `Run the commands defined in one or more YAML job files.
Every line a command writes is logged as soon as it is complete, at the level
configured for its stream, or at the level of the first rule it matches.
When all commands have finished a summary of the results is written to stdout.

Job file URLs use Hashicorp's go-getter syntax, which allows for fetching files from various sources.
See https://github.com/hashicorp/go-getter.
`,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:    fileFlag,
			Aliases: []string{"f"},
			Usage: "Specify the path or URL of the YAML job file to run. " +
				"Supports Hashicorp's go-getter syntax for fetching files from various sources. " +
				"Specify multiple times to run multiple files one after the other.",
		},
		&cli.BoolFlag{
			Name:  jsonFlag,
			Usage: "Write the results as JSON",
		},
		&cli.BoolFlag{
			Name:    outputSuccessDetailsFlag,
			Aliases: []string{"success"},
			Usage:   "Include successful results in the output",
		},
		&cli.BoolFlag{
			Name:    quietFlag,
			Aliases: []string{"q"},
			Usage:   "Do not write the results, only the forwarded output",
		},
		&cli.DurationFlag{
			Name:  timeoutFlag,
			Usage: "Kill commands that are still running after this long, e.g. 10m. Zero means no limit",
		},
		&cli.IntFlag{
			Name:  configTimeoutFlag,
			Usage: "Set the maximum time in seconds to wait for job files to be fetched",
			Value: configTimeoutSecondsDefault,
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("running run command")

	urls := cmd.StringSlice(fileFlag)
	if len(urls) == 0 {
		logger.Error("Please specify at least one job file using the --file or -f flag.")
		return cli.Exit(cliExitStr, 1)
	}

	// Create a timeout context for fetching and building the job files
	configCtx, configCancel := context.WithTimeout(ctx, time.Duration(cmd.Int(configTimeoutFlag))*time.Second)
	defer configCancel()

	runnables, err := buildAll(configCtx, urls)
	if err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	var top runbatch.Runnable

	switch len(runnables) {
	case 1:
		top = runnables[0]
	default:
		aggregate := &runbatch.SerialBatch{
			BaseCommand: runbatch.NewBaseCommand("Aggregate", ".", runbatch.RunOnAlways, nil),
			Commands:    runnables,
		}

		for _, r := range runnables {
			r.SetParent(aggregate)
		}

		top = aggregate
	}

	return runner.Execute(ctx, cmd.Writer, top, runner.Options{
		Timeout:     cmd.Duration(timeoutFlag),
		JSON:        cmd.Bool(jsonFlag),
		ShowSuccess: cmd.Bool(outputSuccessDetailsFlag),
		Quiet:       cmd.Bool(quietFlag),
	})
}

// buildAll loads and builds every job file, in order.
func buildAll(ctx context.Context, urls []string) ([]runbatch.Runnable, error) {
	runnables := make([]runbatch.Runnable, 0, len(urls))

	for i, u := range urls {
		if u == "" {
			return nil, fmt.Errorf("%w: the job file at index %d is empty", config.ErrGetConfigFile, i)
		}

		data, err := config.Load(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("loading job file %s: %w", u, err)
		}

		r, err := config.BuildFromYAML(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("building job file %s: %w", u, err)
		}

		runnables = append(runnables, r)
	}

	return runnables, nil
}
