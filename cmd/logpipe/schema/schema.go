// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package schema provides the schema command, which documents the job file format.
package schema

import (
	"context"
	"fmt"

	"github.com/matt-FFFFFF/logpipe/internal/config"
	"github.com/matt-FFFFFF/logpipe/internal/schema"
	"github.com/urfave/cli/v3"
)

const (
	formatFlag = "format"

	formatJSON     = "json"
	formatMarkdown = "markdown"

	title       = "logpipe job file"
	description = "Commands run by logpipe run, with the levels their output is logged at"
)

// SchemaCmd is the command that writes the schema of job files.
var SchemaCmd = New()

// New returns a schema command with fresh flag state.
func New() *cli.Command {
	return &cli.Command{
		Name:        "schema",
		Usage:       "logpipe schema --format markdown",
		Description: "Write the schema of job files, as a JSON schema or as Markdown documentation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    formatFlag,
				Aliases: []string{"f"},
				Usage:   "Output format: json or markdown",
				Value:   formatJSON,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(_ context.Context, cmd *cli.Command) error {
	doc, err := schema.NewGenerator().Generate(&config.Definition{}, title, description)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	w := cmd.Root().Writer

	switch f := cmd.String(formatFlag); f {
	case formatJSON:
		err = doc.WriteJSONSchema(w)
	case formatMarkdown:
		err = doc.WriteMarkdownDoc(w)
	default:
		return cli.Exit(fmt.Sprintf("invalid format %q, use %s or %s", f, formatJSON, formatMarkdown), 1)
	}

	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}
