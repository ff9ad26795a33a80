// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/logpipe/internal/ctxlog"
	"github.com/matt-FFFFFF/logpipe/internal/levelrule"
	"github.com/matt-FFFFFF/logpipe/internal/runbatch"
)

const (
	// DefaultStdoutLevel is the level of stdout lines when a command does not set one.
	DefaultStdoutLevel = slog.LevelInfo
	// DefaultStderrLevel is the level of stderr lines when a command does not set one.
	DefaultStderrLevel = slog.LevelWarn

	shellPath = "sh"
)

var (
	// ErrInvalidYaml is returned when the job file is not valid YAML or has unknown fields.
	ErrInvalidYaml = errors.New("invalid YAML")
	// ErrNoCommands is returned when a job or group has no commands.
	ErrNoCommands = errors.New("no commands specified")
	// ErrInvalidCommand is returned when a command does not set exactly one of exec, shell and commands.
	ErrInvalidCommand = errors.New("command must set exactly one of exec, shell or commands")
	// ErrInvalidMaxParallel is returned when max_parallel is negative.
	ErrInvalidMaxParallel = errors.New("max_parallel must not be negative")
	// ErrShellArgs is returned when a shell command also sets args.
	ErrShellArgs = errors.New("args cannot be used with shell, put them in the command line")
	// ErrNotAGroupOption is returned when a group sets an option that only applies to a single command.
	ErrNotAGroupOption = errors.New("option only applies to exec and shell commands")
)

// Parse decodes a job file. Unknown fields are an error.
func Parse(data []byte) (*Definition, error) {
	def := new(Definition)
	if err := yaml.UnmarshalWithOptions(data, def, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidYaml, err)
	}

	return def, nil
}

// Validate reports every problem in the definition at once.
func (d *Definition) Validate() error {
	b := &builder{}
	b.job(d)

	return b.err()
}

// Build validates def and creates the runnable tree it describes.
func Build(ctx context.Context, def *Definition) (runbatch.Runnable, error) {
	b := &builder{}

	r := b.job(def)
	if err := b.err(); err != nil {
		return nil, err
	}

	ctxlog.Debug(ctx, "job built", "name", def.Name, "commands", len(def.Commands))

	return r, nil
}

// BuildFromYAML parses data and builds the job it describes.
func BuildFromYAML(ctx context.Context, data []byte) (runbatch.Runnable, error) {
	def, err := Parse(data)
	if err != nil {
		return nil, err
	}

	return Build(ctx, def)
}

// builder turns definitions into runnables, collecting every error on the way.
type builder struct {
	errs *multierror.Error
}

func (b *builder) fail(path string, err error) {
	b.errs = multierror.Append(b.errs, fmt.Errorf("%s: %w", path, err))
}

func (b *builder) err() error {
	return b.errs.ErrorOrNil()
}

func (b *builder) job(d *Definition) runbatch.Runnable {
	if d == nil {
		b.fail("job", ErrNoCommands)
		return nil
	}

	base := runbatch.NewBaseCommand(d.Name, d.Cwd, runbatch.RunOnSuccess, d.Env)

	return b.group("job", base, d.Parallel, d.MaxParallel, d.Commands)
}

func (b *builder) group(
	path string,
	base *runbatch.BaseCommand,
	parallel bool,
	maxParallel int,
	defs []*CommandDefinition,
) runbatch.Runnable {
	if len(defs) == 0 {
		b.fail(path, ErrNoCommands)
	}

	if maxParallel < 0 {
		b.fail(path, ErrInvalidMaxParallel)
	}

	children := make([]runbatch.Runnable, 0, len(defs))

	for i, def := range defs {
		if c := b.command(fmt.Sprintf("%s.commands[%d]", path, i), def); c != nil {
			children = append(children, c)
		}
	}

	var r runbatch.Runnable

	if parallel {
		r = &runbatch.ParallelBatch{BaseCommand: base, Commands: children, MaxParallel: maxParallel}
	} else {
		r = &runbatch.SerialBatch{BaseCommand: base, Commands: children}
	}

	for _, c := range children {
		c.SetParent(r)
	}

	return r
}

func (b *builder) command(path string, def *CommandDefinition) runbatch.Runnable {
	if def == nil {
		b.fail(path, ErrInvalidCommand)
		return nil
	}

	if def.Name != "" {
		path = fmt.Sprintf("%s (%s)", path, def.Name)
	}

	runsOn, err := runbatch.NewRunCondition(def.RunsOn)
	if err != nil {
		b.fail(path, err)
	}

	base := runbatch.NewBaseCommand(def.Name, def.Cwd, runsOn, def.Env)

	set := 0

	for _, given := range []bool{def.Exec != "", def.Shell != "", len(def.Commands) > 0} {
		if given {
			set++
		}
	}

	if set != 1 {
		b.fail(path, ErrInvalidCommand)
		return nil
	}

	if len(def.Commands) > 0 {
		b.noCommandOptions(path, def)
		return b.group(path, base, def.Parallel, def.MaxParallel, def.Commands)
	}

	return b.osCommand(path, base, def)
}

func (b *builder) noCommandOptions(path string, def *CommandDefinition) {
	options := []struct {
		name  string
		given bool
	}{
		{"args", len(def.Args) > 0},
		{"pty", def.PTY},
		{"stdout_level", def.StdoutLevel != ""},
		{"stderr_level", def.StderrLevel != ""},
		{"success_exit_codes", len(def.SuccessExitCodes) > 0},
		{"rules", len(def.Rules) > 0},
		{"escalate", def.Escalate},
	}

	for _, o := range options {
		if o.given {
			b.fail(path, fmt.Errorf("%w: %s", ErrNotAGroupOption, o.name))
		}
	}
}

func (b *builder) osCommand(path string, base *runbatch.BaseCommand, def *CommandDefinition) runbatch.Runnable {
	stdoutLevel, err := levelrule.ParseOr(def.StdoutLevel, DefaultStdoutLevel)
	if err != nil {
		b.fail(path+".stdout_level", err)
	}

	stderrLevel, err := levelrule.ParseOr(def.StderrLevel, DefaultStderrLevel)
	if err != nil {
		b.fail(path+".stderr_level", err)
	}

	rules := make(levelrule.Rules, 0, len(def.Rules))

	for i, rd := range def.Rules {
		r, err := levelrule.New(rd.Match, rd.Level)
		if err != nil {
			b.fail(fmt.Sprintf("%s.rules[%d]", path, i), err)
			continue
		}

		rules = append(rules, r)
	}

	cmd := &runbatch.OSCommand{
		BaseCommand:      base,
		Path:             def.Exec,
		Args:             def.Args,
		PTY:              def.PTY,
		StdoutLevel:      stdoutLevel,
		StderrLevel:      stderrLevel,
		SuccessExitCodes: def.SuccessExitCodes,
	}

	if def.Shell != "" {
		if len(def.Args) > 0 {
			b.fail(path, ErrShellArgs)
		}

		cmd.Path = shellPath
		cmd.Args = []string{"-c", def.Shell}
	}

	cmd.StdoutOverride = rules.Override(stdoutLevel, def.Escalate)
	cmd.StderrOverride = rules.Override(stderrLevel, def.Escalate)

	return cmd
}
