// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"cmp"
	"maps"
	"path/filepath"
)

// defaultLabel names commands the job file left unnamed.
const defaultLabel = "Command"

// BaseCommand carries what every Runnable has in common: its place in the tree,
// the directory and environment it runs with, and when it runs.
// Command and batch types embed it.
type BaseCommand struct {
	Label           string
	Cwd             string
	RunsOnCondition RunCondition
	Env             map[string]string

	parent Runnable
}

// PreviousCommandStatus is what a serial batch knows about the command before the current one.
type PreviousCommandStatus struct {
	State    ResultStatus
	ExitCode int
	Err      error
}

// NewBaseCommand returns a BaseCommand. A nil env is replaced by an empty map.
func NewBaseCommand(label, cwd string, runsOn RunCondition, env map[string]string) *BaseCommand {
	b := &BaseCommand{
		Label:           label,
		Cwd:             cwd,
		RunsOnCondition: runsOn,
		Env:             env,
	}

	if b.Env == nil {
		b.Env = map[string]string{}
	}

	return b
}

// GetLabel returns the label, or a default one for unnamed commands.
func (c *BaseCommand) GetLabel() string {
	return cmp.Or(c.Label, defaultLabel)
}

// GetParent returns the enclosing batch, nil at the root.
func (c *BaseCommand) GetParent() Runnable { return c.parent }

// SetParent records the enclosing batch, used by FullLabel.
func (c *BaseCommand) SetParent(parent Runnable) { c.parent = parent }

// SetCwd resolves the command's working directory against cwd.
// An empty Cwd becomes cwd, a relative one is joined to it and an absolute one is kept.
func (c *BaseCommand) SetCwd(cwd string) {
	switch {
	case cwd == "", filepath.IsAbs(c.Cwd):
		return
	case c.Cwd == "":
		c.Cwd = cwd
	default:
		c.Cwd = filepath.Join(cwd, c.Cwd)
	}
}

// InheritEnv sets additional environment variables for the command.
// Variables the command already sets win.
func (c *BaseCommand) InheritEnv(env map[string]string) {
	if len(c.Env) == 0 {
		c.Env = maps.Clone(env)
		return
	}

	for k, v := range maps.All(env) {
		if _, ok := c.Env[k]; !ok {
			c.Env[k] = v
		}
	}
}

// ShouldRun decides from the previous command of a serial batch whether this one runs.
// A skipped previous command counts as a success.
func (c *BaseCommand) ShouldRun(prev PreviousCommandStatus) ShouldRunAction {
	failed := prev.State == ResultStatusError

	switch {
	case c.RunsOnCondition == RunOnSuccess && failed:
		return ShouldRunActionError
	case c.RunsOnCondition == RunOnError && !failed:
		return ShouldRunActionSkip
	default:
		return ShouldRunActionRun
	}
}
