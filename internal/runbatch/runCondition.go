// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"fmt"
)

// RunCondition says when a command in a serial batch runs, relative to the command before it.
type RunCondition int

const (
	// RunOnSuccess runs the command when the previous one did not fail.
	RunOnSuccess RunCondition = iota
	// RunOnError runs the command only after a failure, e.g. to collect diagnostics.
	RunOnError
	// RunOnAlways runs the command whatever happened before.
	RunOnAlways
)

// ShouldRunAction is the outcome of Runnable.ShouldRun.
type ShouldRunAction int

const (
	// ShouldRunActionRun means run the command.
	ShouldRunActionRun ShouldRunAction = iota
	// ShouldRunActionSkip means skip the command, it only runs after a failure.
	ShouldRunActionSkip
	// ShouldRunActionError means skip the command because an earlier one failed.
	ShouldRunActionError
)

// ErrRunConditionUnknown is returned by NewRunCondition for names it does not know.
var ErrRunConditionUnknown = errors.New("unknown run condition")

// runConditionNames are the job file spellings, indexed by RunCondition.
var runConditionNames = [...]string{
	RunOnSuccess: "success",
	RunOnError:   "error",
	RunOnAlways:  "always",
}

func (r RunCondition) String() string {
	if r < 0 || int(r) >= len(runConditionNames) {
		return "unknown"
	}

	return runConditionNames[r]
}

// NewRunCondition parses "success", "error" or "always". The empty string means success.
func NewRunCondition(s string) (RunCondition, error) {
	if s == "" {
		return RunOnSuccess, nil
	}

	for i, name := range runConditionNames {
		if name == s {
			return RunCondition(i), nil
		}
	}

	return RunCondition(-1), fmt.Errorf("%w: %q", ErrRunConditionUnknown, s)
}
