// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"slices"
	"time"
)

var (
	// ErrResultChildrenHasError is the error of a batch with at least one failed command.
	ErrResultChildrenHasError = errors.New("result has children with errors")
	// ErrSkipOnError is the error of a command skipped because an earlier command failed.
	ErrSkipOnError = errors.New("skipped because an earlier command failed")
	// ErrSkipIntentional is the error of a command skipped because its run condition was not met.
	ErrSkipIntentional = errors.New("skipped because its run condition was not met")
)

// ResultStatus is how a command or batch ended.
type ResultStatus int

const (
	// ResultStatusSuccess means the command exited with a success exit code.
	ResultStatusSuccess ResultStatus = iota
	// ResultStatusError means the command failed or could not be run.
	ResultStatusError
	// ResultStatusSkipped means the command was not run.
	ResultStatusSkipped
)

func (s ResultStatus) String() string {
	switch s {
	case ResultStatusSuccess:
		return "success"
	case ResultStatusError:
		return "error"
	case ResultStatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Result represents the outcome of running a command or batch.
type Result struct {
	Label    string        // Label of the command or batch
	ExitCode int           // Exit code of the command, -1 if it has none
	Error    error         // Error, if any
	Status   ResultStatus  // How the command ended
	Duration time.Duration // Wall time from start to the end of its output
	Children Results       // Nested results for batches
}

// Results is a slice of Result pointers, used to represent multiple results.
type Results []*Result

// HasError reports whether any result in the tree failed.
func (r Results) HasError() bool {
	for v := range slices.Values(r) {
		if v.Status == ResultStatusError {
			return true
		}

		if v.Children.HasError() {
			return true
		}
	}

	return false
}

// ExitCode returns the exit code of the first failed command, depth first.
// A failure without a usable exit code, such as a command that could not be started
// or was killed, yields 1. No failure yields 0.
func (r Results) ExitCode() int {
	for v := range slices.Values(r) {
		if len(v.Children) > 0 {
			if code := v.Children.ExitCode(); code != 0 {
				return code
			}

			continue
		}

		if v.Status != ResultStatusError {
			continue
		}

		if v.ExitCode > 0 {
			return v.ExitCode
		}

		return 1
	}

	return 0
}

// aggregate wraps the results of a batch's children in the batch's own result.
func aggregate(label string, start time.Time, children Results) Results {
	res := &Result{
		Label:    label,
		Duration: time.Since(start),
		Children: children,
		Status:   ResultStatusSuccess,
	}

	if children.HasError() {
		res.ExitCode = -1
		res.Error = ErrResultChildrenHasError
		res.Status = ResultStatusError
	}

	return Results{res}
}
