// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResults_HasError(t *testing.T) {
	tests := []struct {
		name    string
		results Results
		want    bool
	}{
		{
			name:    "empty",
			results: Results{},
			want:    false,
		},
		{
			name:    "success and skipped",
			results: Results{{Status: ResultStatusSuccess}, {Status: ResultStatusSkipped, Error: ErrSkipIntentional}},
			want:    false,
		},
		{
			name:    "top level error",
			results: Results{{Status: ResultStatusSuccess}, {Status: ResultStatusError}},
			want:    true,
		},
		{
			name: "nested error",
			results: Results{{
				Status: ResultStatusSuccess,
				Children: Results{{
					Status:   ResultStatusSuccess,
					Children: Results{{Status: ResultStatusError}},
				}},
			}},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.results.HasError())
		})
	}
}

func TestResults_ExitCode(t *testing.T) {
	tests := []struct {
		name    string
		results Results
		want    int
	}{
		{
			name:    "nothing failed",
			results: Results{{Status: ResultStatusSuccess}, {Status: ResultStatusSkipped, ExitCode: -1}},
			want:    0,
		},
		{
			name:    "failed command exit code",
			results: Results{{Status: ResultStatusError, ExitCode: 7}},
			want:    7,
		},
		{
			name:    "killed command",
			results: Results{{Status: ResultStatusError, ExitCode: -1, Error: errors.New("killed")}},
			want:    1,
		},
		{
			name:    "tolerated exit code is not a failure",
			results: Results{{Status: ResultStatusSuccess, ExitCode: 3}},
			want:    0,
		},
		{
			name: "first failed leaf wins",
			results: Results{{
				Status:   ResultStatusError,
				ExitCode: -1,
				Error:    ErrResultChildrenHasError,
				Children: Results{
					{Status: ResultStatusSuccess},
					{Status: ResultStatusError, ExitCode: 4},
					{Status: ResultStatusError, ExitCode: 5},
				},
			}},
			want: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.results.ExitCode())
		})
	}
}

func TestResultStatus_String(t *testing.T) {
	assert.Equal(t, "success", ResultStatusSuccess.String())
	assert.Equal(t, "error", ResultStatusError.String())
	assert.Equal(t, "skipped", ResultStatusSkipped.String())
	assert.Equal(t, "unknown", ResultStatus(42).String())
}
