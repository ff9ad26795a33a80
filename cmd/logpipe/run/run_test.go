// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package run

import (
	"context"
	"testing"

	"github.com/matt-FFFFFF/logpipe/internal/config"
	"github.com/matt-FFFFFF/logpipe/internal/runbatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_buildAll(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		urls       []string
		wantErr    error
		wantLabels []string
	}{
		{
			name:       "single job file",
			urls:       []string{"./testdata/ok.yaml"},
			wantLabels: []string{"ok"},
		},
		{
			name:       "job files keep their order",
			urls:       []string{"./testdata/fail.yaml", "./testdata/ok.yaml"},
			wantLabels: []string{"fail", "ok"},
		},
		{
			name:    "empty url returns error",
			urls:    []string{"./testdata/ok.yaml", ""},
			wantErr: config.ErrGetConfigFile,
		},
		{
			name:    "missing file",
			urls:    []string{"./testdata/missing.yaml"},
			wantErr: config.ErrGetConfigFile,
		},
		{
			name:    "invalid job",
			urls:    []string{"./testdata/invalid.yaml"},
			wantErr: config.ErrInvalidCommand,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			runnables, err := buildAll(context.Background(), tc.urls)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, runnables)

				return
			}

			require.NoError(t, err)

			labels := make([]string, 0, len(runnables))
			for _, r := range runnables {
				labels = append(labels, r.GetLabel())
				assert.IsType(t, &runbatch.SerialBatch{}, r)
			}

			assert.Equal(t, tc.wantLabels, labels)
		})
	}
}
