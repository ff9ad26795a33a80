// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package logforward

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistration(s string) *registration {
	return &registration{stream: strings.NewReader(s)}
}

func TestRegistry_RegisterWakesOncePerRegistration(t *testing.T) {
	var wakes atomic.Int32

	r := newRegistry(func() { wakes.Add(1) })

	require.NoError(t, r.register(newTestRegistration("a")))
	require.NoError(t, r.register(newTestRegistration("b")))

	assert.Equal(t, int32(2), wakes.Load())
	assert.Equal(t, 2, r.len())
}

func TestRegistry_SnapshotKeepsRegistrationOrder(t *testing.T) {
	r := newRegistry(func() {})

	regs := make([]*registration, 5)
	for i := range regs {
		regs[i] = newTestRegistration("")
		require.NoError(t, r.register(regs[i]))
	}

	got, fresh, stopping := r.snapshot()
	assert.Equal(t, regs, got)
	assert.Equal(t, regs, fresh)
	assert.False(t, stopping)

	late := newTestRegistration("")
	require.NoError(t, r.register(late))

	got, fresh, _ = r.snapshot()
	assert.Equal(t, append(regs, late), got)
	assert.Equal(t, []*registration{late}, fresh)

	_, fresh, _ = r.snapshot()
	assert.Empty(t, fresh)
}

func TestRegistry_UnregisterIsIdempotent(t *testing.T) {
	r := newRegistry(func() {})
	reg := newTestRegistration("")

	require.NoError(t, r.register(reg))
	r.snapshot()

	assert.True(t, r.unregister(reg))
	assert.False(t, r.unregister(reg))
	assert.Zero(t, r.len())
}

func TestRegistry_StopRejectsRegistrations(t *testing.T) {
	var wakes atomic.Int32

	r := newRegistry(func() { wakes.Add(1) })

	assert.True(t, r.stop())
	assert.False(t, r.stop())

	require.ErrorIs(t, r.register(newTestRegistration("")), ErrStopped)
	assert.Zero(t, wakes.Load())

	_, _, stopping := r.snapshot()
	assert.True(t, stopping)
}

func TestRegistry_WaitIdle(t *testing.T) {
	r := newRegistry(func() {})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, r.waitIdle(ctx), "an empty registry is idle")

	reg := newTestRegistration("")
	require.NoError(t, r.register(reg))

	short, shortCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer shortCancel()

	require.ErrorIs(t, r.waitIdle(short), context.DeadlineExceeded, "a pending registration is not idle")

	r.snapshot()

	done := make(chan error, 1)

	go func() {
		done <- r.waitIdle(ctx)
	}()

	r.unregister(reg)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("waitIdle did not return after the last registration was removed")
	}

	// becoming busy again re-arms the wait
	require.NoError(t, r.register(newTestRegistration("")))
	require.ErrorIs(t, r.waitIdle(short), context.DeadlineExceeded)
}

func TestRegistry_ConcurrentRegister(t *testing.T) {
	r := newRegistry(func() {})

	const n = 50

	var wg sync.WaitGroup

	for range n {
		wg.Add(1)

		go func() {
			defer wg.Done()
			assert.NoError(t, r.register(newTestRegistration("")))
		}()
	}

	wg.Wait()

	regs, fresh, _ := r.snapshot()
	assert.Len(t, regs, n)
	assert.Len(t, fresh, n)

	seen := make(map[uint64]bool)
	for _, reg := range regs {
		assert.False(t, seen[reg.id], "ids are unique")
		seen[reg.id] = true
	}
}
