// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package logforward

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/eapache/queue"
)

// registry holds every open registration plus the registrations handed over by
// Forward that the multiplexing goroutine has not picked up yet.
// The lock is only ever held for bookkeeping, never across a wait.
type registry struct {
	mu      sync.Mutex
	entries map[uint64]*registration
	pending *queue.Queue // registrations not yet seen by snapshot, in arrival order
	nextID  uint64
	stopped bool
	idle    chan struct{} // closed when the registry becomes empty
	wake    func()
}

func newRegistry(wake func()) *registry {
	idle := make(chan struct{})
	close(idle)

	return &registry{
		entries: make(map[uint64]*registration),
		pending: queue.New(),
		idle:    idle,
		wake:    wake,
	}
}

// register hands reg over to the multiplexing goroutine and asserts the wake signal once.
func (r *registry) register(reg *registration) error {
	r.mu.Lock()

	if r.stopped {
		r.mu.Unlock()
		return ErrStopped
	}

	if r.lenLocked() == 0 {
		r.idle = make(chan struct{})
	}

	r.nextID++
	reg.id = r.nextID
	r.pending.Add(reg)
	r.mu.Unlock()

	r.wake()

	return nil
}

// snapshot moves pending registrations into the open set and returns the open set
// in registration order. fresh holds the registrations moved by this call.
func (r *registry) snapshot() (regs, fresh []*registration, stopping bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.pending.Length() > 0 {
		reg := r.pending.Remove().(*registration) //nolint:forcetypeassert
		r.entries[reg.id] = reg
		fresh = append(fresh, reg)
	}

	regs = slices.SortedFunc(maps.Values(r.entries), func(a, b *registration) int {
		return cmp.Compare(a.id, b.id)
	})

	return regs, fresh, r.stopped
}

// unregister removes reg from the open set. It reports whether reg was present,
// so removal is idempotent.
func (r *registry) unregister(reg *registration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[reg.id]; !ok {
		return false
	}

	delete(r.entries, reg.id)

	if r.lenLocked() == 0 {
		close(r.idle)
	}

	return true
}

// stop rejects further registrations. It reports whether this call did the stopping.
func (r *registry) stop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return false
	}

	r.stopped = true

	return true
}

// waitIdle blocks until there are no open or pending registrations, or ctx is done.
func (r *registry) waitIdle(ctx context.Context) error {
	r.mu.Lock()
	idle := r.idle
	r.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck
	}
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.lenLocked()
}

func (r *registry) lenLocked() int {
	return len(r.entries) + r.pending.Length()
}
