// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package logforward

import "errors"

// errNotPollable is returned by poller.attach when a stream has to be read by a pump instead.
var errNotPollable = errors.New("stream cannot be watched by the poller")

// poller waits for readiness across the streams attached to it.
// Apart from wake, its methods are only called from the multiplexing goroutine.
type poller interface {
	// attach starts watching reg and sets reg.src. It returns an error wrapping
	// errNotPollable when reg must be read by a pump instead.
	attach(reg *registration) error
	// wait blocks until the wake signal is asserted or at least one attached
	// stream is ready, clears the wake signal, and returns the ready registrations.
	// If block is false it returns immediately. A blocking wait may also return
	// with nothing ready, so the caller gets to check for streams closed under it.
	wait(block bool) ([]*registration, error)
	// wake asserts the wake signal. It stays asserted until the next wait clears it,
	// so a wake that happens before wait is entered is never lost.
	// Safe for concurrent use, and a no-op after close.
	wake()
	close() error
}

// chanPoller only watches its wake channel. Every stream is read by a pump,
// and pumps assert the wake signal whenever they hand over a chunk.
type chanPoller struct {
	ch chan struct{}
}

var _ poller = (*chanPoller)(nil)

func newChanPoller() *chanPoller {
	return &chanPoller{
		ch: make(chan struct{}, 1),
	}
}

func (p *chanPoller) attach(_ *registration) error {
	return errNotPollable
}

func (p *chanPoller) wait(block bool) ([]*registration, error) {
	if block {
		<-p.ch
		return nil, nil
	}

	select {
	case <-p.ch:
	default:
	}

	return nil, nil
}

func (p *chanPoller) wake() {
	select {
	case p.ch <- struct{}{}:
	default:
		// already asserted
	}
}

func (p *chanPoller) close() error {
	return nil
}
