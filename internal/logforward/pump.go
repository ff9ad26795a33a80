// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package logforward

import (
	"io"
	"sync"
)

type chunk struct {
	data []byte
	err  error
}

// pumpSource reads a stream that cannot be polled. The pump goroutine only does
// the blocking Read; everything else happens on the multiplexing goroutine.
// At most one chunk is in flight, which keeps the stream's bytes in order and
// stops a fast writer from running ahead of the sink.
type pumpSource struct {
	ch   chan chunk
	done chan struct{}
	once sync.Once
}

var _ source = (*pumpSource)(nil)

// startPump starts a pump goroutine for r. wake is called after every hand-over.
// The goroutine is counted in wg unless wg is nil.
func startPump(r io.Reader, readSize int, wake func(), wg *sync.WaitGroup) *pumpSource {
	p := &pumpSource{
		ch:   make(chan chunk, 1),
		done: make(chan struct{}),
	}

	if wg == nil {
		go p.run(r, readSize, wake)
		return p
	}

	wg.Add(1)

	go func() {
		defer wg.Done()
		p.run(r, readSize, wake)
	}()

	return p
}

func (p *pumpSource) run(r io.Reader, readSize int, wake func()) {
	for {
		buf := make([]byte, readSize)
		n, err := r.Read(buf)

		if n > 0 && !p.deliver(chunk{data: buf[:n]}, wake) {
			return
		}

		if err != nil {
			p.deliver(chunk{err: err}, wake)
			return
		}
	}
}

func (p *pumpSource) deliver(c chunk, wake func()) bool {
	select {
	case p.ch <- c:
		wake()
		return true
	case <-p.done:
		return false
	}
}

func (p *pumpSource) poll(_ []byte) ([]byte, bool, error) {
	select {
	case c := <-p.ch:
		return c.data, true, c.err
	default:
		return nil, false, nil
	}
}

func (p *pumpSource) alive() error {
	return nil
}

func (p *pumpSource) release() {
	p.once.Do(func() {
		close(p.done)
	})
}
