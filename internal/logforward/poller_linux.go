// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build linux

package logforward

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const (
	maxEpollEvents = 128
	wakeToken      = 0 // epoll user data of the eventfd, registrations start at 1
	eventfdSize    = 8

	// closedCheckInterval bounds a blocking wait while streams are attached.
	// Closing a watched descriptor removes it from the epoll set without an event,
	// so the loop has to come round to notice it.
	closedCheckInterval = 250 * time.Millisecond
)

// epollPoller watches file-descriptor backed streams with a level-triggered
// epoll set. The wake signal is an eventfd in the same set: it stays readable
// until wait drains it.
type epollPoller struct {
	epfd   int
	wakefd int

	mu     sync.RWMutex // guards closed against concurrent wake
	closed bool

	// only touched by the multiplexing goroutine
	regs   map[int32]*registration
	next   int32
	events [maxEpollEvents]unix.EpollEvent
}

var _ poller = (*epollPoller)(nil)

func newPlatformPoller() (poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, os.NewSyscallError("epoll_create1", err)
	}

	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, os.NewSyscallError("eventfd", err)
	}

	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: wakeToken}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		_ = unix.Close(wakefd)
		_ = unix.Close(epfd)

		return nil, os.NewSyscallError("epoll_ctl", err)
	}

	return &epollPoller{
		epfd:   epfd,
		wakefd: wakefd,
		regs:   make(map[int32]*registration),
	}, nil
}

func (p *epollPoller) attach(reg *registration) error {
	sc, ok := reg.stream.(syscall.Conn)
	if !ok {
		return errNotPollable
	}

	rc, err := sc.SyscallConn()
	if err != nil {
		return errors.Join(errNotPollable, err)
	}

	token := p.nextToken()

	var ctlErr error

	err = rc.Control(func(fd uintptr) {
		ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: token}
		ctlErr = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, int(fd), &ev)
	})
	if err != nil {
		// the caller closed the stream before we got to it
		return err //nolint:wrapcheck
	}

	if ctlErr != nil {
		// EPERM for regular files and the like
		return errors.Join(errNotPollable, os.NewSyscallError("epoll_ctl", ctlErr))
	}

	reg.src = &fdSource{
		rc:     rc,
		token:  token,
		poller: p,
	}
	p.regs[token] = reg

	return nil
}

func (p *epollPoller) nextToken() int32 {
	for {
		p.next++
		if p.next <= wakeToken {
			p.next = wakeToken + 1
		}

		if _, used := p.regs[p.next]; !used {
			return p.next
		}
	}
}

func (p *epollPoller) detach(s *fdSource) {
	delete(p.regs, s.token)

	// a stream the caller already closed has left the epoll set with its descriptor
	_ = s.rc.Control(func(fd uintptr) {
		_ = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, int(fd), nil)
	})
}

func (p *epollPoller) wait(block bool) ([]*registration, error) {
	timeout := 0

	switch {
	case block && len(p.regs) > 0:
		timeout = int(closedCheckInterval.Milliseconds())
	case block:
		timeout = -1
	}

	for {
		n, err := unix.EpollWait(p.epfd, p.events[:], timeout)
		if errors.Is(err, unix.EINTR) {
			if !block {
				return nil, nil
			}

			continue
		}

		if err != nil {
			return nil, os.NewSyscallError("epoll_wait", err)
		}

		ready := make([]*registration, 0, n)

		for _, ev := range p.events[:n] {
			if ev.Fd == wakeToken {
				p.clearWake()
				continue
			}

			if reg, ok := p.regs[ev.Fd]; ok {
				ready = append(ready, reg)
			}
		}

		return ready, nil
	}
}

func (p *epollPoller) clearWake() {
	var buf [eventfdSize]byte
	// a single read resets the counter; EAGAIN means it was already clear
	_, _ = unix.Read(p.wakefd, buf[:])
}

func (p *epollPoller) wake() {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return
	}

	var buf [eventfdSize]byte

	binary.NativeEndian.PutUint64(buf[:], 1)
	// EAGAIN means the counter is saturated, i.e. the wake is asserted anyway
	_, _ = unix.Write(p.wakefd, buf[:])
}

func (p *epollPoller) close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true

	return errors.Join(
		os.NewSyscallError("close", unix.Close(p.wakefd)),
		os.NewSyscallError("close", unix.Close(p.epfd)),
	)
}

// fdSource reads a stream directly from its file descriptor once epoll reports it ready.
type fdSource struct {
	rc     syscall.RawConn
	token  int32
	poller *epollPoller
}

var _ source = (*fdSource)(nil)

func (s *fdSource) poll(buf []byte) ([]byte, bool, error) {
	var (
		n       int
		readErr error
	)

	// returning true means RawConn.Read never parks in the runtime poller,
	// while still holding a reference that keeps the descriptor from being recycled
	err := s.rc.Read(func(fd uintptr) bool {
		n, readErr = unix.Read(int(fd), buf)
		return true
	})

	switch {
	case err != nil:
		return nil, true, err //nolint:wrapcheck
	case errors.Is(readErr, unix.EAGAIN), errors.Is(readErr, unix.EINTR):
		return nil, false, nil
	case readErr != nil:
		return nil, true, os.NewSyscallError("read", readErr)
	case n == 0:
		return nil, true, io.EOF
	}

	return buf[:n], true, nil
}

func (s *fdSource) alive() error {
	return s.rc.Control(func(uintptr) {}) //nolint:wrapcheck
}

func (s *fdSource) release() {
	s.poller.detach(s)
}
