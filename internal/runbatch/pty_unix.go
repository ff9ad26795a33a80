// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build unix

package runbatch

import (
	"errors"
	"os"
	"syscall"

	"github.com/creack/pty"
)

const (
	ptyRows = 24
	ptyCols = 160
)

// openPTY opens a pseudo-terminal for a child that becomes its session leader
// with the terminal as its controlling tty.
func openPTY() (master, tty *os.File, sys *syscall.SysProcAttr, err error) {
	master, tty, err = pty.Open()
	if err != nil {
		return nil, nil, nil, errors.Join(ErrFailedToCreatePTY, err)
	}

	if err := pty.Setsize(master, &pty.Winsize{Rows: ptyRows, Cols: ptyCols}); err != nil {
		_ = master.Close()
		_ = tty.Close()

		return nil, nil, nil, errors.Join(ErrFailedToCreatePTY, err)
	}

	return master, tty, &syscall.SysProcAttr{Setsid: true, Setctty: true}, nil
}
