// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !unix

package runbatch

import (
	"errors"
	"os"
	"syscall"
)

// ErrPTYUnsupported is returned when a command asks for a pseudo-terminal on a platform without them.
var ErrPTYUnsupported = errors.New("pseudo-terminals are not supported on this platform")

func openPTY() (*os.File, *os.File, *syscall.SysProcAttr, error) {
	return nil, nil, nil, errors.Join(ErrFailedToCreatePTY, ErrPTYUnsupported)
}
