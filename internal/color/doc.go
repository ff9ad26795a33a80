// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color wraps strings in ANSI escape codes for logpipe's console output.
// NO_COLOR and FORCE_COLOR are honoured; otherwise colour is on when stderr is a
// terminal, as detected by golang.org/x/term.
package color
