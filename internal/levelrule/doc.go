// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package levelrule turns level names and "pattern=level" rules into
// logforward.OverrideFunc values.
//
// A rule escalates (or demotes) a forwarded line when its regular expression
// matches the line. Rules are tried in order and the first match wins.
package levelrule
