// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"slices"
	"strings"
)

// LabelSeparator joins the labels of a command and its ancestors.
const LabelSeparator = " > "

// FullLabel returns the label of r prefixed by the labels of its ancestors, outermost first.
// It is the command attribute of every line forwarded from r.
func FullLabel(r Runnable) string {
	if r == nil {
		return "Unknown"
	}

	var path []string
	for n := r; n != nil; n = n.GetParent() {
		path = append(path, n.GetLabel())
	}

	slices.Reverse(path)

	return strings.Join(path, LabelSeparator)
}
