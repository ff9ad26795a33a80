// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/TylerBrock/colorjson"
	"github.com/matt-FFFFFF/logpipe/internal/color"
)

const jsonIndent = 2

// OutputOptions controls what the results summary includes.
type OutputOptions struct {
	ShowSuccess  bool // Whether to list commands that succeeded
	ShowDuration bool // Whether to show how long each command took
}

// DefaultOutputOptions returns a default set of output options.
func DefaultOutputOptions() *OutputOptions {
	return &OutputOptions{
		ShowSuccess:  true,
		ShowDuration: true,
	}
}

// WriteText writes results to w as an indented tree.
func (r Results) WriteText(w io.Writer, options *OutputOptions) error {
	if options == nil {
		options = DefaultOutputOptions()
	}

	for _, res := range r {
		if err := writeResultWithIndent(w, res, "", options); err != nil {
			return err
		}
	}

	return nil
}

func writeResultWithIndent(w io.Writer, r *Result, indent string, options *OutputOptions) error {
	if r.Status == ResultStatusSuccess && !options.ShowSuccess && len(r.Children) == 0 {
		return nil
	}

	var statusStr string

	labelCodes := []color.Code{color.Bold}

	switch r.Status {
	case ResultStatusSkipped:
		statusStr = color.Colorize("~", color.FgYellow)
		labelCodes = append(labelCodes, color.FgYellow)
	case ResultStatusError:
		statusStr = color.Colorize("✗", color.FgRed)
		labelCodes = append(labelCodes, color.FgRed)
	case ResultStatusSuccess:
		statusStr = color.Colorize("✓", color.FgGreen)
		labelCodes = append(labelCodes, color.FgGreen)
	default:
		statusStr = color.Colorize("?", color.FgWhite)
	}

	label := r.Label
	if label == "" {
		label = "[unnamed]"
	}

	line := indent + statusStr + " " + color.Colorize(label, labelCodes...)

	if r.ExitCode != 0 && len(r.Children) == 0 {
		line += fmt.Sprintf(" (exit code: %d)", r.ExitCode)
	}

	if options.ShowDuration && r.Duration > 0 {
		line += " " + color.Colorize("["+r.Duration.Round(time.Millisecond).String()+"]", color.Faint)
	}

	if _, err := fmt.Fprintln(w, line); err != nil {
		return err //nolint:wrapcheck
	}

	// ErrResultChildrenHasError is redundant with the children's own errors
	if r.Error != nil && !errors.Is(r.Error, ErrResultChildrenHasError) {
		errColor := color.FgRed
		if r.Status == ResultStatusSkipped {
			errColor = color.FgYellow
		}

		if _, err := fmt.Fprintf(w, "%s  %s %s\n", indent, color.Colorize("➜ Error:", errColor), r.Error); err != nil {
			return err //nolint:wrapcheck
		}
	}

	for _, child := range r.Children {
		if err := writeResultWithIndent(w, child, indent+"  ", options); err != nil {
			return err
		}
	}

	return nil
}

// WriteJSON writes results to w as a JSON array. With colour on the output is
// highlighted for a terminal, otherwise it is plain indented JSON.
func (r Results) WriteJSON(w io.Writer, colour bool) error {
	tree := r.toJSONTree()

	var (
		out []byte
		err error
	)

	if colour {
		f := colorjson.NewFormatter()
		f.Indent = jsonIndent
		out, err = f.Marshal(tree)
	} else {
		out, err = json.MarshalIndent(tree, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshaling results: %w", err)
	}

	out = append(out, '\n')

	if _, err := w.Write(out); err != nil {
		return err //nolint:wrapcheck
	}

	return nil
}

// toJSONTree converts results to the generic types colorjson renders.
func (r Results) toJSONTree() []any {
	tree := make([]any, 0, len(r))

	for _, res := range r {
		node := map[string]any{
			"label":      res.Label,
			"status":     res.Status.String(),
			"exitCode":   json.Number(strconv.Itoa(res.ExitCode)),
			"durationMs": json.Number(strconv.FormatInt(res.Duration.Milliseconds(), 10)),
		}

		if res.Error != nil {
			node["error"] = res.Error.Error()
		}

		if len(res.Children) > 0 {
			node["children"] = res.Children.toJSONTree()
		}

		tree = append(tree, node)
	}

	return tree
}
