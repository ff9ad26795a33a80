// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package levelrule

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/logpipe/internal/logforward"
)

var (
	// ErrInvalidRule is returned when a rule string is not of the form PATTERN=LEVEL.
	ErrInvalidRule = errors.New("rule must be of the form PATTERN=LEVEL")
	// ErrInvalidPattern is returned when a rule's pattern does not compile.
	ErrInvalidPattern = errors.New("invalid rule pattern")
)

// Rule sets the level of every line its pattern matches.
type Rule struct {
	Pattern *regexp.Regexp
	Level   slog.Level
}

// New compiles pattern and parses level into a Rule.
func New(pattern, level string) (Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, errors.Join(ErrInvalidPattern, err)
	}

	lvl, err := Parse(level)
	if err != nil {
		return Rule{}, err
	}

	return Rule{Pattern: re, Level: lvl}, nil
}

// ParseRule parses "PATTERN=LEVEL". The pattern may itself contain '=',
// so the string is split at the last one.
func ParseRule(s string) (Rule, error) {
	i := strings.LastIndexByte(s, '=')
	if i <= 0 || i == len(s)-1 {
		return Rule{}, fmt.Errorf("%w: %q", ErrInvalidRule, s)
	}

	return New(s[:i], s[i+1:])
}

// Rules are tried in order; the first match decides the level.
type Rules []Rule

// ParseRules parses every string with ParseRule and reports all failures at once.
func ParseRules(specs []string) (Rules, error) {
	var (
		rules  Rules
		result error
	)

	for _, s := range specs {
		r, err := ParseRule(s)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}

		rules = append(rules, r)
	}

	if result != nil {
		return nil, result
	}

	return rules, nil
}

// Match returns the level of the first rule matching line.
func (rs Rules) Match(line string) (slog.Level, bool) {
	for _, r := range rs {
		if r.Pattern.MatchString(line) {
			return r.Level, true
		}
	}

	return 0, false
}

// Sticky returns an override that switches the stream to a rule's level on a
// match and leaves it there for the lines that follow.
// It returns nil when there are no rules.
func (rs Rules) Sticky() logforward.OverrideFunc {
	if len(rs) == 0 {
		return nil
	}

	return func(line string, current slog.Level) slog.Level {
		if level, ok := rs.Match(line); ok {
			return level
		}

		return current
	}
}

// PerLine returns an override that only changes the level of matching lines.
// Every other line is logged at base.
// It returns nil when there are no rules.
func (rs Rules) PerLine(base slog.Level) logforward.OverrideFunc {
	if len(rs) == 0 {
		return nil
	}

	return func(line string, _ slog.Level) slog.Level {
		if level, ok := rs.Match(line); ok {
			return level
		}

		return base
	}
}

// Override returns Sticky when escalate is set and PerLine(base) otherwise.
func (rs Rules) Override(base slog.Level, escalate bool) logforward.OverrideFunc {
	if escalate {
		return rs.Sticky()
	}

	return rs.PerLine(base)
}
