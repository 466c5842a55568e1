// SPDX-License-Identifier: MIT
// Copyright (c) 2026 NomadWithoutAHome
// Source: github.com/NomadWithoutAHome/F.E.A.R-Tools

package dspack

import (
	"fmt"

	"github.com/woozymasta/pathrules"
)

// selectMatcher wraps compiled include/exclude extraction selection rules.
type selectMatcher struct {
	matcher *pathrules.Matcher
}

// newSelectMatcher compiles selection rules into a matcher with sane defaults.
// No rules means every entry is selected.
func newSelectMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*selectMatcher, error) {
	if len(rules) == 0 {
		return &selectMatcher{}, nil
	}

	if opts == (pathrules.MatcherOptions{}) {
		opts = pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionExclude,
		}
	}
	if opts.DefaultAction == pathrules.ActionUnknown {
		opts.DefaultAction = pathrules.ActionExclude
	}

	m, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidSelectPattern, err)
	}

	return &selectMatcher{matcher: m}, nil
}

// selected reports whether one archive path passes the selection rules.
func (s *selectMatcher) selected(path string, isDir bool) bool {
	if s == nil || s.matcher == nil {
		return true
	}

	return s.matcher.Included(path, isDir)
}
