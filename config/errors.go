// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package config

import (
	"errors"
	"fmt"
	"strings"
)

// Feature group names, as reported by FeatureError.
const (
	GroupShape   = "shape"
	GroupSizing  = "sizing"
	GroupShading = "shading"
)

var (
	ErrMissingOption      = errors.New("no option selected")
	ErrConflictingOptions = errors.New("mutually exclusive options selected")
	ErrUnknownFeature     = errors.New("unknown feature")
)

// FeatureError describes a misconfigured feature group.
type FeatureError struct {
	// Group is empty for ErrUnknownFeature.
	Group   string
	Options []string
	Err     error
}

func (e *FeatureError) Error() string {
	var sb strings.Builder
	if e.Group != "" {
		sb.WriteString(e.Group)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Err.Error())
	if len(e.Options) > 0 {
		fmt.Fprintf(&sb, " (%s)", strings.Join(e.Options, ", "))
	}
	return sb.String()
}

func (e *FeatureError) Unwrap() error { return e.Err }
