// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analyzer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AleutianAI/tstype/services/tstype/ast"
)

var (
	// ErrUnsupportedConstruct matches diagnostics for syntax without a
	// resolution rule.
	ErrUnsupportedConstruct = errors.New("unsupported construct")

	// ErrCyclicType matches diagnostics for a named type that refers back to
	// itself while it is being resolved.
	ErrCyclicType = errors.New("cyclic type")

	// ErrAborted wraps the first diagnostic when PolicyAbort stops a file.
	ErrAborted = errors.New("analysis aborted")

	// ErrNoActivePath is returned by Visit before SetCurrentPath was called.
	ErrNoActivePath = errors.New("no active file path")

	// ErrInvalidPolicy is returned by ParsePolicy for unknown names.
	ErrInvalidPolicy = errors.New("invalid unsupported-construct policy")
)

// DiagnosticKind classifies a Diagnostic.
type DiagnosticKind int

const (
	// DiagnosticUnsupported marks a construct with no resolution rule.
	DiagnosticUnsupported DiagnosticKind = iota + 1

	// DiagnosticCyclic marks a cycle between named type declarations.
	DiagnosticCyclic
)

// String returns the wire name of the kind.
func (k DiagnosticKind) String() string {
	switch k {
	case DiagnosticUnsupported:
		return "unsupported_construct"
	case DiagnosticCyclic:
		return "cyclic_type"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k DiagnosticKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind written by MarshalText.
func (k *DiagnosticKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "unsupported_construct":
		*k = DiagnosticUnsupported
	case "cyclic_type":
		*k = DiagnosticCyclic
	default:
		return fmt.Errorf("unknown diagnostic kind %q", text)
	}
	return nil
}

// Diagnostic is a recoverable, per-node analysis problem.
//
// Description:
//
//	Diagnostic implements error. errors.Is matches ErrUnsupportedConstruct
//	or ErrCyclicType depending on Kind, so callers can branch on the
//	sentinel without inspecting fields.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	NodeKind string         `json:"node_kind"`
	NodeID   ast.NodeID     `json:"node_id"`
	Location ast.Location   `json:"location"`
	Message  string         `json:"message"`

	// Chain holds the declaration names of a cycle, first name repeated at
	// the end. Empty for unsupported constructs.
	Chain []string `json:"chain,omitempty"`
}

// Error implements error.
func (d *Diagnostic) Error() string {
	if len(d.Chain) > 0 {
		return fmt.Sprintf("%s: %s: %s (%s)", d.Location, d.Kind, d.Message, strings.Join(d.Chain, " -> "))
	}
	return fmt.Sprintf("%s: %s: %s", d.Location, d.Kind, d.Message)
}

// Is matches the sentinel for the diagnostic's kind.
func (d *Diagnostic) Is(target error) bool {
	switch d.Kind {
	case DiagnosticUnsupported:
		return target == ErrUnsupportedConstruct
	case DiagnosticCyclic:
		return target == ErrCyclicType
	}
	return false
}

// Policy decides what happens when a diagnostic is reported.
type Policy int

const (
	// PolicyContinue records the diagnostic and keeps analyzing.
	PolicyContinue Policy = iota

	// PolicyAbort stops the current file at the first diagnostic.
	PolicyAbort
)

// String returns the configuration name of the policy.
func (p Policy) String() string {
	if p == PolicyAbort {
		return "abort"
	}
	return "continue"
}

// ParsePolicy converts a configuration value into a Policy. The empty
// string selects PolicyContinue.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "continue":
		return PolicyContinue, nil
	case "abort":
		return PolicyAbort, nil
	}
	return PolicyContinue, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}
