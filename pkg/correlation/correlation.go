// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-testament.
//
// go-testament is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package correlation tags one invocation of the CLI with a run ID so that
// every log line it emits can be tied back together.
package correlation

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// RunIDKey is the context key for storing run IDs
	RunIDKey contextKey = "run-id"

	// LogKey is the attribute name run IDs are logged under
	LogKey = "run_id"
)

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, RunIDKey, id)
}

// RunID retrieves the run ID from context.
// Returns an empty string if no run ID is found.
func RunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(RunIDKey).(string); ok {
		return id
	}
	return ""
}

// NewID generates a new UUID v4 run ID.
func NewID() string {
	return uuid.New().String()
}

// Ensure returns ctx and its run ID, first attaching a new one if ctx
// has none.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := RunID(ctx); id != "" {
		return ctx, id
	}
	id := NewID()
	return WithRunID(ctx, id), id
}
