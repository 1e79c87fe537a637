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

package cli

import (
	"time"

	"github.com/jeremyhahn/go-testament/pkg/metrics"
)

// errorType labels an error for the errors_total metric.
func errorType(err error) string {
	switch ExitCode(err) {
	case ExitUsage:
		return "usage"
	case ExitIO:
		return "io"
	case ExitReconstruction:
		return "reconstruction"
	case ExitInvalidInput:
		return "invalid_input"
	default:
		return "internal"
	}
}

// observe runs fn and records its duration and outcome under operation.
func (c *Config) observe(operation string, fn func() error) error {
	c.started = true
	start := time.Now()
	err := fn()
	metrics.RecordOperation(operation, metrics.StatusFor(err), time.Since(start).Seconds())
	if err != nil {
		metrics.RecordError(operation, errorType(err))
		c.Logger().Debug("operation failed", "operation", operation, "error", err)
	}
	return err
}
