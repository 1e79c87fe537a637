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

// Package metrics provides Prometheus instrumentation for go-testament.
// The CLI is short-lived, so instead of serving /metrics the registry can
// be written to a node_exporter textfile when a command finishes.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all testament metrics
	Namespace = "testament"

	// Label names
	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelErrorType = "error_type"
	LabelLayer     = "layer"
	LabelResult    = "result"
	LabelRole      = "role"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Operation names
	OpEncrypt = "encrypt"
	OpDecrypt = "decrypt"
	OpInspect = "inspect"

	// Onion layers tried during reconstruction
	LayerFloating = "floating"
	LayerRequired = "required"

	// Trial results
	ResultPeeled   = "peeled"
	ResultRejected = "rejected"
)

var (
	// OperationsTotal counts CLI operations by type and status.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of testament operations by type and status",
		},
		[]string{LabelOperation, LabelStatus},
	)

	// OperationDuration tracks how long each operation took. Reconstruction
	// is a brute force over layers, so the buckets reach into minutes.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of testament operations in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300},
		},
		[]string{LabelOperation},
	)

	// ErrorsTotal counts failures by operation and error type.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of errors by operation and error type",
		},
		[]string{LabelOperation, LabelErrorType},
	)

	// TrialDecryptionsTotal counts every attempt to peel an onion layer.
	TrialDecryptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "trial_decryptions_total",
			Help:      "Total number of trial decryptions by layer and result",
		},
		[]string{LabelLayer, LabelResult},
	)

	// ParcelsTotal counts parcels written or read by role.
	ParcelsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "parcels_total",
			Help:      "Total number of parcels handled by operation and role",
		},
		[]string{LabelOperation, LabelRole},
	)

	// CoalitionSize is the number of floating custodians whose shares
	// formed the last successful reconstruction.
	CoalitionSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "coalition_size",
			Help:      "Floating custodians in the last reconstructed coalition",
		},
	)

	// enabled tracks whether metrics collection is enabled
	enabled atomic.Bool
)

func init() {
	enabled.Store(true)
}

// RecordOperation records an operation with its duration and status.
//
//	start := time.Now()
//	err := run()
//	metrics.RecordOperation(metrics.OpDecrypt, metrics.StatusFor(err), time.Since(start).Seconds())
func RecordOperation(operation, status string, duration float64) {
	if !enabled.Load() {
		return
	}
	OperationsTotal.WithLabelValues(operation, status).Inc()
	OperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordError records an error event for operation.
func RecordError(operation, errorType string) {
	if !enabled.Load() {
		return
	}
	ErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordTrial records one trial decryption against layer.
func RecordTrial(layer string, peeled bool) {
	if !enabled.Load() {
		return
	}
	result := ResultRejected
	if peeled {
		result = ResultPeeled
	}
	TrialDecryptionsTotal.WithLabelValues(layer, result).Inc()
}

// AddParcels records n parcels of role handled by operation.
func AddParcels(operation, role string, n int) {
	if !enabled.Load() || n <= 0 {
		return
	}
	ParcelsTotal.WithLabelValues(operation, role).Add(float64(n))
}

// SetCoalitionSize records the size of the coalition that reconstructed
// the last will.
func SetCoalitionSize(n int) {
	if !enabled.Load() {
		return
	}
	CoalitionSize.Set(float64(n))
}

// StatusFor maps an error to StatusSuccess or StatusError.
func StatusFor(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
// Useful for testing or when metrics are not desired.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
