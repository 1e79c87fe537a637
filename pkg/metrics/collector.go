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

package metrics

import (
	"fmt"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MemoryAllocBytes is the heap in use when the snapshot was taken.
	MemoryAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "memory_alloc_bytes",
			Help:      "Current bytes of allocated heap objects",
		},
	)

	// GCPauseTotalSeconds is the cumulative stop-the-world GC pause time.
	GCPauseTotalSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "gc_pause_total_seconds",
			Help:      "Cumulative time spent in GC stop-the-world pauses",
		},
	)

	// RunSeconds is the time since the process loaded this package.
	RunSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "run_seconds",
			Help:      "Seconds the testament process has been running",
		},
	)

	started = time.Now()
)

// CollectOnce updates the resource gauges from the Go runtime.
func CollectOnce() {
	if !IsEnabled() {
		return
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	MemoryAllocBytes.Set(float64(memStats.Alloc))
	GCPauseTotalSeconds.Set(float64(memStats.PauseTotalNs) / 1e9)
	RunSeconds.Set(time.Since(started).Seconds())
}

// WriteTextfile takes a resource snapshot and writes every registered
// metric to path in the Prometheus text format, for the node_exporter
// textfile collector. The file is replaced atomically.
func WriteTextfile(path string) error {
	return WriteTextfileFrom(prometheus.DefaultGatherer, path)
}

// WriteTextfileFrom is WriteTextfile for an arbitrary gatherer.
func WriteTextfileFrom(g prometheus.Gatherer, path string) error {
	if path == "" {
		return fmt.Errorf("metrics: textfile path is empty")
	}
	CollectOnce()
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("metrics: failed to write textfile %s: %w", path, err)
	}
	return nil
}
