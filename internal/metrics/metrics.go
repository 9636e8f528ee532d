// Copyright 2025 Cuemby
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package metrics holds the Prometheus instrumentation for one indexing
// run. Grounded on pkg/ingestion/metrics.go's metricsIngestion (a
// sync.Once-guarded bundle of counters/histograms registered against the
// default registry), renamed from the code-intelligence domain to the
// repodata domain.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Indexing holds the counters and histograms for one process lifetime.
type Indexing struct {
	once sync.Once

	TasksDiscovered prometheus.Counter
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	ParseFailures   prometheus.Counter
	StatFailures    prometheus.Counter
	PackagesWritten prometheus.Counter

	DiscoveryDuration   prometheus.Histogram
	ParseDuration       prometheus.Histogram
	WriteDuration       prometheus.Histogram
	PublicationDuration prometheus.Histogram
	RepomdDuration      prometheus.Histogram
}

// Default is the process-wide metrics bundle, mirroring the
// package-level ingMetrics variable it is grounded on.
var Default Indexing

func (m *Indexing) init() {
	m.once.Do(func() {
		m.TasksDiscovered = prometheus.NewCounter(prometheus.CounterOpts{Name: "createrepo_tasks_discovered_total", Help: "Package files discovered by the walk"})
		m.CacheHits = prometheus.NewCounter(prometheus.CounterOpts{Name: "createrepo_cache_hits_total", Help: "Packages reused from prior metadata"})
		m.CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{Name: "createrepo_cache_misses_total", Help: "Packages freshly parsed"})
		m.ParseFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "createrepo_parse_failures_total", Help: "Packages abandoned due to a parse error"})
		m.StatFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "createrepo_stat_failures_total", Help: "Packages abandoned due to a stat error"})
		m.PackagesWritten = prometheus.NewCounter(prometheus.CounterOpts{Name: "createrepo_packages_written_total", Help: "Packages successfully rendered and written"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
		m.DiscoveryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "createrepo_discovery_seconds", Help: "Duration of the discovery walk", Buckets: buckets})
		m.ParseDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "createrepo_parse_seconds", Help: "Per-package parse duration", Buckets: buckets})
		m.WriteDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "createrepo_write_seconds", Help: "Per-package writer-set duration", Buckets: buckets})
		m.PublicationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "createrepo_publication_seconds", Help: "Duration of the staging-to-final swap", Buckets: buckets})
		m.RepomdDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "createrepo_repomd_seconds", Help: "Duration of the repomd assembly pass", Buckets: buckets})

		prometheus.MustRegister(
			m.TasksDiscovered, m.CacheHits, m.CacheMisses, m.ParseFailures, m.StatFailures, m.PackagesWritten,
			m.DiscoveryDuration, m.ParseDuration, m.WriteDuration, m.PublicationDuration, m.RepomdDuration,
		)
	})
}

// Init registers Default's metrics against the default Prometheus
// registry. Safe to call more than once; registration happens exactly
// once. Default's fields are nil until Init has run, so the CLI, the
// indexer and the pipeline each call it before using them, whether or not
// --metrics-addr exposes them.
func Init() { Default.init() }
