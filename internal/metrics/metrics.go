// Package metrics declares the Prometheus collectors shared by the indexer,
// the parse cache and the stub builder.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ParseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pxp_parse_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"dialect"})

	FilesIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pxp_files_indexed_total",
		Help: "Total number of source files parsed and visited.",
	})

	FunctionsIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pxp_functions_indexed_total",
		Help: "Total number of function entities added to an index.",
	})

	ParseDefects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pxp_parse_defects_total",
		Help: "Total number of syntax errors the parser recovered from.",
	})

	ParseCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pxp_parse_cache_hits_total",
		Help: "Parse requests served from the content-addressed cache.",
	})

	ParseCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pxp_parse_cache_misses_total",
		Help: "Parse requests that invoked the underlying parser.",
	})

	ParseCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pxp_parse_cache_evictions_total",
		Help: "Trees evicted from the parse cache to respect its bound.",
	})

	StubDeclarationsRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pxp_stub_declarations_removed_total",
		Help: "Stub declarations removed by the version filter.",
	}, []string{"version"})

	StubMarkersStripped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pxp_stub_markers_stripped_total",
		Help: "Version markers stripped from retained stub declarations.",
	}, []string{"version"})
)
