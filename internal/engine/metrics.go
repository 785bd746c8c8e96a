package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusOK         = "ok"
	statusParseError = "parse_error"
	statusError      = "error"
)

var (
	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlgraph_analyses_total",
		Help: "Total number of lineage analyses by outcome",
	}, []string{"status"})

	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sqlgraph_analysis_duration_seconds",
		Help:    "Time taken to parse, build and lay out one statement",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	graphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sqlgraph_graph_nodes",
		Help: "Node count of the most recent lineage graph",
	})

	graphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sqlgraph_graph_edges",
		Help: "Edge count of the most recent lineage graph",
	})
)
