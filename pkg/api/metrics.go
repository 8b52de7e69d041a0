package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// clusteringRequests counts /clustering calls by outcome
	clusteringRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "satgirg_clustering_requests_total",
		Help: "Clustering computations by result",
	}, []string{"result"})

	// clusteringEdges tracks the size of submitted graphs
	clusteringEdges = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "satgirg_clustering_edges",
		Help:    "Number of edges per clustering request",
		Buckets: prometheus.ExponentialBuckets(10, 4, 10),
	})

	// runsTotal counts generation runs by status
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "satgirg_runs_total",
		Help: "Generation runs by status",
	}, []string{"status"})

	// runDuration tracks generation plus measurement time
	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "satgirg_run_duration_seconds",
		Help:    "Run duration in seconds by dimension",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~30s
	}, []string{"d"})

	// runsInFlight is the number of runs currently holding a worker slot
	runsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "satgirg_runs_in_flight",
		Help: "Runs currently executing",
	})
)
