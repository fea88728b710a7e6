package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LogsFetched tracks raw log entries returned by scans per feed
	LogsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapwatch_logs_fetched_total",
			Help: "Total number of log entries fetched",
		},
		[]string{"feed"},
	)

	// DecodeFailures tracks log entries that could not be decoded
	DecodeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapwatch_decode_failures_total",
			Help: "Total number of log entries skipped by the decoder",
		},
		[]string{"feed"},
	)

	// SwapsClassified tracks swaps resolved to a direction
	SwapsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapwatch_swaps_classified_total",
			Help: "Total number of classified swaps",
		},
		[]string{"feed", "direction"},
	)

	// SwapsFiltered tracks swaps rejected before valuation
	SwapsFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapwatch_swaps_filtered_total",
			Help: "Total number of swaps rejected by dedup or thresholds",
		},
		[]string{"feed", "reason"},
	)

	// AlertsDispatched tracks alerts delivered per tier
	AlertsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapwatch_alerts_dispatched_total",
			Help: "Total number of alerts delivered",
		},
		[]string{"direction", "tier"},
	)

	// AlertsDropped tracks alerts lost after the degraded retry
	AlertsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapwatch_alerts_dropped_total",
			Help: "Total number of alerts dropped after retry",
		},
		[]string{"direction"},
	)

	// PollErrors tracks failed poll cycles
	PollErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapwatch_poll_errors_total",
			Help: "Total number of failed poll cycles",
		},
		[]string{"feed"},
	)

	// RPCLatency tracks ledger call latency
	RPCLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swapwatch_rpc_latency_seconds",
			Help:    "Ledger RPC call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// ChainLatestBlock tracks the head seen by each feed
	ChainLatestBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "swapwatch_chain_latest_block",
			Help: "Latest block height of the chain",
		},
		[]string{"feed"},
	)

	// CursorBlock tracks the last block processed by each feed
	CursorBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "swapwatch_cursor_block",
			Help: "Last block processed by the feed",
		},
		[]string{"feed"},
	)

	// OracleCache tracks quote cache lookups by result
	OracleCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapwatch_oracle_cache_total",
			Help: "Quote cache lookups by result",
		},
		[]string{"result"},
	)
)
