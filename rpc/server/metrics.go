package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/okvlab/okv/rpc/common"
)

// --------------------------------------------------------------------------
// Request Metrics
// --------------------------------------------------------------------------

// observeRequest records one handled request under its message type.
// Counters and summaries are created lazily per type on first use.
func observeRequest(msgType common.MessageType, shardId uint64, start time.Time, failed bool) {
	name := msgType.String()

	metrics.GetOrCreateCounter(
		fmt.Sprintf(`okv_rpc_requests_total{type=%q, shard="%d"}`, name, shardId),
	).Inc()

	if failed {
		metrics.GetOrCreateCounter(
			fmt.Sprintf(`okv_rpc_request_errors_total{type=%q, shard="%d"}`, name, shardId),
		).Inc()
	}

	metrics.GetOrCreateSummary(
		fmt.Sprintf(`okv_rpc_request_duration_seconds{type=%q, shard="%d"}`, name, shardId),
	).UpdateDuration(start)
}

// --------------------------------------------------------------------------
// Metrics Exposition
// --------------------------------------------------------------------------

// serveMetrics exposes the collected metrics in Prometheus text format on
// the given endpoint. It blocks, so it is run in its own goroutine.
func serveMetrics(endpoint string) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	Logger.Infof("Starting metrics endpoint on %s", endpoint)
	if err := http.ListenAndServe(endpoint, mux); err != nil {
		Logger.Errorf("Metrics endpoint failed: %v", err)
	}
}
