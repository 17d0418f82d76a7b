package metrics

import (
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Session Metrics
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "emby_sessions_active",
		Help: "The current number of live Emby sessions in the pool.",
	})
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emby_sessions_created_total",
		Help: "The total number of Emby sessions constructed.",
	})
	SessionsReclaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emby_sessions_reclaimed_total",
		Help: "The total number of idle Emby sessions closed by the watchdog.",
	})

	// Request Metrics
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emby_requests_total",
		Help: "The total number of logical Emby requests, by outcome.",
	}, []string{"outcome"})
	RequestRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emby_request_retries_total",
		Help: "The total number of request attempts retried after a transient failure.",
	})

	// Auth Metrics
	AuthSuccess = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emby_auth_success_total",
		Help: "The total number of successful live logins.",
	})
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emby_auth_failures_total",
		Help: "The total number of failed authentications.",
	}, []string{"reason"})
	TokenCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emby_token_cache_hits_total",
		Help: "The total number of logins avoided by adopting a cached token.",
	})

	// Keepalive Metrics
	ProbeResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emby_keepalive_probes_total",
		Help: "The total number of keep-alive probes, by result.",
	}, []string{"result"})
)

// StartServer starts the HTTP server for Prometheus metrics.
func StartServer(port int, path string) {
	http.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	log.Printf("Starting metrics server on %s%s", addr, path)

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Fatalf("Failed to start metrics server: %v", err)
		}
	}()
}
