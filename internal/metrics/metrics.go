// Package metrics exposes the client's Prometheus collectors:
//
//   - robosync_order_fetch_total{result}        fetch outcomes (ok|bad_request|transport)
//   - robosync_order_poll_interval_seconds      delay armed after the last fetch
//   - robosync_order_backoff_seconds            current transport backoff, 0 when healthy
//   - robosync_stale_responses_total{subscription}  responses dropped for being superseded
//   - robosync_robot_bootstrap_total{mode,result}   identity requests
//   - robosync_order_renewals_total{result}     renewal submissions
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OrderFetches   *prometheus.CounterVec
	PollInterval   prometheus.Gauge
	Backoff        prometheus.Gauge
	StaleResponses *prometheus.CounterVec
	Bootstraps     *prometheus.CounterVec
	Renewals       *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrderFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "robosync_order_fetch_total",
				Help: "Order fetches by result",
			},
			[]string{"result"},
		),
		PollInterval: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "robosync_order_poll_interval_seconds",
				Help: "Delay armed before the next order fetch",
			},
		),
		Backoff: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "robosync_order_backoff_seconds",
				Help: "Current transport failure backoff",
			},
		),
		StaleResponses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "robosync_stale_responses_total",
				Help: "Responses discarded because a newer request superseded them",
			},
			[]string{"subscription"},
		),
		Bootstraps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "robosync_robot_bootstrap_total",
				Help: "Robot identity requests by mode and result",
			},
			[]string{"mode", "result"},
		),
		Renewals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "robosync_order_renewals_total",
				Help: "Order renewals by result",
			},
			[]string{"result"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.OrderFetches, m.PollInterval, m.Backoff, m.StaleResponses, m.Bootstraps, m.Renewals)
	}
	return m
}

// Serve exposes the default gatherer at /metrics on addr.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		_ = srv.ListenAndServe()
	}()
	return srv
}
