// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics exposes Prometheus instrumentation for the API.

It owns a private registry rather than the global default one, so tests can
build independent instances and the /metrics endpoint only serves what this
service records.

Series:

  - HTTP: in-flight gauge, request counter and latency histogram by route pattern.
  - Security: counters for security events, login outcomes and lockouts.

Every method is safe to call on a nil [*Registry], which lets components run
without metrics in unit tests.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wafya"

// Login outcomes recorded by [Registry.LoginAttempt].
const (
	LoginSucceeded = "success"
	LoginFailed    = "failure"
	LoginLocked    = "locked"
)

// Registry holds every collector the service exports.
type Registry struct {
	registry *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	securityEvents *prometheus.CounterVec
	loginAttempts  *prometheus.CounterVec
	lockouts       prometheus.Counter
}

// New builds a registry with Go runtime and process collectors attached.
func New() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		securityEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "security_events_total",
			Help:      "Security audit events by name.",
		}, []string{"event"}),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		lockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_lockouts_total",
			Help:      "Accounts locked after too many failed logins.",
		}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.httpInFlight,
		r.httpRequestsTotal,
		r.httpRequestDuration,
		r.securityEvents,
		r.loginAttempts,
		r.lockouts,
	)

	return r
}

// # Security Counters

// SecurityEvent counts one audit event.
func (r *Registry) SecurityEvent(event string) {
	if r == nil {
		return
	}
	r.securityEvents.WithLabelValues(event).Inc()
}

// LoginAttempt counts one login by outcome.
func (r *Registry) LoginAttempt(outcome string) {
	if r == nil {
		return
	}
	r.loginAttempts.WithLabelValues(outcome).Inc()
}

// Lockout counts one account transitioning into the locked state.
func (r *Registry) Lockout() {
	if r == nil {
		return
	}
	r.lockouts.Inc()
}

// # HTTP

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Instrument records RPS, latency and in-flight requests.
//
// Requests are labelled by chi route pattern so path parameters such as
// patient IDs do not explode label cardinality.
func (r *Registry) Instrument(next http.Handler) http.Handler {
	if r == nil {
		return next
	}

	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		r.httpInFlight.Inc()
		defer r.httpInFlight.Dec()

		start := time.Now()
		recorder := &statusWriter{ResponseWriter: writer, code: http.StatusOK}
		next.ServeHTTP(recorder, request)

		route := "unmatched"
		if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := strconv.Itoa(recorder.code)
		r.httpRequestDuration.WithLabelValues(request.Method, route, status).Observe(time.Since(start).Seconds())
		r.httpRequestsTotal.WithLabelValues(request.Method, route, status).Inc()
	})
}

// statusWriter captures the response code.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
