// Package httpserver exposes the client and policy HTTP+JSON API.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/and161185/policy-keeper/internal/metrics"
	"github.com/and161185/policy-keeper/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tune the router. Zero values are usable.
type Options struct {
	// CORSOrigins lists allowed browser origins; "*" allows any.
	CORSOrigins []string
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// Ready is pinged by /readyz. Nil means always ready.
	Ready Pinger
}

// Server wires services into HTTP handlers.
type Server struct {
	clients  service.ClientService
	policies service.PolicyService
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// New constructs the handler set with injected services. log and m may be nil.
func New(clients service.ClientService, policies service.PolicyService, log *zap.Logger, m *metrics.Metrics) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{clients: clients, policies: policies, log: log, metrics: m}
}

// Register mounts the resource routes on r.
func (s *Server) Register(r chi.Router) {
	r.Route("/clients", func(r chi.Router) {
		r.Get("/", s.listClients)
		r.Post("/", s.createClient)
		r.Get("/{id}", s.getClient)
		r.Put("/{id}", s.updateClient)
		r.Delete("/{id}", s.deleteClient)
	})
	r.Route("/policies", func(r chi.Router) {
		r.Get("/", s.listPolicies)
		r.Post("/", s.createPolicy)
		r.Get("/{id}", s.getPolicy)
		r.Put("/{id}/status", s.updatePolicyStatus)
		r.Delete("/{id}", s.deletePolicy)
	})
	r.Route("/customers/{id}", func(r chi.Router) {
		r.Get("/policies", s.listCustomerPolicies)
		r.Post("/policies/{policyId}/cancel", s.cancelCustomerPolicy)
		r.Put("/profile", s.updateProfile)
	})
}

// Router builds the full handler: middleware chain, probes, metrics and API routes.
func (s *Server) Router(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(Logging(s.log))
	r.Use(Instrument(s.metrics))
	r.Use(Recover(s.log))
	r.Use(CORS(opts.CORSOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if opts.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := opts.Ready.Ping(ctx); err != nil {
				s.log.Warn("readiness check failed", zap.Error(err))
				writeError(w, http.StatusServiceUnavailable, "unavailable", nil)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	s.Register(r)
	return r
}

// NewHTTPServer builds the listener with the configured timeouts.
func NewHTTPServer(addr string, h http.Handler, read, write, idle time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       read,
		WriteTimeout:      write,
		IdleTimeout:       idle,
	}
}
