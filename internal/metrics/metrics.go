package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const namespace = "rewarder"

// Metrics holds every collector of the process on a dedicated registry.
// All methods are safe to call on a nil *Metrics, which records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	itemsEvaluated     *prometheus.CounterVec
	passDuration       *prometheus.HistogramVec
	socialRequests     *prometheus.CounterVec
	rateLimitWaits     *prometheus.CounterVec
	llmRequests        *prometheus.CounterVec
	payoutRuns         *prometheus.CounterVec
	pointsDistributed  prometheus.Counter
	breakerState       *prometheus.GaugeVec
	breakerTransitions *prometheus.CounterVec
}

// New creates the collectors and registers them, along with Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		itemsEvaluated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_evaluated_total",
			Help:      "Content items processed by evaluation passes, by outcome",
		}, []string{"outcome"}),
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of scheduled passes",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}, []string{"job", "outcome"}),
		socialRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "social_requests_total",
			Help:      "Requests made to the social data API",
		}, []string{"endpoint", "outcome"}),
		rateLimitWaits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_waits_total",
			Help:      "Times a caller had to wait for rate limit capacity",
		}, []string{"key"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "LLM scoring requests, by kind and outcome",
		}, []string{"kind", "outcome"}),
		payoutRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payout_runs_total",
			Help:      "Reward distribution runs, by outcome",
		}, []string{"outcome"}),
		pointsDistributed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_distributed_total",
			Help:      "Reward points credited to participants, including referral bonuses",
		}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Current state of circuit breaker (0=closed, 1=half-open, 2=open)",
		}, []string{"name"}),
		breakerTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state_transitions_total",
			Help:      "Total number of circuit breaker state transitions",
		}, []string{"name", "from", "to"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.itemsEvaluated,
		m.passDuration,
		m.socialRequests,
		m.rateLimitWaits,
		m.llmRequests,
		m.payoutRuns,
		m.pointsDistributed,
		m.breakerState,
		m.breakerTransitions,
	)

	return m
}

// ItemEvaluated counts one processed content item.
func (m *Metrics) ItemEvaluated(outcome string) {
	if m == nil {
		return
	}
	m.itemsEvaluated.WithLabelValues(outcome).Inc()
}

// PassFinished records the duration of a scheduled pass.
func (m *Metrics) PassFinished(job string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.passDuration.WithLabelValues(job, outcomeOf(err)).Observe(duration.Seconds())
}

// SocialRequest counts one social API request.
func (m *Metrics) SocialRequest(endpoint string, err error) {
	if m == nil {
		return
	}
	m.socialRequests.WithLabelValues(endpoint, outcomeOf(err)).Inc()
}

// RateLimitWait counts one wait for rate limit capacity.
func (m *Metrics) RateLimitWait(key string) {
	if m == nil {
		return
	}
	m.rateLimitWaits.WithLabelValues(key).Inc()
}

// LLMRequest counts one LLM request.
func (m *Metrics) LLMRequest(kind string, outcome string) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(kind, outcome).Inc()
}

// PayoutRun counts one distribution run and the points it credited.
func (m *Metrics) PayoutRun(err error, points float64) {
	if m == nil {
		return
	}
	m.payoutRuns.WithLabelValues(outcomeOf(err)).Inc()
	if err == nil && points > 0 {
		m.pointsDistributed.Add(points)
	}
}

// BreakerStateChanged records a circuit breaker transition.
// It has the shape of gobreaker's OnStateChange callback.
func (m *Metrics) BreakerStateChanged(name string, from gobreaker.State, to gobreaker.State) {
	if m == nil {
		return
	}
	m.breakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
	m.breakerState.WithLabelValues(name).Set(float64(to))
}

// Handler returns the HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Server serves the metrics endpoint.
type Server struct {
	srv      *http.Server
	listener net.Listener
	logger   *zap.Logger
}

// Serve starts the metrics endpoint on addr in the background.
func (m *Metrics) Serve(addr string, logger *zap.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	s := &Server{
		srv:      &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		listener: listener,
		logger:   logger.Named("metrics"),
	}

	go func() {
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server stopped", zap.Error(err))
		}
	}()

	s.logger.Info("Metrics endpoint listening", zap.String("address", listener.Addr().String()))

	return s, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
