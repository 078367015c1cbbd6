package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"esusu/native/savings"
	"esusu/observability"
	"esusu/services/savings/chain"
	"esusu/services/savings/snapshot"
)

const requestBodyLimit = 1 << 20 // 1 MiB

// SnapshotProvider exposes the snapshot currently served by the API.
type SnapshotProvider interface {
	Current() (*snapshot.Snapshot, bool)
}

// Config wires the collaborators of the savings API.
type Config struct {
	Snapshots SnapshotProvider
	Estimator *savings.Estimator
	Contracts chain.Contracts
	Logger    *slog.Logger
	// Metrics and SnapshotMetrics may be nil to disable instrumentation.
	Metrics         *observability.APIMetrics
	SnapshotMetrics *observability.SnapshotMetrics
	// Gatherer backs /metrics; defaults to the prometheus default registry.
	Gatherer    prometheus.Gatherer
	RateLimit   RateLimit
	ServiceName string
	Clock       func() time.Time
}

// Server serves the read and call-building endpoints of the savings API.
type Server struct {
	snapshots SnapshotProvider
	estimator *savings.Estimator
	contracts chain.Contracts
	logger    *slog.Logger
	metrics   *observability.APIMetrics
	matches   *observability.SnapshotMetrics
	gatherer  prometheus.Gatherer
	limiter   *rateLimiter
	service   string
	now       func() time.Time
}

// New validates cfg and returns a Server.
func New(cfg Config) (*Server, error) {
	if cfg.Snapshots == nil {
		return nil, errMissing("snapshot provider")
	}
	estimator := cfg.Estimator
	if estimator == nil {
		var err error
		estimator, err = savings.NewEstimator(savings.DefaultAnnualRate)
		if err != nil {
			return nil, err
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	limiter, err := newRateLimiter(cfg.RateLimit, clock)
	if err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	service := cfg.ServiceName
	if service == "" {
		service = "savingsd"
	}
	return &Server{
		snapshots: cfg.Snapshots,
		estimator: estimator,
		contracts: cfg.Contracts,
		logger:    logger,
		metrics:   cfg.Metrics,
		matches:   cfg.SnapshotMetrics,
		gatherer:  gatherer,
		limiter:   limiter,
		service:   service,
		now:       clock,
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.observe)
	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Route("/v1", func(r chi.Router) {
		r.Use(s.limit)
		s.mount(r)
	})
	return r
}

func (s *Server) mount(r chi.Router) {
	r.Get("/campaigns", s.listCampaigns)
	r.Get("/campaigns/{id}", s.getCampaign)
	r.Get("/locks", s.listLocks)
	r.Get("/rewards/estimate", s.estimateReward)
	r.Get("/summary", s.summary)
	r.Post("/calls/create-campaign", s.createCampaignCall)
	r.Post("/calls/contribute", s.contributeCall)
	r.Post("/calls/lock-funds", s.lockFundsCall)
	r.Post("/calls/pay", s.payCall)
}
