package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/roach88/pathway/internal/engine"
	"github.com/roach88/pathway/internal/logger"
	"github.com/roach88/pathway/internal/observability"
	"github.com/roach88/pathway/internal/reveal"
	"github.com/roach88/pathway/internal/unlock"
)

// Header names read by the adapter.
const (
	HeaderUserID         = "X-User-ID"
	HeaderTimeZone       = "X-Timezone"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// Options configures a Server. Zero values select the defaults.
type Options struct {
	AllowedOrigins []string
	RevealPolicy   reveal.Policy
	WordsPerSecond float64

	// RateLimit and Burst bound completion commands per user.
	RateLimit rate.Limit
	Burst     int

	Logger  *logger.Logger
	Metrics *observability.Metrics
}

// Server routes HTTP requests to an engine.Service.
type Server struct {
	svc     *engine.Service
	guard   *unlock.Guard
	opts    Options
	log     *logger.Logger
	metrics *observability.Metrics
	limiter *UserLimiter
}

// NewServer creates a Server.
func NewServer(svc *engine.Service, opts Options) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.RevealPolicy == "" {
		opts.RevealPolicy = reveal.Manual
	}
	if opts.WordsPerSecond <= 0 {
		opts.WordsPerSecond = reveal.DefaultWordsPerSecond
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 30
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetrics()
	}
	return &Server{
		svc:     svc,
		guard:   unlock.NewGuard(svc),
		opts:    opts,
		log:     opts.Logger,
		metrics: opts.Metrics,
		limiter: NewUserLimiter(opts.RateLimit, opts.Burst),
	}
}

// Limiter exposes the per-user limiter so the caller can run its cleanup loop.
func (s *Server) Limiter() *UserLimiter { return s.limiter }

// Handler builds the routed handler with CORS and panic recovery.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.monitor)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(requireUser)

	v1.Handle("/sequences/{sequence}/items/{item:[0-9]+}/completion",
		s.rateLimited(http.HandlerFunc(s.handleComplete))).Methods(http.MethodPost)
	v1.Handle("/sequences/{sequence}/items/{item:[0-9]+}",
		s.guarded(http.HandlerFunc(s.handleItem))).Methods(http.MethodGet)
	v1.HandleFunc("/sequences/{sequence}/unlock", s.handleUnlock).Methods(http.MethodGet)
	v1.HandleFunc("/sequences/{sequence}/experiment", s.handleExperiment).Methods(http.MethodGet)
	v1.HandleFunc("/streak", s.handleStreak).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins(s.opts.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", HeaderUserID, HeaderTimeZone, HeaderIdempotencyKey}),
		handlers.ExposedHeaders([]string{"Content-Length"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.log}),
		handlers.PrintRecoveryStack(false),
	)
	return cors(recovery(r))
}

type recoveryLogger struct{ log *logger.Logger }

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Error("http handler panic", "panic", fmt.Sprint(v...))
}
