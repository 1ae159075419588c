package engine

import (
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/pathway/internal/calendar"
	"github.com/roach88/pathway/internal/catalog"
	"github.com/roach88/pathway/internal/ledger"
	"github.com/roach88/pathway/internal/logger"
	"github.com/roach88/pathway/internal/observability"
	"github.com/roach88/pathway/internal/progress"
)

// Service answers progress commands and queries.
//
// Thread-safety: Service holds no mutable state of its own and is safe for
// concurrent use; the ledger provides write atomicity.
type Service struct {
	ledger  ledger.Ledger
	catalog catalog.Catalog
	clock   calendar.Clock
	ids     ledger.IDGenerator
	log     *logger.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
	loc     *time.Location
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the system clock.
func WithClock(c calendar.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithIDGenerator replaces the UUIDv7 record id generator.
func WithIDGenerator(g ledger.IDGenerator) Option {
	return func(s *Service) { s.ids = g }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithMetrics enables completion outcome counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracerProvider sets where spans go. The default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer(observability.TracerName) }
}

// WithDefaultLocation sets the zone used when a request names none.
// The default is UTC.
func WithDefaultLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// New creates a Service over a ledger and a catalog.
func New(l ledger.Ledger, c catalog.Catalog, opts ...Option) *Service {
	s := &Service{
		ledger:  l,
		catalog: c,
		clock:   calendar.SystemClock{},
		ids:     ledger.UUIDv7Generator{},
		log:     logger.Nop(),
		tracer:  otel.Tracer(observability.TracerName),
		loc:     time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the catalog the service reads definitions from.
func (s *Service) Catalog() catalog.Catalog { return s.catalog }

// location resolves a request's zone name. Empty means the default zone.
func (s *Service) location(tz string) (*time.Location, error) {
	if tz == "" {
		return s.loc, nil
	}
	loc, err := calendar.LoadLocation(tz)
	if err != nil {
		return nil, progress.NewInvalidArgumentError("unknown time zone %q", tz)
	}
	return loc, nil
}

// definition looks up a sequence for sequence-level queries.
func (s *Service) definition(sequenceID string) (progress.SequenceDefinition, error) {
	def, ok := s.catalog.Sequence(sequenceID)
	if !ok {
		return def, progress.NewUnknownSequenceError(sequenceID)
	}
	return def, nil
}

// sequence looks up a sequence and checks that item lies within it.
func (s *Service) sequence(sequenceID string, item int) (progress.SequenceDefinition, error) {
	def, err := s.definition(sequenceID)
	if err != nil {
		return def, err
	}
	if err := inRange(def, item); err != nil {
		return def, err
	}
	return def, nil
}

func inRange(def progress.SequenceDefinition, item int) error {
	if item < 1 || (def.Bounded() && item > def.TotalItems) {
		return progress.NewOutOfRangeError(def.ID, item, def.TotalItems)
	}
	return nil
}

func requireUser(userID string) error {
	if userID == "" {
		return progress.NewInvalidArgumentError("user id is required")
	}
	return nil
}
