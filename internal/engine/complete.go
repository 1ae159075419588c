package engine

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/pathway/internal/experiment"
	"github.com/roach88/pathway/internal/ledger"
	"github.com/roach88/pathway/internal/observability"
	"github.com/roach88/pathway/internal/progress"
	"github.com/roach88/pathway/internal/unlock"
)

// CompleteRequest asks to mark one item completed.
type CompleteRequest struct {
	UserID     string
	SequenceID string
	ItemNumber int

	// IdempotencyKey is optional. When empty the canonical key
	// ledger.Key(SequenceID, ItemNumber, today) is used.
	IdempotencyKey string

	// TimeZone is an IANA zone name. Empty means the service default.
	TimeZone string
}

// CompleteResult is the outcome of a successful completion command.
type CompleteResult struct {
	Record progress.CompletionRecord `json:"record"`

	// Replayed is true when the record already existed and was returned
	// unchanged.
	Replayed bool `json:"replayed"`
}

// RecordCompletion marks an item completed for a user. Repeating a
// completion, with the same key or any other, returns the original record
// and reports Replayed.
func (s *Service) RecordCompletion(ctx context.Context, req CompleteRequest) (res CompleteResult, err error) {
	ctx, span := s.tracer.Start(ctx, "engine.RecordCompletion", trace.WithAttributes(
		attribute.String("sequence.id", req.SequenceID),
		attribute.Int("item.number", req.ItemNumber),
	))
	defer func() {
		outcome := outcomeOf(res, err)
		span.SetAttributes(attribute.String("outcome", outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.metrics.ObserveCompletion(outcome)
		s.logCompletion(req, res, err, outcome)
	}()

	return s.recordCompletion(ctx, req)
}

func (s *Service) recordCompletion(ctx context.Context, req CompleteRequest) (CompleteResult, error) {
	if err := requireUser(req.UserID); err != nil {
		return CompleteResult{}, err
	}
	loc, err := s.location(req.TimeZone)
	if err != nil {
		return CompleteResult{}, err
	}
	def, err := s.sequence(req.SequenceID, req.ItemNumber)
	if err != nil {
		return CompleteResult{}, err
	}

	triple := progress.Triple{UserID: req.UserID, SequenceID: req.SequenceID, ItemNumber: req.ItemNumber}
	today := s.clock.Today(loc)
	canonical := ledger.Key(req.SequenceID, req.ItemNumber, today)
	requestKey := req.IdempotencyKey
	if requestKey == "" {
		requestKey = canonical
	}

	// A retried request may arrive on a later date than the original, so the
	// key lookup is followed by a triple lookup.
	if existing, ok, err := s.ledger.GetByKey(ctx, req.UserID, requestKey); err != nil {
		return CompleteResult{}, fmt.Errorf("lookup idempotency key: %w", err)
	} else if ok {
		if existing.Triple() != triple {
			return CompleteResult{}, keyConflict(requestKey, existing)
		}
		return CompleteResult{Record: existing, Replayed: true}, nil
	}
	if existing, ok, err := s.ledger.Get(ctx, triple); err != nil {
		return CompleteResult{}, fmt.Errorf("lookup completion: %w", err)
	} else if ok {
		return CompleteResult{Record: existing, Replayed: true}, nil
	}

	if err := experiment.CheckDate(def, req.ItemNumber, today); err != nil {
		return CompleteResult{}, err
	}

	records, err := s.ledger.List(ctx, req.UserID, req.SequenceID)
	if err != nil {
		return CompleteResult{}, fmt.Errorf("list completions: %w", err)
	}
	state := unlock.Resolve(req.SequenceID, ledger.ItemNumbers(records), def.TotalItems)
	if err := unlock.Check(state, req.ItemNumber); err != nil {
		return CompleteResult{}, err
	}

	rec := progress.CompletionRecord{
		ID:             s.ids.NewID(),
		UserID:         req.UserID,
		SequenceID:     req.SequenceID,
		ItemNumber:     req.ItemNumber,
		CompletedOn:    today,
		CompletedAt:    s.clock.Now().UTC(),
		IdempotencyKey: canonical,
	}
	if requestKey != canonical {
		rec.RequestKey = requestKey
	}

	stored, inserted, err := s.ledger.Append(ctx, rec)
	if errors.Is(err, ledger.ErrKeyConflict) {
		return CompleteResult{}, progress.NewInvalidArgumentError("idempotency key %q is already used for a different item", requestKey)
	}
	if err != nil {
		return CompleteResult{}, fmt.Errorf("append completion: %w", err)
	}
	return CompleteResult{Record: stored, Replayed: !inserted}, nil
}

func keyConflict(key string, existing progress.CompletionRecord) error {
	err := progress.NewInvalidArgumentError("idempotency key %q is already used for a different item", key)
	err.Details = map[string]string{
		"bound_sequence_id": existing.SequenceID,
		"bound_item_number": fmt.Sprint(existing.ItemNumber),
	}
	return err
}

func outcomeOf(res CompleteResult, err error) string {
	if err == nil {
		if res.Replayed {
			return observability.OutcomeReplayed
		}
		return observability.OutcomeRecorded
	}
	switch progress.CodeOf(err) {
	case progress.ErrCodeItemLocked:
		return observability.OutcomeItemLocked
	case progress.ErrCodeOutOfRange, progress.ErrCodeUnknownSequence:
		return observability.OutcomeOutOfRange
	case progress.ErrCodeTooEarly:
		return observability.OutcomeTooEarly
	default:
		return observability.OutcomeError
	}
}

func (s *Service) logCompletion(req CompleteRequest, res CompleteResult, err error, outcome string) {
	kv := []interface{}{
		"user_id", req.UserID,
		"sequence_id", req.SequenceID,
		"item_number", req.ItemNumber,
		"outcome", outcome,
	}
	switch outcome {
	case observability.OutcomeRecorded:
		s.log.Info("completion recorded", append(kv, "completed_on", res.Record.CompletedOn.String())...)
	case observability.OutcomeReplayed:
		s.log.Debug("completion replayed", append(kv, "record_id", res.Record.ID)...)
	case observability.OutcomeOutOfRange:
		s.log.Warn("completion out of range", append(kv, "error", err.Error())...)
	case observability.OutcomeItemLocked, observability.OutcomeTooEarly:
		s.log.Info("completion rejected", append(kv, "error", err.Error())...)
	default:
		if progress.CodeOf(err) == progress.ErrCodeInvalidArgument {
			s.log.Info("completion rejected", append(kv, "error", err.Error())...)
			return
		}
		s.log.Error("completion failed", append(kv, "error", err.Error())...)
	}
}
