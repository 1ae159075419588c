package engine

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/pathway/internal/calendar"
	"github.com/roach88/pathway/internal/experiment"
	"github.com/roach88/pathway/internal/ledger"
	"github.com/roach88/pathway/internal/progress"
	"github.com/roach88/pathway/internal/reveal"
	"github.com/roach88/pathway/internal/streak"
	"github.com/roach88/pathway/internal/unlock"
)

// GetUnlockState returns the lock view of one sequence for a user.
func (s *Service) GetUnlockState(ctx context.Context, userID, sequenceID string) (_ progress.UnlockState, err error) {
	ctx, span := s.startQuery(ctx, "engine.GetUnlockState", sequenceID)
	defer func() { endSpan(span, err) }()

	if err := requireUser(userID); err != nil {
		return progress.UnlockState{}, err
	}
	def, err := s.definition(sequenceID)
	if err != nil {
		return progress.UnlockState{}, err
	}
	return s.resolve(ctx, userID, def)
}

func (s *Service) resolve(ctx context.Context, userID string, def progress.SequenceDefinition) (progress.UnlockState, error) {
	records, err := s.ledger.List(ctx, userID, def.ID)
	if err != nil {
		return progress.UnlockState{}, fmt.Errorf("list completions: %w", err)
	}
	return unlock.Resolve(def.ID, ledger.ItemNumbers(records), def.TotalItems), nil
}

// GetStreakSummary returns the user's streak for one streak group as seen
// on today in tz. An empty group counts every streak-eligible sequence.
// Completions in sequences the catalog no longer knows are ignored.
func (s *Service) GetStreakSummary(ctx context.Context, userID, group, tz string) (_ progress.StreakSummary, err error) {
	ctx, span := s.tracer.Start(ctx, "engine.GetStreakSummary", trace.WithAttributes(
		attribute.String("streak.group", group),
	))
	defer func() { endSpan(span, err) }()

	if err := requireUser(userID); err != nil {
		return progress.StreakSummary{}, err
	}
	loc, err := s.location(tz)
	if err != nil {
		return progress.StreakSummary{}, err
	}

	records, err := s.ledger.ListByUser(ctx, userID)
	if err != nil {
		return progress.StreakSummary{}, fmt.Errorf("list completions: %w", err)
	}
	dates := make([]calendar.Date, 0, len(records))
	for _, r := range records {
		def, ok := s.catalog.Sequence(r.SequenceID)
		if !ok || !def.StreakEligible(group) {
			continue
		}
		dates = append(dates, r.CompletedOn)
	}
	return streak.Compute(dates, s.clock.Today(loc)), nil
}

// GetExperimentStatus returns the per-day view of a windowed sequence.
func (s *Service) GetExperimentStatus(ctx context.Context, userID, sequenceID, tz string) (_ experiment.Status, err error) {
	ctx, span := s.startQuery(ctx, "engine.GetExperimentStatus", sequenceID)
	defer func() { endSpan(span, err) }()

	if err := requireUser(userID); err != nil {
		return experiment.Status{}, err
	}
	loc, err := s.location(tz)
	if err != nil {
		return experiment.Status{}, err
	}
	def, err := s.definition(sequenceID)
	if err != nil {
		return experiment.Status{}, err
	}
	state, err := s.resolve(ctx, userID, def)
	if err != nil {
		return experiment.Status{}, err
	}
	return experiment.Evaluate(def, state, s.clock.Today(loc))
}

// CheckAccess reports whether the user may open an item: nil, or an
// OUT_OF_RANGE, UNKNOWN_SEQUENCE or ITEM_LOCKED error. It implements
// unlock.Checker and reads the ledger on every call.
func (s *Service) CheckAccess(ctx context.Context, a unlock.Access) (err error) {
	ctx, span := s.startQuery(ctx, "engine.CheckAccess", a.SequenceID)
	span.SetAttributes(attribute.Int("item.number", a.ItemNumber))
	defer func() { endSpan(span, err) }()

	_, err = s.itemState(ctx, a)
	return err
}

func (s *Service) itemState(ctx context.Context, a unlock.Access) (progress.ItemState, error) {
	if err := requireUser(a.UserID); err != nil {
		return "", err
	}
	def, err := s.sequence(a.SequenceID, a.ItemNumber)
	if err != nil {
		return "", err
	}
	state, err := s.resolve(ctx, a.UserID, def)
	if err != nil {
		return "", err
	}
	if err := unlock.Check(state, a.ItemNumber); err != nil {
		return "", err
	}
	return state.State(a.ItemNumber), nil
}

// ItemView is what a client needs to render one accessible item.
type ItemView struct {
	SequenceID string             `json:"sequence_id"`
	ItemNumber int                `json:"item_number"`
	State      progress.ItemState `json:"state"`

	// AvailableOn is set for windowed sequences. Opening an item early is
	// allowed; completing it is not.
	AvailableOn *calendar.Date `json:"available_on,omitempty"`

	Reveal reveal.Plan `json:"reveal"`
}

// OpenItem checks access and returns the item's state and reveal plan.
// Content the catalog does not hold opens fully revealed.
func (s *Service) OpenItem(ctx context.Context, a unlock.Access, policy reveal.Policy, wordsPerSecond float64) (_ ItemView, err error) {
	ctx, span := s.startQuery(ctx, "engine.OpenItem", a.SequenceID)
	span.SetAttributes(attribute.Int("item.number", a.ItemNumber))
	defer func() { endSpan(span, err) }()

	state, err := s.itemState(ctx, a)
	if err != nil {
		return ItemView{}, err
	}
	def, _ := s.catalog.Sequence(a.SequenceID)
	text, _ := s.catalog.Content(a.SequenceID, a.ItemNumber)
	plan, err := reveal.NewPlan(state, policy, text, wordsPerSecond)
	if err != nil {
		return ItemView{}, err
	}

	view := ItemView{
		SequenceID: a.SequenceID,
		ItemNumber: a.ItemNumber,
		State:      state,
		Reveal:     plan,
	}
	if def.Windowed() {
		on := experiment.AvailableOn(def, a.ItemNumber)
		view.AvailableOn = &on
	}
	return view, nil
}

func (s *Service) startQuery(ctx context.Context, name, sequenceID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("sequence.id", sequenceID)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
