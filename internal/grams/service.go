package grams

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/grams-server/internal/feed"
	"github.com/vovakirdan/grams-server/internal/metrics"
	"github.com/vovakirdan/grams-server/internal/store"
)

// Action names, used as metric labels and log fields.
const (
	ActionIndex   = "index"
	ActionNew     = "new"
	ActionCreate  = "create"
	ActionShow    = "show"
	ActionEdit    = "edit"
	ActionUpdate  = "update"
	ActionDestroy = "destroy"
)

var mutationLogs = map[string]string{
	ActionCreate:  "gram created",
	ActionUpdate:  "gram updated",
	ActionDestroy: "gram destroyed",
}

// Publisher receives gram lifecycle events after successful mutations.
type Publisher interface {
	Publish(event *feed.Event)
}

// Service implements the gram resource actions.
//
// Every action takes the viewer explicitly. Actions that need a signed-in user
// return ErrUnauthenticated before touching the store. Lookups of unknown ids
// return ErrNotFound whatever the viewer, and rejected input returns a
// *ValidationError with the store left unchanged.
//
// Any signed-in user may edit, update or destroy any gram; ownership is only
// recorded, never enforced.
type Service struct {
	store     store.GramStore
	publisher Publisher
	log       *zerolog.Logger
}

// NewService creates a gram service. publisher may be nil.
func NewService(st store.GramStore, publisher Publisher, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{
		store:     st,
		publisher: publisher,
		log:       logger,
	}
}

// List returns every gram, newest first. No sign-in required.
func (s *Service) List(ctx context.Context, v Viewer) (grams []*store.Gram, err error) {
	defer func() { s.observe(ActionIndex, v, "", err) }()

	grams, err = s.store.ListGrams(ctx)
	if err != nil {
		return nil, fmt.Errorf("list grams: %w", err)
	}
	return grams, nil
}

// New returns the empty form for a gram.
func (s *Service) New(v Viewer) (in Input, err error) {
	defer func() { s.observe(ActionNew, v, "", err) }()

	if !v.Authenticated() {
		return Input{}, ErrUnauthenticated
	}
	return Input{}, nil
}

// Create validates in and persists a gram owned by the viewer.
func (s *Service) Create(ctx context.Context, v Viewer, in Input) (gram *store.Gram, err error) {
	defer func() { s.observe(ActionCreate, v, gramID(gram), err) }()

	userID, ok := v.UserID()
	if !ok {
		return nil, ErrUnauthenticated
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	gram, err = s.store.CreateGram(ctx, userID, in.Message)
	if err != nil {
		return nil, fmt.Errorf("create gram: %w", err)
	}

	s.publish(feed.EventGramCreated, gram)
	return gram, nil
}

// Show returns the gram with the given id. No sign-in required.
func (s *Service) Show(ctx context.Context, v Viewer, id string) (gram *store.Gram, err error) {
	defer func() { s.observe(ActionShow, v, id, err) }()

	return s.find(ctx, id)
}

// Edit returns the gram with the given id for editing.
func (s *Service) Edit(ctx context.Context, v Viewer, id string) (gram *store.Gram, err error) {
	defer func() { s.observe(ActionEdit, v, id, err) }()

	if !v.Authenticated() {
		return nil, ErrUnauthenticated
	}
	return s.find(ctx, id)
}

// Update replaces the message of the gram with the given id.
// A missing gram wins over invalid input.
func (s *Service) Update(ctx context.Context, v Viewer, id string, in Input) (gram *store.Gram, err error) {
	defer func() { s.observe(ActionUpdate, v, id, err) }()

	if !v.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	gram, err = s.store.UpdateGramMessage(ctx, id, in.Message)
	if err != nil {
		return nil, s.mapStoreErr(id, err, "update gram")
	}

	s.publish(feed.EventGramUpdated, gram)
	return gram, nil
}

// Destroy permanently removes the gram with the given id.
func (s *Service) Destroy(ctx context.Context, v Viewer, id string) (err error) {
	defer func() { s.observe(ActionDestroy, v, id, err) }()

	if !v.Authenticated() {
		return ErrUnauthenticated
	}
	gram, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteGram(ctx, id); err != nil {
		return s.mapStoreErr(id, err, "delete gram")
	}

	s.publish(feed.EventGramDeleted, gram)
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*store.Gram, error) {
	gram, err := s.store.GetGram(ctx, id)
	if err != nil {
		return nil, s.mapStoreErr(id, err, "get gram")
	}
	return gram, nil
}

func (s *Service) mapStoreErr(id string, err error, op string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("gram %q: %w", id, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Service) publish(kind feed.EventKind, gram *store.Gram) {
	if s.publisher == nil || gram == nil {
		return
	}
	s.publisher.Publish(&feed.Event{Kind: kind, Gram: *gram})
}

func (s *Service) observe(action string, v Viewer, id string, err error) {
	outcome := Outcome(err)
	metrics.GramActions.WithLabelValues(action, outcome).Inc()

	userID, _ := v.UserID()
	switch outcome {
	case metrics.OutcomeOK:
		if msg, ok := mutationLogs[action]; ok {
			s.log.Info().Str("gram_id", id).Int64("user_id", userID).Msg(msg)
		}
	case metrics.OutcomeError:
		s.log.Error().Err(err).Str("action", action).Str("gram_id", id).Int64("user_id", userID).Msg("gram action failed")
	default:
		s.log.Debug().Err(err).Str("action", action).Str("gram_id", id).Str("outcome", outcome).Msg("gram action rejected")
	}
}

// Outcome classifies err into a metrics outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrUnauthenticated):
		return metrics.OutcomeUnauthenticated
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrValidation):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

func gramID(g *store.Gram) string {
	if g == nil {
		return ""
	}
	return g.ID
}
