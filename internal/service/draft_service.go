package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/revia-go-api/internal/dto"
	"github.com/noah-isme/revia-go-api/internal/models"
	"github.com/noah-isme/revia-go-api/internal/repository"
)

// DraftKey identifies one evaluator's draft for an evaluation context.
type DraftKey struct {
	ReviewID    uint
	ProjectID   uint
	CourseID    uint
	EvaluatorID uint
}

func (k DraftKey) cacheKey() string {
	return fmt.Sprintf("draft:review:%d:project:%d:course:%d:evaluator:%d", k.ReviewID, k.ProjectID, k.CourseID, k.EvaluatorID)
}

// DraftStore is the narrow supersede signal the score ledger uses to evict a
// draft once a final submission lands. It bypasses the authorization applied
// to user-initiated clears.
type DraftStore interface {
	Evict(ctx context.Context, key DraftKey) error
}

// DraftService manages the ephemeral evaluation draft cache. A draft is a
// session-scoped snapshot, never authoritative; every read and write re-checks
// completeness against the score ledger before trusting the cache.
type DraftService interface {
	DraftStore
	Get(ctx context.Context, key DraftKey) (dto.DraftResponse, error)
	Save(ctx context.Context, key DraftKey, actor Actor, payload dto.SaveDraftRequest) (dto.EvaluationDraft, error)
	Clear(ctx context.Context, key DraftKey, actor Actor) error
}

type draftService struct {
	cache     *redis.Client
	ttl       time.Duration
	gate      SubmissionGate
	roster    repository.RosterRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewDraftService constructs the draft cache service.
func NewDraftService(cache *redis.Client, ttl time.Duration, gate SubmissionGate, roster repository.RosterRepository, validator *validator.Validate, logger zerolog.Logger) DraftService {
	return &draftService{
		cache:     cache,
		ttl:       ttl,
		gate:      gate,
		roster:    roster,
		validator: validator,
		logger:    logger.With().Str("component", "draft_service").Logger(),
		now:       time.Now,
	}
}

// Get returns the cached draft, or "no draft" once the context holds a
// complete submission. A stale draft must never resurrect after the real
// submission lands, so the completeness check runs before the cache is read.
func (s *draftService) Get(ctx context.Context, key DraftKey) (dto.DraftResponse, error) {
	complete, err := s.gate.IsComplete(ctx, key.ReviewID, key.ProjectID, key.CourseID)
	if err != nil {
		return dto.DraftResponse{}, err
	}

	if complete {
		if err := s.Evict(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("key", key.cacheKey()).Msg("failed to drop superseded draft")
		}
		return dto.DraftResponse{Exists: false}, nil
	}

	cached, err := s.cache.Get(ctx, key.cacheKey()).Result()
	if err != nil {
		if err == redis.Nil {
			return dto.DraftResponse{Exists: false}, nil
		}
		return dto.DraftResponse{}, fmt.Errorf("read draft cache: %w", err)
	}

	var draft dto.EvaluationDraft
	if err := json.Unmarshal([]byte(cached), &draft); err != nil {
		return dto.DraftResponse{}, fmt.Errorf("decode draft: %w", err)
	}

	return dto.DraftResponse{Exists: true, Draft: &draft}, nil
}

// Save replaces the draft wholesale. Drafting over a finalized evaluation is a
// conflict, not a silent overwrite.
func (s *draftService) Save(ctx context.Context, key DraftKey, actor Actor, payload dto.SaveDraftRequest) (dto.EvaluationDraft, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EvaluationDraft{}, err
	}

	if err := s.authorize(ctx, key.CourseID, actor); err != nil {
		return dto.EvaluationDraft{}, err
	}

	complete, err := s.gate.IsComplete(ctx, key.ReviewID, key.ProjectID, key.CourseID)
	if err != nil {
		return dto.EvaluationDraft{}, err
	}

	if complete {
		return dto.EvaluationDraft{}, ErrEvaluationComplete
	}

	draft := dto.EvaluationDraft{
		ReviewID:    key.ReviewID,
		ProjectID:   key.ProjectID,
		CourseID:    key.CourseID,
		EvaluatorID: key.EvaluatorID,
		Entries:     payload.Entries,
		UpdatedAt:   s.now(),
	}

	encoded, err := json.Marshal(draft)
	if err != nil {
		return dto.EvaluationDraft{}, fmt.Errorf("encode draft: %w", err)
	}

	if err := s.cache.Set(ctx, key.cacheKey(), encoded, s.ttl).Err(); err != nil {
		return dto.EvaluationDraft{}, fmt.Errorf("store draft: %w", err)
	}

	return draft, nil
}

// Clear is the user-initiated eviction; it carries the same authorization as
// score submission. Clearing a missing draft is a no-op.
func (s *draftService) Clear(ctx context.Context, key DraftKey, actor Actor) error {
	if err := s.authorize(ctx, key.CourseID, actor); err != nil {
		return err
	}

	return s.Evict(ctx, key)
}

// Evict drops the cache entry without authorization; the score ledger calls it
// after a successful submission.
func (s *draftService) Evict(ctx context.Context, key DraftKey) error {
	if err := s.cache.Del(ctx, key.cacheKey()).Err(); err != nil {
		return fmt.Errorf("evict draft: %w", err)
	}

	return nil
}

func (s *draftService) authorize(ctx context.Context, courseID uint, actor Actor) error {
	capability := CapabilityFor(actor.Role)
	if !capability.CanSubmit() {
		return ErrDraftForbidden
	}

	if actor.Role == models.RoleFaculty {
		taught, err := s.roster.CourseIDsTaughtBy(ctx, actor.ID)
		if err != nil {
			return err
		}
		if _, ok := toSet(taught)[courseID]; !ok {
			return ErrDraftForbidden
		}
	}

	return nil
}
