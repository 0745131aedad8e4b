package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/revia-go-api/internal/dto"
	"github.com/noah-isme/revia-go-api/internal/models"
	"github.com/noah-isme/revia-go-api/internal/repository"
)

// PublicationService mutates the publication ledger, scoped by the actor's
// capability.
type PublicationService interface {
	Publish(ctx context.Context, reviewID uint, actor Actor) (dto.ReviewPublicationStatus, error)
	Unpublish(ctx context.Context, reviewID uint, actor Actor) (dto.ReviewPublicationStatus, error)
}

type publicationService struct {
	reviews      repository.ReviewRepository
	publications repository.PublicationRepository
	roster       repository.RosterRepository
	visibility   VisibilityService
	cache        *publicationCache
	activity     ActivityRecorder
	logger       zerolog.Logger
	now          func() time.Time
}

// NewPublicationService constructs the publication service.
func NewPublicationService(reviews repository.ReviewRepository, publications repository.PublicationRepository, roster repository.RosterRepository, visibility VisibilityService, cacheClient *redis.Client, cacheTTL time.Duration, activity ActivityRecorder, logger zerolog.Logger) PublicationService {
	return &publicationService{
		reviews:      reviews,
		publications: publications,
		roster:       roster,
		visibility:   visibility,
		cache:        newPublicationCache(cacheClient, cacheTTL, logger),
		activity:     activity,
		logger:       logger.With().Str("component", "publication_service").Logger(),
		now:          time.Now,
	}
}

func (s *publicationService) Publish(ctx context.Context, reviewID uint, actor Actor) (dto.ReviewPublicationStatus, error) {
	tracer := otel.Tracer("github.com/noah-isme/revia-go-api/internal/service/publication")
	ctx, span := tracer.Start(ctx, "publication.publish")
	span.SetAttributes(
		attribute.Int64("publication.review_id", int64(reviewID)),
		attribute.Int64("publication.actor_id", int64(actor.ID)),
	)
	defer span.End()

	review, courses, err := s.resolveScope(ctx, reviewID, actor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish_scope_rejected")
		return dto.ReviewPublicationStatus{}, err
	}

	publishedAt := s.now()
	facts := make([]models.ReviewPublication, 0, len(courses))
	for _, course := range courses {
		facts = append(facts, models.ReviewPublication{
			ReviewID:    review.ID,
			CourseID:    course.ID,
			PublishedBy: actor.ID,
			PublishedAt: publishedAt,
		})
	}

	if err := s.publications.CreateBatch(ctx, facts); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish_write_failed")
		return dto.ReviewPublicationStatus{}, err
	}

	if err := s.cache.invalidate(ctx, review.ID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish_invalidate_failed")
		return dto.ReviewPublicationStatus{}, err
	}

	s.recordActivity(ctx, actor, "review.published", review.ID, courses)
	span.SetAttributes(attribute.Int("publication.courses", len(courses)))

	return s.visibility.PublicationStatus(ctx, review.ID, actor)
}

func (s *publicationService) Unpublish(ctx context.Context, reviewID uint, actor Actor) (dto.ReviewPublicationStatus, error) {
	tracer := otel.Tracer("github.com/noah-isme/revia-go-api/internal/service/publication")
	ctx, span := tracer.Start(ctx, "publication.unpublish")
	span.SetAttributes(
		attribute.Int64("publication.review_id", int64(reviewID)),
		attribute.Int64("publication.actor_id", int64(actor.ID)),
	)
	defer span.End()

	review, courses, err := s.resolveScope(ctx, reviewID, actor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unpublish_scope_rejected")
		return dto.ReviewPublicationStatus{}, err
	}

	courseIDs := make([]uint, 0, len(courses))
	for _, course := range courses {
		courseIDs = append(courseIDs, course.ID)
	}

	if err := s.publications.DeleteByReviewAndCourses(ctx, review.ID, courseIDs); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unpublish_write_failed")
		return dto.ReviewPublicationStatus{}, err
	}

	if err := s.cache.invalidate(ctx, review.ID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unpublish_invalidate_failed")
		return dto.ReviewPublicationStatus{}, err
	}

	s.recordActivity(ctx, actor, "review.unpublished", review.ID, courses)
	span.SetAttributes(attribute.Int("publication.courses", len(courses)))

	return s.visibility.PublicationStatus(ctx, review.ID, actor)
}

// resolveScope loads the review and narrows its courses to the actor's
// publishable set. An empty result is an authorization failure, not a no-op.
func (s *publicationService) resolveScope(ctx context.Context, reviewID uint, actor Actor) (models.Review, []models.Course, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Review{}, nil, ErrReviewNotFound
		}
		return models.Review{}, nil, err
	}

	courses, err := s.visibility.PublishableCourses(ctx, review, actor)
	if err != nil {
		return models.Review{}, nil, err
	}

	if len(courses) == 0 {
		return models.Review{}, nil, ErrPublishForbidden
	}

	return review, courses, nil
}

func (s *publicationService) recordActivity(ctx context.Context, actor Actor, action string, reviewID uint, courses []models.Course) {
	if s.activity == nil {
		return
	}

	courseIDs := make([]interface{}, 0, len(courses))
	for _, course := range courses {
		courseIDs = append(courseIDs, course.ID)
	}

	entityID := reviewID
	_, _ = s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "review",
		EntityID:   &entityID,
		Metadata: map[string]interface{}{
			"course_ids": courseIDs,
		},
	})
}
