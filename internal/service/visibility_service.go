package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/revia-go-api/internal/dto"
	"github.com/noah-isme/revia-go-api/internal/models"
	"github.com/noah-isme/revia-go-api/internal/repository"
)

// VisibilityService computes role-scoped review visibility over the publication
// ledger. It has no side effects on the ledger itself.
type VisibilityService interface {
	IsVisible(ctx context.Context, reviewID uint, actor Actor) (bool, error)
	VisibleReviews(ctx context.Context, actor Actor) ([]dto.ReviewFeedItem, error)
	PublishableCourses(ctx context.Context, review models.Review, actor Actor) ([]models.Course, error)
	PublicationStatus(ctx context.Context, reviewID uint, actor Actor) (dto.ReviewPublicationStatus, error)
}

type visibilityService struct {
	reviews      repository.ReviewRepository
	publications repository.PublicationRepository
	roster       repository.RosterRepository
	cache        *publicationCache
	logger       zerolog.Logger
}

// NewVisibilityService constructs the visibility evaluator.
func NewVisibilityService(reviews repository.ReviewRepository, publications repository.PublicationRepository, roster repository.RosterRepository, cacheClient *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) VisibilityService {
	return &visibilityService{
		reviews:      reviews,
		publications: publications,
		roster:       roster,
		cache:        newPublicationCache(cacheClient, cacheTTL, logger),
		logger:       logger.With().Str("component", "visibility_service").Logger(),
	}
}

func (s *visibilityService) IsVisible(ctx context.Context, reviewID uint, actor Actor) (bool, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrReviewNotFound
		}
		return false, err
	}

	facts, err := s.factsFor(ctx, review.ID)
	if err != nil {
		return false, err
	}

	courseScope, err := s.actorCourseScope(ctx, actor)
	if err != nil {
		return false, err
	}

	return reviewVisible(review, facts, actor, courseScope), nil
}

// VisibleReviews renders the actor's review feed. The publication ledger is
// consulted once for the whole review set, not once per review.
func (s *visibilityService) VisibleReviews(ctx context.Context, actor Actor) ([]dto.ReviewFeedItem, error) {
	reviews, err := s.reviews.List(ctx)
	if err != nil {
		return nil, err
	}

	reviewIDs := make([]uint, 0, len(reviews))
	for _, review := range reviews {
		reviewIDs = append(reviewIDs, review.ID)
	}

	factsByReview, err := s.publications.ListByReviewIDs(ctx, reviewIDs)
	if err != nil {
		return nil, err
	}

	courseScope, err := s.actorCourseScope(ctx, actor)
	if err != nil {
		return nil, err
	}

	taught, err := s.taughtSet(ctx, actor)
	if err != nil {
		return nil, err
	}

	items := make([]dto.ReviewFeedItem, 0, len(reviews))
	for _, review := range reviews {
		facts := factsByReview[review.ID]
		if !reviewVisible(review, facts, actor, courseScope) {
			continue
		}

		status := buildStatus(review, facts, actor, courseScope, taught)
		items = append(items, dto.NewReviewFeedItem(review, status))
	}

	return items, nil
}

func (s *visibilityService) PublishableCourses(ctx context.Context, review models.Review, actor Actor) ([]models.Course, error) {
	taught, err := s.taughtSet(ctx, actor)
	if err != nil {
		return nil, err
	}

	return CapabilityFor(actor.Role).PublishableCourses(review.Courses, taught), nil
}

func (s *visibilityService) PublicationStatus(ctx context.Context, reviewID uint, actor Actor) (dto.ReviewPublicationStatus, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReviewPublicationStatus{}, ErrReviewNotFound
		}
		return dto.ReviewPublicationStatus{}, err
	}

	facts, err := s.factsFor(ctx, review.ID)
	if err != nil {
		return dto.ReviewPublicationStatus{}, err
	}

	courseScope, err := s.actorCourseScope(ctx, actor)
	if err != nil {
		return dto.ReviewPublicationStatus{}, err
	}

	taught, err := s.taughtSet(ctx, actor)
	if err != nil {
		return dto.ReviewPublicationStatus{}, err
	}

	return buildStatus(review, facts, actor, courseScope, taught), nil
}

// factsFor serves the publication facts for one review through the cache.
func (s *visibilityService) factsFor(ctx context.Context, reviewID uint) ([]models.ReviewPublication, error) {
	if facts, ok := s.cache.get(ctx, reviewID); ok {
		return facts, nil
	}

	facts, err := s.publications.ListByReviewID(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	s.cache.set(ctx, reviewID, facts)

	return facts, nil
}

// actorCourseScope resolves the course set relevant to the actor's role:
// taught courses for faculty, enrolled courses for students, nil for staff
// (whose visibility does not depend on their own courses).
func (s *visibilityService) actorCourseScope(ctx context.Context, actor Actor) (map[uint]struct{}, error) {
	switch actor.Role {
	case models.RoleFaculty:
		ids, err := s.roster.CourseIDsTaughtBy(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		return toSet(ids), nil
	case models.RoleStudent:
		ids, err := s.roster.CourseIDsEnrolledBy(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		return toSet(ids), nil
	default:
		return nil, nil
	}
}

func (s *visibilityService) taughtSet(ctx context.Context, actor Actor) (map[uint]struct{}, error) {
	if actor.Role != models.RoleFaculty {
		return nil, nil
	}

	ids, err := s.roster.CourseIDsTaughtBy(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	return toSet(ids), nil
}

// reviewVisible applies the role rules over one review's publication facts.
// Staff see a review only once every course is published; a review with zero
// courses is never visible to anyone.
func reviewVisible(review models.Review, facts []models.ReviewPublication, actor Actor, courseScope map[uint]struct{}) bool {
	published := publishedSet(facts)

	if CapabilityFor(actor.Role).CanViewAll() {
		if len(review.Courses) == 0 {
			return false
		}
		for _, course := range review.Courses {
			if _, ok := published[course.ID]; !ok {
				return false
			}
		}
		return true
	}

	switch actor.Role {
	case models.RoleFaculty, models.RoleStudent:
		for _, course := range review.Courses {
			if _, inScope := courseScope[course.ID]; !inScope {
				continue
			}
			if _, ok := published[course.ID]; ok {
				return true
			}
		}
	}

	return false
}

// buildStatus assembles the per-role publication status shape. The publish
// date is the earliest fact within the actor's course scope.
func buildStatus(review models.Review, facts []models.ReviewPublication, actor Actor, courseScope map[uint]struct{}, taught map[uint]struct{}) dto.ReviewPublicationStatus {
	capability := CapabilityFor(actor.Role)

	relevant := facts
	if !capability.CanViewAll() {
		relevant = make([]models.ReviewPublication, 0, len(facts))
		for _, fact := range facts {
			if _, ok := courseScope[fact.CourseID]; ok {
				relevant = append(relevant, fact)
			}
		}
	}

	var publishDate *time.Time
	for _, fact := range relevant {
		if publishDate == nil || fact.PublishedAt.Before(*publishDate) {
			published := fact.PublishedAt
			publishDate = &published
		}
	}

	return dto.ReviewPublicationStatus{
		ReviewID:    review.ID,
		ReviewName:  review.Name,
		IsPublished: reviewVisible(review, facts, actor, courseScope),
		PublishDate: publishDate,
		CanPublish:  len(capability.PublishableCourses(review.Courses, taught)) > 0,
	}
}

func publishedSet(facts []models.ReviewPublication) map[uint]struct{} {
	set := make(map[uint]struct{}, len(facts))
	for _, fact := range facts {
		set[fact.CourseID] = struct{}{}
	}
	return set
}

func toSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
