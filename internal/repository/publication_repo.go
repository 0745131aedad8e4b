package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/revia-go-api/internal/models"
)

// PublicationRepository persists the publication ledger.
type PublicationRepository interface {
	ListByReviewID(ctx context.Context, reviewID uint) ([]models.ReviewPublication, error)
	ListByReviewIDs(ctx context.Context, reviewIDs []uint) (map[uint][]models.ReviewPublication, error)
	CreateBatch(ctx context.Context, facts []models.ReviewPublication) error
	DeleteByReviewAndCourses(ctx context.Context, reviewID uint, courseIDs []uint) error
}

type publicationRepository struct {
	db *gorm.DB
}

// NewPublicationRepository instantiates the repository.
func NewPublicationRepository(db *gorm.DB) PublicationRepository {
	return &publicationRepository{db: db}
}

func (r *publicationRepository) ListByReviewID(ctx context.Context, reviewID uint) ([]models.ReviewPublication, error) {
	var facts []models.ReviewPublication
	if err := r.db.WithContext(ctx).
		Where("review_id = ?", reviewID).
		Find(&facts).Error; err != nil {
		return nil, err
	}

	return facts, nil
}

// ListByReviewIDs fetches the publication facts for many reviews in a single
// query so feed rendering stays linear in the number of reviews.
func (r *publicationRepository) ListByReviewIDs(ctx context.Context, reviewIDs []uint) (map[uint][]models.ReviewPublication, error) {
	result := make(map[uint][]models.ReviewPublication, len(reviewIDs))
	if len(reviewIDs) == 0 {
		return result, nil
	}

	var facts []models.ReviewPublication
	if err := r.db.WithContext(ctx).
		Where("review_id IN ?", reviewIDs).
		Find(&facts).Error; err != nil {
		return nil, err
	}

	for _, fact := range facts {
		result[fact.ReviewID] = append(result[fact.ReviewID], fact)
	}

	return result, nil
}

// CreateBatch inserts publication facts, silently skipping (review, course)
// pairs that are already published.
func (r *publicationRepository) CreateBatch(ctx context.Context, facts []models.ReviewPublication) error {
	if len(facts) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "review_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(&facts).Error
}

// DeleteByReviewAndCourses removes publication facts for the given courses.
// Deleting a fact that does not exist is a no-op.
func (r *publicationRepository) DeleteByReviewAndCourses(ctx context.Context, reviewID uint, courseIDs []uint) error {
	if len(courseIDs) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Where("review_id = ?", reviewID).
		Where("course_id IN ?", courseIDs).
		Delete(&models.ReviewPublication{}).Error
}
