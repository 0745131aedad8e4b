package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/revia-go-api/internal/models"
)

// ReviewRepository defines data operations for reviews and their associations.
type ReviewRepository interface {
	GetByID(ctx context.Context, id uint) (models.Review, error)
	List(ctx context.Context) ([]models.Review, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository instantiates the repository.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Review{}).
		Preload("Courses").
		Preload("Projects").
		Preload("Batches")
}

func (r *reviewRepository) GetByID(ctx context.Context, id uint) (models.Review, error) {
	var review models.Review
	if err := r.baseQuery(ctx).First(&review, id).Error; err != nil {
		return models.Review{}, err
	}

	return review, nil
}

func (r *reviewRepository) List(ctx context.Context) ([]models.Review, error) {
	var reviews []models.Review
	if err := r.baseQuery(ctx).Order("start_date DESC").Find(&reviews).Error; err != nil {
		return nil, err
	}

	return reviews, nil
}
