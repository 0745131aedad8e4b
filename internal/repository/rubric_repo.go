package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/revia-go-api/internal/models"
)

// RubricRepository supplies scoring templates.
type RubricRepository interface {
	CriteriaOf(ctx context.Context, rubricID uint) ([]models.Criterion, error)
	CountCriteria(ctx context.Context, rubricID uint) (int64, error)
}

type rubricRepository struct {
	db *gorm.DB
}

// NewRubricRepository instantiates the repository.
func NewRubricRepository(db *gorm.DB) RubricRepository {
	return &rubricRepository{db: db}
}

func (r *rubricRepository) CriteriaOf(ctx context.Context, rubricID uint) ([]models.Criterion, error) {
	var criteria []models.Criterion
	if err := r.db.WithContext(ctx).
		Where("rubric_id = ?", rubricID).
		Order("id").
		Find(&criteria).Error; err != nil {
		return nil, err
	}

	return criteria, nil
}

func (r *rubricRepository) CountCriteria(ctx context.Context, rubricID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Criterion{}).
		Where("rubric_id = ?", rubricID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}
