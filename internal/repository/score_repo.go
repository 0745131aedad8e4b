package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/revia-go-api/internal/models"
)

// ScoreContext identifies one evaluation context within the score ledger.
type ScoreContext struct {
	ReviewID  uint
	ProjectID uint
	CourseID  uint
}

// ScoreRepository persists the score ledger.
type ScoreRepository interface {
	CountByContext(ctx context.Context, key ScoreContext) (int64, error)
	CountByContexts(ctx context.Context, reviewID, projectID uint, courseIDs []uint) (map[uint]int64, error)
	ListByContext(ctx context.Context, key ScoreContext) ([]models.ScoreRecord, error)
	UpsertBatch(ctx context.Context, records []models.ScoreRecord) error
}

type scoreRepository struct {
	db *gorm.DB
}

// NewScoreRepository instantiates the repository.
func NewScoreRepository(db *gorm.DB) ScoreRepository {
	return &scoreRepository{db: db}
}

func (r *scoreRepository) contextQuery(ctx context.Context, key ScoreContext) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ScoreRecord{}).
		Where("review_id = ?", key.ReviewID).
		Where("project_id = ?", key.ProjectID).
		Where("course_id = ?", key.CourseID)
}

func (r *scoreRepository) CountByContext(ctx context.Context, key ScoreContext) (int64, error) {
	var count int64
	if err := r.contextQuery(ctx, key).Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

// CountByContexts groups ledger row counts per course for one review/project
// pair, feeding the per-course evaluation summary with a single query.
func (r *scoreRepository) CountByContexts(ctx context.Context, reviewID, projectID uint, courseIDs []uint) (map[uint]int64, error) {
	result := make(map[uint]int64, len(courseIDs))
	if len(courseIDs) == 0 {
		return result, nil
	}

	type courseCount struct {
		CourseID uint
		Total    int64
	}

	var counts []courseCount
	if err := r.db.WithContext(ctx).Model(&models.ScoreRecord{}).
		Select("course_id, COUNT(*) AS total").
		Where("review_id = ?", reviewID).
		Where("project_id = ?", projectID).
		Where("course_id IN ?", courseIDs).
		Group("course_id").
		Find(&counts).Error; err != nil {
		return nil, err
	}

	for _, count := range counts {
		result[count.CourseID] = count.Total
	}

	return result, nil
}

func (r *scoreRepository) ListByContext(ctx context.Context, key ScoreContext) ([]models.ScoreRecord, error) {
	var records []models.ScoreRecord
	if err := r.contextQuery(ctx, key).
		Order("participant_id, criterion_id").
		Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

// UpsertBatch writes one submission atomically. Every record lands on its
// composite key: existing rows get score/comment overwritten, missing rows are
// inserted, and a failure anywhere rolls back the whole batch.
func (r *scoreRepository) UpsertBatch(ctx context.Context, records []models.ScoreRecord) error {
	if len(records) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "participant_id"},
				{Name: "criterion_id"},
				{Name: "review_id"},
				{Name: "project_id"},
				{Name: "course_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"score", "comment", "submitted_by", "updated_at"}),
		}).Create(&records).Error
	})
}
