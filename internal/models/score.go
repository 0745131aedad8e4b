package models

import "time"

// ScoreRecord is one score ledger row. The composite unique index makes
// resubmission an overwrite of the same row rather than a duplicate.
type ScoreRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ParticipantID uint      `gorm:"not null;uniqueIndex:idx_score_record_key" json:"participant_id"`
	CriterionID   uint      `gorm:"not null;uniqueIndex:idx_score_record_key" json:"criterion_id"`
	ReviewID      uint      `gorm:"not null;uniqueIndex:idx_score_record_key;index" json:"review_id"`
	ProjectID     uint      `gorm:"not null;uniqueIndex:idx_score_record_key" json:"project_id"`
	CourseID      uint      `gorm:"not null;uniqueIndex:idx_score_record_key" json:"course_id"`
	Score         float64   `gorm:"not null" json:"score"`
	Comment       string    `gorm:"type:text" json:"comment"`
	SubmittedBy   uint      `gorm:"not null" json:"submitted_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
