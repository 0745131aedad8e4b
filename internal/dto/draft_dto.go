package dto

import "time"

// DraftEntry is one participant's in-progress criterion scores.
type DraftEntry struct {
	ParticipantID   uint                  `json:"participantId" validate:"required"`
	CriterionScores []CriterionScoreInput `json:"criterionScores" validate:"required,min=1,dive"`
}

// SaveDraftRequest replaces the evaluator's draft wholesale; drafts are never
// merged field by field.
type SaveDraftRequest struct {
	Entries []DraftEntry `json:"entries" validate:"required,min=1,dive"`
}

// EvaluationDraft is the cached snapshot of an evaluator's unsaved scores.
type EvaluationDraft struct {
	ReviewID    uint         `json:"reviewId"`
	ProjectID   uint         `json:"projectId"`
	CourseID    uint         `json:"courseId"`
	EvaluatorID uint         `json:"evaluatorId"`
	Entries     []DraftEntry `json:"entries"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// DraftResponse wraps the optional draft so callers can distinguish "no draft"
// from an empty one.
type DraftResponse struct {
	Exists bool             `json:"exists"`
	Draft  *EvaluationDraft `json:"draft,omitempty"`
}
