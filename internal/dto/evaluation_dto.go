package dto

import (
	"time"

	"github.com/noah-isme/revia-go-api/internal/models"
)

// CriterionScoreInput is one scored criterion for a participant.
type CriterionScoreInput struct {
	CriterionID uint    `json:"criterionId" validate:"required"`
	Score       float64 `json:"score" validate:"gte=0"`
	Comment     string  `json:"comment" validate:"omitempty,max=2000"`
}

// ParticipantScoresInput carries the full criterion set for one team member.
type ParticipantScoresInput struct {
	ParticipantID   uint                  `json:"participantId" validate:"required"`
	CriterionScores []CriterionScoreInput `json:"criterionScores" validate:"required,min=1,dive"`
}

// SubmitScoresRequest is the payload of a course score submission.
type SubmitScoresRequest struct {
	Scores []ParticipantScoresInput `json:"scores" validate:"required,min=1,dive"`
}

// SubmitScoresResponse reports the outcome of a submission.
type SubmitScoresResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

// ScoreRecordResponse is one persisted score row on the read-back path.
type ScoreRecordResponse struct {
	ParticipantID uint      `json:"participantId"`
	CriterionID   uint      `json:"criterionId"`
	Score         float64   `json:"score"`
	Comment       string    `json:"comment,omitempty"`
	SubmittedBy   uint      `json:"submittedBy"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewScoreRecordResponse maps a ledger row into its API shape.
func NewScoreRecordResponse(record models.ScoreRecord) ScoreRecordResponse {
	return ScoreRecordResponse{
		ParticipantID: record.ParticipantID,
		CriterionID:   record.CriterionID,
		Score:         record.Score,
		Comment:       record.Comment,
		SubmittedBy:   record.SubmittedBy,
		UpdatedAt:     record.UpdatedAt,
	}
}

// ProjectSummaryRequest optionally narrows the summary to specific courses.
type ProjectSummaryRequest struct {
	CourseIDs []uint `json:"courseIds" validate:"omitempty,dive,required"`
}

// CourseEvaluationSummary is the per-course evaluation breakdown for a project.
type CourseEvaluationSummary struct {
	CourseID        uint             `json:"courseId"`
	CourseName      string           `json:"courseName"`
	HasEvaluation   bool             `json:"hasEvaluation"`
	EvaluationCount int64            `json:"evaluationCount"`
	Instructors     []InstructorInfo `json:"instructors"`
}

// InstructorInfo identifies a course instructor in summary responses.
type InstructorInfo struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProjectSummaryResponse groups course summaries for one review/project pair.
type ProjectSummaryResponse struct {
	ReviewID  uint                      `json:"reviewId"`
	ProjectID uint                      `json:"projectId"`
	Courses   []CourseEvaluationSummary `json:"courses"`
}
