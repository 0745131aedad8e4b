package service

import (
	"errors"
	"fmt"
)

// ErrReviewNotFound indicates the review was not located.
var ErrReviewNotFound = errors.New("review not found")

// ErrProjectNotFound indicates the project was not located.
var ErrProjectNotFound = errors.New("project not found")

// ErrCourseNotFound indicates the course does not belong to the targeted project.
var ErrCourseNotFound = errors.New("course not found for project")

// ErrProjectNotInReview indicates the project is not associated with the review
// through any of its assignment paths.
var ErrProjectNotInReview = errors.New("project is not part of the review")

// ErrPublishForbidden indicates the actor may not publish or unpublish any
// course of the review.
var ErrPublishForbidden = errors.New("not allowed to publish this review")

// ErrSubmitForbidden indicates the actor may not submit scores for the course.
var ErrSubmitForbidden = errors.New("not allowed to submit scores for this course")

// ErrDraftForbidden indicates the actor may not manage drafts for the course.
var ErrDraftForbidden = errors.New("not allowed to manage drafts for this course")

// ErrEvaluationComplete indicates the evaluation context already holds a full
// score set, so drafting over it is a conflict rather than an overwrite.
var ErrEvaluationComplete = errors.New("evaluation already completed")

// ScoreValidationError identifies the offending tuple of a rejected submission.
// No records from the submission are persisted when one of these is returned.
type ScoreValidationError struct {
	ParticipantID uint
	CriterionID   uint
	Reason        string
}

func (e *ScoreValidationError) Error() string {
	return fmt.Sprintf("invalid score for participant %d criterion %d: %s", e.ParticipantID, e.CriterionID, e.Reason)
}
