package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/revia-go-api/internal/repository"
)

// SubmissionGate decides whether an evaluation context already holds a complete
// score set. Completeness is recomputed from the ledger on every call; it is
// never cached, because concurrent upserts can change the count between reads.
type SubmissionGate interface {
	IsComplete(ctx context.Context, reviewID, projectID, courseID uint) (bool, error)
}

type submissionGate struct {
	scores  repository.ScoreRepository
	roster  repository.RosterRepository
	reviews repository.ReviewRepository
	rubrics repository.RubricRepository
	logger  zerolog.Logger
}

// NewSubmissionGate constructs the completeness gate.
func NewSubmissionGate(scores repository.ScoreRepository, roster repository.RosterRepository, reviews repository.ReviewRepository, rubrics repository.RubricRepository, logger zerolog.Logger) SubmissionGate {
	return &submissionGate{
		scores:  scores,
		roster:  roster,
		reviews: reviews,
		rubrics: rubrics,
		logger:  logger.With().Str("component", "submission_gate").Logger(),
	}
}

// IsComplete is true iff the ledger holds exactly teamSize x criteriaCount rows
// for the context and that product is nonzero.
func (g *submissionGate) IsComplete(ctx context.Context, reviewID, projectID, courseID uint) (bool, error) {
	count, err := g.scores.CountByContext(ctx, repository.ScoreContext{
		ReviewID:  reviewID,
		ProjectID: projectID,
		CourseID:  courseID,
	})
	if err != nil {
		return false, err
	}

	if count == 0 {
		return false, nil
	}

	review, err := g.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return false, err
	}

	criteria, err := g.rubrics.CountCriteria(ctx, review.RubricID)
	if err != nil {
		return false, err
	}

	members, err := g.roster.TeamMembersOf(ctx, projectID)
	if err != nil {
		return false, err
	}

	required := int64(len(members)) * criteria
	if required == 0 {
		return false, nil
	}

	return count == required, nil
}
