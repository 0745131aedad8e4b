package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/revia-go-api/internal/dto"
	"github.com/noah-isme/revia-go-api/internal/models"
	"github.com/noah-isme/revia-go-api/internal/repository"
)

// EvaluationService owns the score ledger: validated, atomic, idempotent score
// submission plus the read-back and per-course summary paths built on it.
type EvaluationService interface {
	SubmitScores(ctx context.Context, key repository.ScoreContext, actor Actor, payload dto.SubmitScoresRequest) (dto.SubmitScoresResponse, error)
	Scores(ctx context.Context, key repository.ScoreContext, actor Actor) ([]dto.ScoreRecordResponse, error)
	ProjectSummary(ctx context.Context, reviewID, projectID uint, courseIDs []uint) (dto.ProjectSummaryResponse, error)
}

type evaluationService struct {
	reviews   repository.ReviewRepository
	projects  repository.ProjectRepository
	roster    repository.RosterRepository
	rubrics   repository.RubricRepository
	scores    repository.ScoreRepository
	drafts    DraftStore
	cache     *redis.Client
	cacheTTL  time.Duration
	pubCache  *publicationCache
	activity  ActivityRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewEvaluationService constructs the score ledger service.
func NewEvaluationService(reviews repository.ReviewRepository, projects repository.ProjectRepository, roster repository.RosterRepository, rubrics repository.RubricRepository, scores repository.ScoreRepository, drafts DraftStore, cache *redis.Client, cacheTTL time.Duration, pubCacheTTL time.Duration, activity ActivityRecorder, validator *validator.Validate, logger zerolog.Logger) EvaluationService {
	return &evaluationService{
		reviews:   reviews,
		projects:  projects,
		roster:    roster,
		rubrics:   rubrics,
		scores:    scores,
		drafts:    drafts,
		cache:     cache,
		cacheTTL:  cacheTTL,
		pubCache:  newPublicationCache(cache, pubCacheTTL, logger),
		activity:  activity,
		validator: validator,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "evaluation_service").Logger(),
		now:       time.Now,
	}
}

func (s *evaluationService) SubmitScores(ctx context.Context, key repository.ScoreContext, actor Actor, payload dto.SubmitScoresRequest) (dto.SubmitScoresResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/revia-go-api/internal/service/evaluation")
	ctx, span := tracer.Start(ctx, "evaluation.submit")
	span.SetAttributes(
		attribute.Int64("evaluation.review_id", int64(key.ReviewID)),
		attribute.Int64("evaluation.project_id", int64(key.ProjectID)),
		attribute.Int64("evaluation.course_id", int64(key.CourseID)),
		attribute.Int64("evaluation.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmitScoresResponse{}, err
	}

	review, project, err := s.resolveContext(ctx, key, actor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "context_rejected")
		return dto.SubmitScoresResponse{}, err
	}

	records, err := s.buildRecords(ctx, review, project, key, actor, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scores_rejected")
		return dto.SubmitScoresResponse{}, err
	}

	if err := s.scores.UpsertBatch(ctx, records); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ledger_write_failed")
		return dto.SubmitScoresResponse{}, err
	}

	// The submission supersedes the evaluator's draft and every cached answer
	// derived from this review's ledger state.
	draftKey := DraftKey{ReviewID: key.ReviewID, ProjectID: key.ProjectID, CourseID: key.CourseID, EvaluatorID: actor.ID}
	if err := s.drafts.Evict(ctx, draftKey); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "draft_evict_failed")
		return dto.SubmitScoresResponse{}, err
	}

	if err := s.invalidateSummary(ctx, key.ReviewID, key.ProjectID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "summary_invalidate_failed")
		return dto.SubmitScoresResponse{}, err
	}

	if err := s.pubCache.invalidate(ctx, key.ReviewID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publication_invalidate_failed")
		return dto.SubmitScoresResponse{}, err
	}

	s.recordActivity(ctx, actor, key, len(records))
	span.SetAttributes(attribute.Int("evaluation.records", len(records)))

	return dto.SubmitScoresResponse{Success: true, Count: len(records)}, nil
}

func (s *evaluationService) Scores(ctx context.Context, key repository.ScoreContext, actor Actor) ([]dto.ScoreRecordResponse, error) {
	if _, _, err := s.resolveContext(ctx, key, actor); err != nil {
		return nil, err
	}

	records, err := s.scores.ListByContext(ctx, key)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ScoreRecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, dto.NewScoreRecordResponse(record))
	}

	return responses, nil
}

func (s *evaluationService) ProjectSummary(ctx context.Context, reviewID, projectID uint, courseIDs []uint) (dto.ProjectSummaryResponse, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProjectSummaryResponse{}, ErrProjectNotFound
		}
		return dto.ProjectSummaryResponse{}, err
	}

	summaries, err := s.courseSummaries(ctx, reviewID, project)
	if err != nil {
		return dto.ProjectSummaryResponse{}, err
	}

	if len(courseIDs) > 0 {
		wanted := toSet(courseIDs)
		filtered := make([]dto.CourseEvaluationSummary, 0, len(summaries))
		for _, summary := range summaries {
			if _, ok := wanted[summary.CourseID]; ok {
				filtered = append(filtered, summary)
			}
		}
		summaries = filtered
	}

	return dto.ProjectSummaryResponse{
		ReviewID:  reviewID,
		ProjectID: projectID,
		Courses:   summaries,
	}, nil
}

// courseSummaries serves the full per-course breakdown through the redis
// cache; submissions invalidate the key synchronously.
func (s *evaluationService) courseSummaries(ctx context.Context, reviewID uint, project models.Project) ([]dto.CourseEvaluationSummary, error) {
	cacheKey := summaryCacheKey(reviewID, project.ID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var summaries []dto.CourseEvaluationSummary
			if unmarshalErr := json.Unmarshal([]byte(cached), &summaries); unmarshalErr == nil {
				return summaries, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read summary cache")
		}
	}

	courseIDs := make([]uint, 0, len(project.Courses))
	for _, course := range project.Courses {
		courseIDs = append(courseIDs, course.ID)
	}

	counts, err := s.scores.CountByContexts(ctx, reviewID, project.ID, courseIDs)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.CourseEvaluationSummary, 0, len(project.Courses))
	for _, course := range project.Courses {
		instructors, err := s.roster.InstructorsOf(ctx, course.ID)
		if err != nil {
			return nil, err
		}

		infos := make([]dto.InstructorInfo, 0, len(instructors))
		for _, instructor := range instructors {
			infos = append(infos, dto.InstructorInfo{ID: instructor.ID, Name: instructor.Name, Email: instructor.Email})
		}

		count := counts[course.ID]
		summaries = append(summaries, dto.CourseEvaluationSummary{
			CourseID:        course.ID,
			CourseName:      course.Name,
			HasEvaluation:   count > 0,
			EvaluationCount: count,
			Instructors:     infos,
		})
	}

	if s.cache != nil {
		if payload, err := json.Marshal(summaries); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store summary cache")
			}
		}
	}

	return summaries, nil
}

func (s *evaluationService) invalidateSummary(ctx context.Context, reviewID, projectID uint) error {
	if s.cache == nil {
		return nil
	}

	if err := s.cache.Del(ctx, summaryCacheKey(reviewID, projectID)).Err(); err != nil {
		return fmt.Errorf("invalidate summary cache for review %d project %d: %w", reviewID, projectID, err)
	}

	return nil
}

func summaryCacheKey(reviewID, projectID uint) string {
	return fmt.Sprintf("evaluation:summary:review:%d:project:%d", reviewID, projectID)
}

// resolveContext loads and authorizes one evaluation context. The project must
// be associated with the review through at least one assignment path, the
// course must belong to the project, and the actor must be allowed to grade
// that course.
func (s *evaluationService) resolveContext(ctx context.Context, key repository.ScoreContext, actor Actor) (models.Review, models.Project, error) {
	review, err := s.reviews.GetByID(ctx, key.ReviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Review{}, models.Project{}, ErrReviewNotFound
		}
		return models.Review{}, models.Project{}, err
	}

	project, err := s.projects.GetByID(ctx, key.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Review{}, models.Project{}, ErrProjectNotFound
		}
		return models.Review{}, models.Project{}, err
	}

	if !projectInReview(review, project) {
		return models.Review{}, models.Project{}, ErrProjectNotInReview
	}

	courseOK := false
	for _, course := range project.Courses {
		if course.ID == key.CourseID {
			courseOK = true
			break
		}
	}
	if !courseOK {
		return models.Review{}, models.Project{}, ErrCourseNotFound
	}

	if err := s.authorize(ctx, key.CourseID, actor); err != nil {
		return models.Review{}, models.Project{}, err
	}

	return review, project, nil
}

func (s *evaluationService) authorize(ctx context.Context, courseID uint, actor Actor) error {
	capability := CapabilityFor(actor.Role)
	if !capability.CanSubmit() {
		return ErrSubmitForbidden
	}

	if actor.Role == models.RoleFaculty {
		taught, err := s.roster.CourseIDsTaughtBy(ctx, actor.ID)
		if err != nil {
			return err
		}
		if _, ok := toSet(taught)[courseID]; !ok {
			return ErrSubmitForbidden
		}
	}

	return nil
}

// buildRecords validates every tuple against roster and rubric and maps the
// payload into ledger rows. Any invalid tuple rejects the whole submission.
func (s *evaluationService) buildRecords(ctx context.Context, review models.Review, project models.Project, key repository.ScoreContext, actor Actor, payload dto.SubmitScoresRequest) ([]models.ScoreRecord, error) {
	criteria, err := s.rubrics.CriteriaOf(ctx, review.RubricID)
	if err != nil {
		return nil, err
	}

	criteriaByID := make(map[uint]models.Criterion, len(criteria))
	for _, criterion := range criteria {
		criteriaByID[criterion.ID] = criterion
	}

	members, err := s.roster.TeamMembersOf(ctx, key.ProjectID)
	if err != nil {
		return nil, err
	}

	memberSet := make(map[uint]struct{}, len(members))
	for _, member := range members {
		memberSet[member.ID] = struct{}{}
	}

	records := make([]models.ScoreRecord, 0)
	for _, participant := range payload.Scores {
		if _, ok := memberSet[participant.ParticipantID]; !ok {
			return nil, &ScoreValidationError{
				ParticipantID: participant.ParticipantID,
				Reason:        fmt.Sprintf("participant is not a team member of project %d", project.ID),
			}
		}

		for _, input := range participant.CriterionScores {
			criterion, ok := criteriaByID[input.CriterionID]
			if !ok {
				return nil, &ScoreValidationError{
					ParticipantID: participant.ParticipantID,
					CriterionID:   input.CriterionID,
					Reason:        "criterion does not belong to the review rubric",
				}
			}

			if input.Score < 0 || input.Score > criterion.MaxScore {
				return nil, &ScoreValidationError{
					ParticipantID: participant.ParticipantID,
					CriterionID:   input.CriterionID,
					Reason:        fmt.Sprintf("score %.2f is outside [0, %.2f]", input.Score, criterion.MaxScore),
				}
			}

			records = append(records, models.ScoreRecord{
				ParticipantID: participant.ParticipantID,
				CriterionID:   input.CriterionID,
				ReviewID:      key.ReviewID,
				ProjectID:     key.ProjectID,
				CourseID:      key.CourseID,
				Score:         input.Score,
				Comment:       strings.TrimSpace(s.sanitizer.Sanitize(input.Comment)),
				SubmittedBy:   actor.ID,
				UpdatedAt:     s.now(),
			})
		}
	}

	return records, nil
}

func (s *evaluationService) recordActivity(ctx context.Context, actor Actor, key repository.ScoreContext, count int) {
	if s.activity == nil {
		return
	}

	entityID := key.ReviewID
	_, _ = s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "scores.submitted",
		EntityType: "review",
		EntityID:   &entityID,
		Metadata: map[string]interface{}{
			"project_id": key.ProjectID,
			"course_id":  key.CourseID,
			"records":    count,
		},
	})
}

// projectInReview is the union of the four assignment paths. Each path is its
// own predicate so they stay testable in isolation.
func projectInReview(review models.Review, project models.Project) bool {
	return assignedDirect(review, project) ||
		assignedViaCourse(review, project) ||
		assignedViaBatch(review, project) ||
		assignedViaSemester(review, project)
}

func assignedDirect(review models.Review, project models.Project) bool {
	for _, candidate := range review.Projects {
		if candidate.ID == project.ID {
			return true
		}
	}
	return false
}

func assignedViaCourse(review models.Review, project models.Project) bool {
	reviewCourses := toSet(review.CourseIDs())
	for _, course := range project.Courses {
		if _, ok := reviewCourses[course.ID]; ok {
			return true
		}
	}
	return false
}

func assignedViaBatch(review models.Review, project models.Project) bool {
	reviewBatches := make(map[uint]struct{}, len(review.Batches))
	for _, batch := range review.Batches {
		reviewBatches[batch.ID] = struct{}{}
	}
	for _, batch := range project.Batches {
		if _, ok := reviewBatches[batch.ID]; ok {
			return true
		}
	}
	return false
}

func assignedViaSemester(review models.Review, project models.Project) bool {
	if review.SemesterID == nil || project.SemesterID == nil {
		return false
	}
	return *review.SemesterID == *project.SemesterID
}
