package service

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/revia-go-api/internal/dto"
	"github.com/noah-isme/revia-go-api/internal/models"
	"github.com/noah-isme/revia-go-api/internal/repository"
)

type evaluationHarness struct {
	scores   *fakeScoreRepo
	drafts   *fakeDraftStore
	activity *fakeActivityRecorder
	service  EvaluationService
}

func newEvaluationHarness(t *testing.T, cache *redis.Client) *evaluationHarness {
	t.Helper()

	courseA := models.Course{ID: 1, Name: "Distributed Systems"}
	courseB := models.Course{ID: 2, Name: "Databases"}

	reviews := &fakeReviewRepo{reviews: map[uint]models.Review{
		1: {ID: 1, Name: "Review 1", RubricID: 1, Courses: []models.Course{courseA}},
	}}
	projects := &fakeProjectRepo{projects: map[uint]models.Project{
		5: {ID: 5, Name: "Capstone", Courses: []models.Course{courseA, courseB}},
		6: {ID: 6, Name: "Unrelated"},
	}}
	roster := &fakeRosterRepo{
		instructors: map[uint][]models.User{
			1: {{ID: 10, Name: "Prof A", Email: "a@example.edu"}},
			2: {{ID: 11, Name: "Prof B", Email: "b@example.edu"}},
		},
		members: map[uint][]models.User{5: {{ID: 100}, {ID: 101}}},
		taught:  map[uint][]uint{10: {1}},
	}
	rubrics := &fakeRubricRepo{criteria: map[uint][]models.Criterion{
		1: {
			{ID: 1, RubricID: 1, Name: "Design", MaxScore: 10},
			{ID: 2, RubricID: 1, Name: "Delivery", MaxScore: 5},
		},
	}}

	h := &evaluationHarness{
		scores:   newFakeScoreRepo(),
		drafts:   &fakeDraftStore{},
		activity: &fakeActivityRecorder{},
	}
	h.service = NewEvaluationService(
		reviews, projects, roster, rubrics, h.scores, h.drafts,
		cache, time.Minute, time.Minute,
		h.activity, validator.New(validator.WithRequiredStructEnabled()), testLogger(),
	)

	return h
}

func submitPayload(score float64) dto.SubmitScoresRequest {
	return dto.SubmitScoresRequest{Scores: []dto.ParticipantScoresInput{
		{ParticipantID: 100, CriterionScores: []dto.CriterionScoreInput{
			{CriterionID: 1, Score: score, Comment: "<b>great</b> work"},
			{CriterionID: 2, Score: 4},
		}},
		{ParticipantID: 101, CriterionScores: []dto.CriterionScoreInput{
			{CriterionID: 1, Score: score},
			{CriterionID: 2, Score: 3},
		}},
	}}
}

func evalKey() repository.ScoreContext {
	return repository.ScoreContext{ReviewID: 1, ProjectID: 5, CourseID: 1}
}

func TestSubmitScoresPersistsAndSupersedesDraft(t *testing.T) {
	h := newEvaluationHarness(t, nil)
	faculty := Actor{ID: 10, Role: models.RoleFaculty}

	resp, err := h.service.SubmitScores(context.Background(), evalKey(), faculty, submitPayload(8))
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, 4, resp.Count)
	require.Len(t, h.scores.records, 4)

	require.Len(t, h.drafts.evicted, 1)
	require.Equal(t, DraftKey{ReviewID: 1, ProjectID: 5, CourseID: 1, EvaluatorID: 10}, h.drafts.evicted[0])

	require.Len(t, h.activity.entries, 1)
	require.Equal(t, "scores.submitted", h.activity.entries[0].Action)

	stored := h.scores.records[scoreKey(models.ScoreRecord{ParticipantID: 100, CriterionID: 1, ReviewID: 1, ProjectID: 5, CourseID: 1})]
	require.Equal(t, float64(8), stored.Score)
	require.Equal(t, "great work", stored.Comment)
	require.Equal(t, uint(10), stored.SubmittedBy)
}

func TestSubmitScoresResubmissionOverwrites(t *testing.T) {
	h := newEvaluationHarness(t, nil)
	faculty := Actor{ID: 10, Role: models.RoleFaculty}

	_, err := h.service.SubmitScores(context.Background(), evalKey(), faculty, submitPayload(8))
	require.NoError(t, err)

	_, err = h.service.SubmitScores(context.Background(), evalKey(), faculty, submitPayload(6))
	require.NoError(t, err)

	require.Len(t, h.scores.records, 4)
	stored := h.scores.records[scoreKey(models.ScoreRecord{ParticipantID: 100, CriterionID: 1, ReviewID: 1, ProjectID: 5, CourseID: 1})]
	require.Equal(t, float64(6), stored.Score)
}

func TestSubmitScoresRejectsWholeSubmission(t *testing.T) {
	h := newEvaluationHarness(t, nil)
	faculty := Actor{ID: 10, Role: models.RoleFaculty}

	// Criterion 2 has max score 5.
	payload := submitPayload(8)
	payload.Scores[1].CriterionScores[1].Score = 9

	_, err := h.service.SubmitScores(context.Background(), evalKey(), faculty, payload)

	var validation *ScoreValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, uint(101), validation.ParticipantID)
	require.Equal(t, uint(2), validation.CriterionID)

	require.Empty(t, h.scores.records)
	require.Empty(t, h.drafts.evicted)
}

func TestSubmitScoresRejectsUnknownParticipantAndCriterion(t *testing.T) {
	h := newEvaluationHarness(t, nil)
	faculty := Actor{ID: 10, Role: models.RoleFaculty}

	payload := submitPayload(8)
	payload.Scores[0].ParticipantID = 999

	var validation *ScoreValidationError
	_, err := h.service.SubmitScores(context.Background(), evalKey(), faculty, payload)
	require.ErrorAs(t, err, &validation)

	payload = submitPayload(8)
	payload.Scores[0].CriterionScores[0].CriterionID = 999

	_, err = h.service.SubmitScores(context.Background(), evalKey(), faculty, payload)
	require.ErrorAs(t, err, &validation)
	require.Empty(t, h.scores.records)
}

func TestSubmitScoresContextErrors(t *testing.T) {
	h := newEvaluationHarness(t, nil)
	faculty := Actor{ID: 10, Role: models.RoleFaculty}

	_, err := h.service.SubmitScores(context.Background(), repository.ScoreContext{ReviewID: 9, ProjectID: 5, CourseID: 1}, faculty, submitPayload(8))
	require.ErrorIs(t, err, ErrReviewNotFound)

	_, err = h.service.SubmitScores(context.Background(), repository.ScoreContext{ReviewID: 1, ProjectID: 9, CourseID: 1}, faculty, submitPayload(8))
	require.ErrorIs(t, err, ErrProjectNotFound)

	_, err = h.service.SubmitScores(context.Background(), repository.ScoreContext{ReviewID: 1, ProjectID: 6, CourseID: 1}, faculty, submitPayload(8))
	require.ErrorIs(t, err, ErrProjectNotInReview)

	// Course 3 does not belong to the project.
	_, err = h.service.SubmitScores(context.Background(), repository.ScoreContext{ReviewID: 1, ProjectID: 5, CourseID: 3}, faculty, submitPayload(8))
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestSubmitScoresAuthorization(t *testing.T) {
	h := newEvaluationHarness(t, nil)

	_, err := h.service.SubmitScores(context.Background(), evalKey(), Actor{ID: 20, Role: models.RoleStudent}, submitPayload(8))
	require.ErrorIs(t, err, ErrSubmitForbidden)

	// Faculty 11 does not teach course 1.
	_, err = h.service.SubmitScores(context.Background(), evalKey(), Actor{ID: 11, Role: models.RoleFaculty}, submitPayload(8))
	require.ErrorIs(t, err, ErrSubmitForbidden)

	_, err = h.service.SubmitScores(context.Background(), evalKey(), Actor{ID: 1, Role: models.RoleAdmin}, submitPayload(8))
	require.NoError(t, err)
}

func TestScoresReadBack(t *testing.T) {
	h := newEvaluationHarness(t, nil)
	faculty := Actor{ID: 10, Role: models.RoleFaculty}

	_, err := h.service.SubmitScores(context.Background(), evalKey(), faculty, submitPayload(8))
	require.NoError(t, err)

	responses, err := h.service.Scores(context.Background(), evalKey(), faculty)
	require.NoError(t, err)
	require.Len(t, responses, 4)
	require.Equal(t, uint(100), responses[0].ParticipantID)
	require.Equal(t, uint(1), responses[0].CriterionID)

	_, err = h.service.Scores(context.Background(), evalKey(), Actor{ID: 20, Role: models.RoleStudent})
	require.ErrorIs(t, err, ErrSubmitForbidden)
}

func TestProjectSummaryCountsAndCacheInvalidation(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	h := newEvaluationHarness(t, redisClient)
	faculty := Actor{ID: 10, Role: models.RoleFaculty}

	summary, err := h.service.ProjectSummary(context.Background(), 1, 5, nil)
	require.NoError(t, err)
	require.Len(t, summary.Courses, 2)
	require.False(t, summary.Courses[0].HasEvaluation)
	require.Equal(t, "Prof A", summary.Courses[0].Instructors[0].Name)

	_, err = h.service.SubmitScores(context.Background(), evalKey(), faculty, submitPayload(8))
	require.NoError(t, err)

	// The submission invalidated the cached summary; the fresh one must show
	// the new counts.
	summary, err = h.service.ProjectSummary(context.Background(), 1, 5, nil)
	require.NoError(t, err)
	require.True(t, summary.Courses[0].HasEvaluation)
	require.Equal(t, int64(4), summary.Courses[0].EvaluationCount)
	require.False(t, summary.Courses[1].HasEvaluation)

	filtered, err := h.service.ProjectSummary(context.Background(), 1, 5, []uint{2})
	require.NoError(t, err)
	require.Len(t, filtered.Courses, 1)
	require.Equal(t, uint(2), filtered.Courses[0].CourseID)

	_, err = h.service.ProjectSummary(context.Background(), 1, 9, nil)
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectInReviewPaths(t *testing.T) {
	semester := uint(3)
	otherSemester := uint(4)
	course := models.Course{ID: 1}
	batch := models.Batch{ID: 7}

	cases := []struct {
		name    string
		review  models.Review
		project models.Project
		want    bool
	}{
		{
			name:    "direct assignment",
			review:  models.Review{ID: 1, Projects: []models.Project{{ID: 5}}},
			project: models.Project{ID: 5},
			want:    true,
		},
		{
			name:    "via shared course",
			review:  models.Review{ID: 1, Courses: []models.Course{course}},
			project: models.Project{ID: 5, Courses: []models.Course{course}},
			want:    true,
		},
		{
			name:    "via shared batch",
			review:  models.Review{ID: 1, Batches: []models.Batch{batch}},
			project: models.Project{ID: 5, Batches: []models.Batch{batch}},
			want:    true,
		},
		{
			name:    "via shared semester",
			review:  models.Review{ID: 1, SemesterID: &semester},
			project: models.Project{ID: 5, SemesterID: &semester},
			want:    true,
		},
		{
			name:    "different semesters",
			review:  models.Review{ID: 1, SemesterID: &semester},
			project: models.Project{ID: 5, SemesterID: &otherSemester},
			want:    false,
		},
		{
			name:    "nil semester never matches",
			review:  models.Review{ID: 1, SemesterID: &semester},
			project: models.Project{ID: 5},
			want:    false,
		},
		{
			name:    "no overlap",
			review:  models.Review{ID: 1, Courses: []models.Course{course}},
			project: models.Project{ID: 5, Courses: []models.Course{{ID: 2}}},
			want:    false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, projectInReview(tc.review, tc.project))
		})
	}
}

func TestSubmitScoresValidatorRejectsEmptyPayload(t *testing.T) {
	h := newEvaluationHarness(t, nil)

	_, err := h.service.SubmitScores(context.Background(), evalKey(), Actor{ID: 1, Role: models.RoleAdmin}, dto.SubmitScoresRequest{})
	require.Error(t, err)

	var validationErrs validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrs))
}
