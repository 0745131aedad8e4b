package service

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/revia-go-api/internal/dto"
	"github.com/noah-isme/revia-go-api/internal/models"
	"github.com/noah-isme/revia-go-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type fakeReviewRepo struct {
	reviews map[uint]models.Review
}

func (f *fakeReviewRepo) GetByID(ctx context.Context, id uint) (models.Review, error) {
	review, ok := f.reviews[id]
	if !ok {
		return models.Review{}, gorm.ErrRecordNotFound
	}
	return review, nil
}

func (f *fakeReviewRepo) List(ctx context.Context) ([]models.Review, error) {
	ids := make([]int, 0, len(f.reviews))
	for id := range f.reviews {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	reviews := make([]models.Review, 0, len(ids))
	for _, id := range ids {
		reviews = append(reviews, f.reviews[uint(id)])
	}
	return reviews, nil
}

type fakeProjectRepo struct {
	projects map[uint]models.Project
}

func (f *fakeProjectRepo) GetByID(ctx context.Context, id uint) (models.Project, error) {
	project, ok := f.projects[id]
	if !ok {
		return models.Project{}, gorm.ErrRecordNotFound
	}
	return project, nil
}

type fakePublicationRepo struct {
	facts         []models.ReviewPublication
	listCalls     int
	listManyCalls int
}

func (f *fakePublicationRepo) ListByReviewID(ctx context.Context, reviewID uint) ([]models.ReviewPublication, error) {
	f.listCalls++
	var facts []models.ReviewPublication
	for _, fact := range f.facts {
		if fact.ReviewID == reviewID {
			facts = append(facts, fact)
		}
	}
	return facts, nil
}

func (f *fakePublicationRepo) ListByReviewIDs(ctx context.Context, reviewIDs []uint) (map[uint][]models.ReviewPublication, error) {
	f.listManyCalls++
	wanted := make(map[uint]struct{}, len(reviewIDs))
	for _, id := range reviewIDs {
		wanted[id] = struct{}{}
	}

	result := make(map[uint][]models.ReviewPublication)
	for _, fact := range f.facts {
		if _, ok := wanted[fact.ReviewID]; ok {
			result[fact.ReviewID] = append(result[fact.ReviewID], fact)
		}
	}
	return result, nil
}

func (f *fakePublicationRepo) CreateBatch(ctx context.Context, facts []models.ReviewPublication) error {
	for _, fact := range facts {
		exists := false
		for _, existing := range f.facts {
			if existing.ReviewID == fact.ReviewID && existing.CourseID == fact.CourseID {
				exists = true
				break
			}
		}
		if !exists {
			f.facts = append(f.facts, fact)
		}
	}
	return nil
}

func (f *fakePublicationRepo) DeleteByReviewAndCourses(ctx context.Context, reviewID uint, courseIDs []uint) error {
	wanted := make(map[uint]struct{}, len(courseIDs))
	for _, id := range courseIDs {
		wanted[id] = struct{}{}
	}

	remaining := f.facts[:0]
	for _, fact := range f.facts {
		if fact.ReviewID == reviewID {
			if _, ok := wanted[fact.CourseID]; ok {
				continue
			}
		}
		remaining = append(remaining, fact)
	}
	f.facts = remaining
	return nil
}

type fakeRosterRepo struct {
	instructors  map[uint][]models.User
	participants map[uint][]models.User
	members      map[uint][]models.User
	taught       map[uint][]uint
	enrolled     map[uint][]uint
}

func (f *fakeRosterRepo) InstructorsOf(ctx context.Context, courseID uint) ([]models.User, error) {
	return f.instructors[courseID], nil
}

func (f *fakeRosterRepo) ParticipantsOf(ctx context.Context, courseID uint) ([]models.User, error) {
	return f.participants[courseID], nil
}

func (f *fakeRosterRepo) TeamMembersOf(ctx context.Context, projectID uint) ([]models.User, error) {
	return f.members[projectID], nil
}

func (f *fakeRosterRepo) CourseIDsTaughtBy(ctx context.Context, userID uint) ([]uint, error) {
	return f.taught[userID], nil
}

func (f *fakeRosterRepo) CourseIDsEnrolledBy(ctx context.Context, userID uint) ([]uint, error) {
	return f.enrolled[userID], nil
}

type fakeRubricRepo struct {
	criteria map[uint][]models.Criterion
}

func (f *fakeRubricRepo) CriteriaOf(ctx context.Context, rubricID uint) ([]models.Criterion, error) {
	return f.criteria[rubricID], nil
}

func (f *fakeRubricRepo) CountCriteria(ctx context.Context, rubricID uint) (int64, error) {
	return int64(len(f.criteria[rubricID])), nil
}

type fakeScoreRepo struct {
	records map[string]models.ScoreRecord
}

func newFakeScoreRepo() *fakeScoreRepo {
	return &fakeScoreRepo{records: make(map[string]models.ScoreRecord)}
}

func scoreKey(record models.ScoreRecord) string {
	return fmt.Sprintf("%d:%d:%d:%d:%d", record.ParticipantID, record.CriterionID, record.ReviewID, record.ProjectID, record.CourseID)
}

func (f *fakeScoreRepo) CountByContext(ctx context.Context, key repository.ScoreContext) (int64, error) {
	var count int64
	for _, record := range f.records {
		if record.ReviewID == key.ReviewID && record.ProjectID == key.ProjectID && record.CourseID == key.CourseID {
			count++
		}
	}
	return count, nil
}

func (f *fakeScoreRepo) CountByContexts(ctx context.Context, reviewID, projectID uint, courseIDs []uint) (map[uint]int64, error) {
	result := make(map[uint]int64)
	for _, record := range f.records {
		if record.ReviewID != reviewID || record.ProjectID != projectID {
			continue
		}
		for _, courseID := range courseIDs {
			if record.CourseID == courseID {
				result[courseID]++
			}
		}
	}
	return result, nil
}

func (f *fakeScoreRepo) ListByContext(ctx context.Context, key repository.ScoreContext) ([]models.ScoreRecord, error) {
	var records []models.ScoreRecord
	for _, record := range f.records {
		if record.ReviewID == key.ReviewID && record.ProjectID == key.ProjectID && record.CourseID == key.CourseID {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].ParticipantID != records[j].ParticipantID {
			return records[i].ParticipantID < records[j].ParticipantID
		}
		return records[i].CriterionID < records[j].CriterionID
	})
	return records, nil
}

func (f *fakeScoreRepo) UpsertBatch(ctx context.Context, records []models.ScoreRecord) error {
	for _, record := range records {
		f.records[scoreKey(record)] = record
	}
	return nil
}

type fakeDraftStore struct {
	evicted []DraftKey
}

func (f *fakeDraftStore) Evict(ctx context.Context, key DraftKey) error {
	f.evicted = append(f.evicted, key)
	return nil
}

type fakeActivityRecorder struct {
	entries []ActivityEntry
}

func (f *fakeActivityRecorder) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	f.entries = append(f.entries, entry)
	return dto.ActivityResponse{}, nil
}
