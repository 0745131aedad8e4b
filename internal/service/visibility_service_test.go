package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/revia-go-api/internal/models"
)

func visibilityFixture() (*fakeReviewRepo, *fakePublicationRepo, *fakeRosterRepo) {
	courseA := models.Course{ID: 1, Name: "Distributed Systems"}
	courseB := models.Course{ID: 2, Name: "Databases"}

	reviews := &fakeReviewRepo{reviews: map[uint]models.Review{
		1: {ID: 1, Name: "Review 1", RubricID: 1, Courses: []models.Course{courseA, courseB}},
		2: {ID: 2, Name: "Orphan Review", RubricID: 1},
	}}

	roster := &fakeRosterRepo{
		taught:   map[uint][]uint{10: {1}},
		enrolled: map[uint][]uint{20: {2}},
	}

	return reviews, &fakePublicationRepo{}, roster
}

func TestIsVisibleStaffRequiresEveryCourse(t *testing.T) {
	reviews, publications, roster := visibilityFixture()
	svc := NewVisibilityService(reviews, publications, roster, nil, time.Minute, testLogger())
	admin := Actor{ID: 1, Role: models.RoleAdmin}

	visible, err := svc.IsVisible(context.Background(), 1, admin)
	require.NoError(t, err)
	require.False(t, visible)

	publications.facts = append(publications.facts, models.ReviewPublication{ReviewID: 1, CourseID: 1, PublishedBy: 1, PublishedAt: time.Now()})

	visible, err = svc.IsVisible(context.Background(), 1, admin)
	require.NoError(t, err)
	require.False(t, visible)

	publications.facts = append(publications.facts, models.ReviewPublication{ReviewID: 1, CourseID: 2, PublishedBy: 1, PublishedAt: time.Now()})

	visible, err = svc.IsVisible(context.Background(), 1, admin)
	require.NoError(t, err)
	require.True(t, visible)
}

func TestIsVisibleZeroCourseReviewHiddenFromStaff(t *testing.T) {
	reviews, publications, roster := visibilityFixture()
	svc := NewVisibilityService(reviews, publications, roster, nil, time.Minute, testLogger())

	visible, err := svc.IsVisible(context.Background(), 2, Actor{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)
	require.False(t, visible)
}

func TestIsVisibleScopedRoles(t *testing.T) {
	reviews, publications, roster := visibilityFixture()
	svc := NewVisibilityService(reviews, publications, roster, nil, time.Minute, testLogger())

	faculty := Actor{ID: 10, Role: models.RoleFaculty}
	student := Actor{ID: 20, Role: models.RoleStudent}

	// Only course 2 is published: the faculty member teaches course 1, the
	// student is enrolled in course 2.
	publications.facts = []models.ReviewPublication{{ReviewID: 1, CourseID: 2, PublishedBy: 1, PublishedAt: time.Now()}}

	visible, err := svc.IsVisible(context.Background(), 1, faculty)
	require.NoError(t, err)
	require.False(t, visible)

	visible, err = svc.IsVisible(context.Background(), 1, student)
	require.NoError(t, err)
	require.True(t, visible)

	publications.facts = append(publications.facts, models.ReviewPublication{ReviewID: 1, CourseID: 1, PublishedBy: 1, PublishedAt: time.Now()})

	visible, err = svc.IsVisible(context.Background(), 1, faculty)
	require.NoError(t, err)
	require.True(t, visible)
}

func TestIsVisibleUnknownReview(t *testing.T) {
	reviews, publications, roster := visibilityFixture()
	svc := NewVisibilityService(reviews, publications, roster, nil, time.Minute, testLogger())

	_, err := svc.IsVisible(context.Background(), 99, Actor{ID: 1, Role: models.RoleAdmin})
	require.ErrorIs(t, err, ErrReviewNotFound)
}

func TestVisibleReviewsBatchesLedgerLookup(t *testing.T) {
	reviews, publications, roster := visibilityFixture()
	publications.facts = []models.ReviewPublication{
		{ReviewID: 1, CourseID: 1, PublishedBy: 1, PublishedAt: time.Now()},
		{ReviewID: 1, CourseID: 2, PublishedBy: 1, PublishedAt: time.Now()},
	}
	svc := NewVisibilityService(reviews, publications, roster, nil, time.Minute, testLogger())

	items, err := svc.VisibleReviews(context.Background(), Actor{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, uint(1), items[0].ReviewID)

	require.Equal(t, 1, publications.listManyCalls)
	require.Equal(t, 0, publications.listCalls)
}

func TestVisibleReviewsStudentScope(t *testing.T) {
	reviews, publications, roster := visibilityFixture()
	publications.facts = []models.ReviewPublication{{ReviewID: 1, CourseID: 1, PublishedBy: 1, PublishedAt: time.Now()}}
	svc := NewVisibilityService(reviews, publications, roster, nil, time.Minute, testLogger())

	// Course 1 is published but the student is enrolled in course 2 only.
	items, err := svc.VisibleReviews(context.Background(), Actor{ID: 20, Role: models.RoleStudent})
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestPublicationStatusScopedPublishDate(t *testing.T) {
	reviews, publications, roster := visibilityFixture()
	earlier := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	later := earlier.Add(48 * time.Hour)
	publications.facts = []models.ReviewPublication{
		{ReviewID: 1, CourseID: 1, PublishedBy: 1, PublishedAt: later},
		{ReviewID: 1, CourseID: 2, PublishedBy: 1, PublishedAt: earlier},
	}
	svc := NewVisibilityService(reviews, publications, roster, nil, time.Minute, testLogger())

	status, err := svc.PublicationStatus(context.Background(), 1, Actor{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)
	require.True(t, status.IsPublished)
	require.True(t, status.CanPublish)
	require.NotNil(t, status.PublishDate)
	require.Equal(t, earlier, *status.PublishDate)

	// The faculty member teaches course 1 only, so their publish date is the
	// later fact.
	status, err = svc.PublicationStatus(context.Background(), 1, Actor{ID: 10, Role: models.RoleFaculty})
	require.NoError(t, err)
	require.True(t, status.IsPublished)
	require.True(t, status.CanPublish)
	require.NotNil(t, status.PublishDate)
	require.Equal(t, later, *status.PublishDate)

	status, err = svc.PublicationStatus(context.Background(), 1, Actor{ID: 20, Role: models.RoleStudent})
	require.NoError(t, err)
	require.False(t, status.CanPublish)
}

func TestPublishableCoursesByRole(t *testing.T) {
	reviews, publications, roster := visibilityFixture()
	svc := NewVisibilityService(reviews, publications, roster, nil, time.Minute, testLogger())

	review := reviews.reviews[1]

	courses, err := svc.PublishableCourses(context.Background(), review, Actor{ID: 1, Role: models.RoleManager})
	require.NoError(t, err)
	require.Len(t, courses, 2)

	courses, err = svc.PublishableCourses(context.Background(), review, Actor{ID: 10, Role: models.RoleFaculty})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.Equal(t, uint(1), courses[0].ID)

	courses, err = svc.PublishableCourses(context.Background(), review, Actor{ID: 20, Role: models.RoleStudent})
	require.NoError(t, err)
	require.Empty(t, courses)
}
