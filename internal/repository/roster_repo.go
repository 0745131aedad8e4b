package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/revia-go-api/internal/models"
)

// RosterRepository resolves instructors, enrolments and team membership. It is
// the only component that knows how batches expand into course participants.
type RosterRepository interface {
	InstructorsOf(ctx context.Context, courseID uint) ([]models.User, error)
	ParticipantsOf(ctx context.Context, courseID uint) ([]models.User, error)
	TeamMembersOf(ctx context.Context, projectID uint) ([]models.User, error)
	CourseIDsTaughtBy(ctx context.Context, userID uint) ([]uint, error)
	CourseIDsEnrolledBy(ctx context.Context, userID uint) ([]uint, error)
}

type rosterRepository struct {
	db *gorm.DB
}

// NewRosterRepository instantiates the repository.
func NewRosterRepository(db *gorm.DB) RosterRepository {
	return &rosterRepository{db: db}
}

func (r *rosterRepository) InstructorsOf(ctx context.Context, courseID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN course_instructors ci ON ci.user_id = users.id").
		Where("ci.course_id = ?", courseID).
		Order("users.name").
		Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

// ParticipantsOf returns the union of directly enrolled students and students
// enrolled through a batch attached to the course.
func (r *rosterRepository) ParticipantsOf(ctx context.Context, courseID uint) ([]models.User, error) {
	var direct []models.User
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN course_students cs ON cs.user_id = users.id").
		Where("cs.course_id = ?", courseID).
		Find(&direct).Error; err != nil {
		return nil, err
	}

	var viaBatch []models.User
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN batch_students bs ON bs.user_id = users.id").
		Joins("JOIN batch_courses bc ON bc.batch_id = bs.batch_id").
		Where("bc.course_id = ?", courseID).
		Find(&viaBatch).Error; err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{}, len(direct)+len(viaBatch))
	participants := make([]models.User, 0, len(direct)+len(viaBatch))
	for _, user := range append(direct, viaBatch...) {
		if _, ok := seen[user.ID]; ok {
			continue
		}
		seen[user.ID] = struct{}{}
		participants = append(participants, user)
	}

	return participants, nil
}

func (r *rosterRepository) TeamMembersOf(ctx context.Context, projectID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN project_members pm ON pm.user_id = users.id").
		Where("pm.project_id = ?", projectID).
		Order("users.id").
		Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

func (r *rosterRepository) CourseIDsTaughtBy(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Table("course_instructors").
		Where("user_id = ?", userID).
		Pluck("course_id", &ids).Error; err != nil {
		return nil, err
	}

	return ids, nil
}

// CourseIDsEnrolledBy returns the courses a student participates in, whether
// enrolled directly or through a batch.
func (r *rosterRepository) CourseIDsEnrolledBy(ctx context.Context, userID uint) ([]uint, error) {
	var direct []uint
	if err := r.db.WithContext(ctx).
		Table("course_students").
		Where("user_id = ?", userID).
		Pluck("course_id", &direct).Error; err != nil {
		return nil, err
	}

	var viaBatch []uint
	if err := r.db.WithContext(ctx).
		Table("batch_courses").
		Joins("JOIN batch_students bs ON bs.batch_id = batch_courses.batch_id").
		Where("bs.user_id = ?", userID).
		Pluck("batch_courses.course_id", &viaBatch).Error; err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{}, len(direct)+len(viaBatch))
	ids := make([]uint, 0, len(direct)+len(viaBatch))
	for _, id := range append(direct, viaBatch...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids, nil
}
