package service

import (
	"strings"

	"github.com/noah-isme/revia-go-api/internal/models"
)

// Actor is the authenticated user on whose behalf an operation runs. The
// identity source (JWT middleware) is trusted to have resolved id and role.
type Actor struct {
	ID   uint
	Role string
}

// Capability describes what a role may do within the review workflow. It is the
// single place role rules live; visibility, publication, drafting and score
// submission all consult it instead of re-deriving role logic.
type Capability interface {
	// CanViewAll reports whether the role sees a review only when it is fully
	// published across every course (admin view) rather than per enrolment.
	CanViewAll() bool
	// CanSubmit reports whether the role may submit scores at all.
	CanSubmit() bool
	// PublishableCourses filters the review's courses down to those the actor
	// may publish or unpublish. taughtIDs is the set of course ids the actor
	// instructs; roles with global scope ignore it.
	PublishableCourses(reviewCourses []models.Course, taughtIDs map[uint]struct{}) []models.Course
}

type staffCapability struct{}

func (staffCapability) CanViewAll() bool { return true }
func (staffCapability) CanSubmit() bool  { return true }

func (staffCapability) PublishableCourses(reviewCourses []models.Course, _ map[uint]struct{}) []models.Course {
	return reviewCourses
}

type facultyCapability struct{}

func (facultyCapability) CanViewAll() bool { return false }
func (facultyCapability) CanSubmit() bool  { return true }

func (facultyCapability) PublishableCourses(reviewCourses []models.Course, taughtIDs map[uint]struct{}) []models.Course {
	courses := make([]models.Course, 0, len(reviewCourses))
	for _, course := range reviewCourses {
		if _, ok := taughtIDs[course.ID]; ok {
			courses = append(courses, course)
		}
	}
	return courses
}

type noneCapability struct{}

func (noneCapability) CanViewAll() bool { return false }
func (noneCapability) CanSubmit() bool  { return false }

func (noneCapability) PublishableCourses(_ []models.Course, _ map[uint]struct{}) []models.Course {
	return nil
}

// CapabilityFor resolves the capability set for a role. Unknown roles get the
// empty capability.
func CapabilityFor(role string) Capability {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case models.RoleAdmin, models.RoleManager:
		return staffCapability{}
	case models.RoleFaculty:
		return facultyCapability{}
	default:
		return noneCapability{}
	}
}
