package models

import "time"

// Role constants recognised by the review workflow.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleFaculty = "faculty"
	RoleStudent = "student"
)

// User represents an account known to the identity source.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:32;not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsStaff reports whether the user holds an administrative role.
func (u User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager
}

// Course groups instructors and enrolled students for one taught unit.
type Course struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Code        string    `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Instructors []User    `gorm:"many2many:course_instructors" json:"instructors,omitempty"`
	Students    []User    `gorm:"many2many:course_students" json:"students,omitempty"`
	Batches     []Batch   `gorm:"many2many:batch_courses" json:"batches,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Batch is a section of students enrolled into courses as a unit.
type Batch struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Students  []User    `gorm:"many2many:batch_students" json:"students,omitempty"`
	Courses   []Course  `gorm:"many2many:batch_courses" json:"courses,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Semester bounds an academic term.
type Semester struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Project is a graded team deliverable offered within one or more courses.
type Project struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	SemesterID *uint     `gorm:"index" json:"semester_id"`
	Courses    []Course  `gorm:"many2many:project_courses" json:"courses,omitempty"`
	Batches    []Batch   `gorm:"many2many:project_batches" json:"batches,omitempty"`
	Members    []User    `gorm:"many2many:project_members" json:"members,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
