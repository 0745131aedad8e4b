package models

import "time"

// Rubric is the scoring template attached to a review.
type Rubric struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Name      string      `gorm:"size:255;not null" json:"name"`
	Criteria  []Criterion `json:"criteria,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Criterion is a single scored dimension within a rubric. Common criteria apply to
// every course of the review; others are course specific.
type Criterion struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RubricID    uint      `gorm:"not null;index" json:"rubric_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	MaxScore    float64   `gorm:"not null" json:"max_score"`
	IsCommon    bool      `gorm:"not null;default:false" json:"is_common"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Review defines a scoring period applying one rubric across courses, projects
// and batches.
type Review struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	RubricID   uint      `gorm:"not null;index" json:"rubric_id"`
	SemesterID *uint     `gorm:"index" json:"semester_id"`
	CreatedBy  uint      `gorm:"not null" json:"created_by"`
	Rubric     Rubric    `json:"rubric,omitempty"`
	Courses    []Course  `gorm:"many2many:review_courses" json:"courses,omitempty"`
	Projects   []Project `gorm:"many2many:review_projects" json:"projects,omitempty"`
	Batches    []Batch   `gorm:"many2many:review_batches" json:"batches,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CourseIDs returns the identifiers of the review's associated courses.
func (r Review) CourseIDs() []uint {
	ids := make([]uint, 0, len(r.Courses))
	for _, course := range r.Courses {
		ids = append(ids, course.ID)
	}
	return ids
}
