package models

import "time"

// ReviewPublication is one publication ledger fact: review results are visible for
// exactly the (review, course) pairs that have a row here. Absence of a row is the
// sole encoding of "not published".
type ReviewPublication struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ReviewID    uint      `gorm:"not null;uniqueIndex:idx_review_course_pub" json:"review_id"`
	CourseID    uint      `gorm:"not null;uniqueIndex:idx_review_course_pub" json:"course_id"`
	PublishedBy uint      `gorm:"not null" json:"published_by"`
	PublishedAt time.Time `gorm:"not null" json:"published_at"`
}
