package dto

import (
	"time"

	"github.com/noah-isme/revia-go-api/internal/models"
)

// ReviewPublicationStatus describes the publication state of a review as seen by
// the acting user.
type ReviewPublicationStatus struct {
	ReviewID    uint       `json:"reviewId"`
	ReviewName  string     `json:"reviewName"`
	IsPublished bool       `json:"isPublished"`
	PublishDate *time.Time `json:"publishDate"`
	CanPublish  bool       `json:"canPublish"`
}

// ReviewFeedItem is one entry of the visible-review feed.
type ReviewFeedItem struct {
	ReviewID    uint                    `json:"reviewId"`
	Name        string                  `json:"name"`
	StartDate   time.Time               `json:"startDate"`
	EndDate     time.Time               `json:"endDate"`
	RubricID    uint                    `json:"rubricId"`
	CourseIDs   []uint                  `json:"courseIds"`
	Publication ReviewPublicationStatus `json:"publication"`
}

// NewReviewFeedItem builds a feed entry from a review and its status.
func NewReviewFeedItem(review models.Review, status ReviewPublicationStatus) ReviewFeedItem {
	return ReviewFeedItem{
		ReviewID:    review.ID,
		Name:        review.Name,
		StartDate:   review.StartDate,
		EndDate:     review.EndDate,
		RubricID:    review.RubricID,
		CourseIDs:   review.CourseIDs(),
		Publication: status,
	}
}
