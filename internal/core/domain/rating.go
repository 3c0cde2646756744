package domain

import (
	"strings"
	"time"
)

const (
	MinRating       = 1
	MaxRating       = 5
	MaxReviewLength = 1000
)

// Rating is a review left by a volunteer on an opportunity. The backend keeps at
// most one per (PostID, ReviewerID).
type Rating struct {
	ID           string
	PostID       string
	ReviewerID   string
	ReviewerName string
	Rating       int
	Review       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RatingDraft struct {
	PostID string
	Rating int
	Review string
}

func (d RatingDraft) Validate() error {
	if strings.TrimSpace(d.PostID) == "" {
		return Invalid("post id is required")
	}
	if d.Rating < MinRating || d.Rating > MaxRating {
		return Invalid("rating must be between %d and %d", MinRating, MaxRating)
	}
	if len([]rune(d.Review)) > MaxReviewLength {
		return Invalid("review must be at most %d characters", MaxReviewLength)
	}
	return nil
}

// RatingSummary aggregates the ratings of one post.
type RatingSummary struct {
	Count   int
	Average float64
}

func Summarize(ratings []Rating) RatingSummary {
	if len(ratings) == 0 {
		return RatingSummary{}
	}
	total := 0
	for _, r := range ratings {
		total += r.Rating
	}
	return RatingSummary{Count: len(ratings), Average: float64(total) / float64(len(ratings))}
}
