package domain

import "time"

// Rating is an append-only user score for an article
type Rating struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"userId" validate:"required"`
	ArticleID string    `json:"articleId" validate:"required"`
	Rating    int       `json:"rating" validate:"min=1,max=5"`
	Timestamp time.Time `json:"timestamp"`
}
