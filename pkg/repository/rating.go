package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/umputun/readrec/pkg/domain"
)

// RatingRepository stores append-only article ratings
type RatingRepository struct {
	db *sqlx.DB
}

// NewRatingRepository creates a new rating repository
func NewRatingRepository(db *sqlx.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// AddRating appends a rating and sets its id
func (r *RatingRepository) AddRating(ctx context.Context, rating *domain.Rating) error {
	if rating.ID == "" {
		rating.ID = uuid.NewString()
	}
	if rating.Timestamp.IsZero() {
		rating.Timestamp = time.Now().UTC()
	}
	return withLockRetry(ctx, func() error {
		_, err := r.db.ExecContext(ctx,
			"INSERT INTO ratings (id, user_id, article_id, rating, rated_at) VALUES (?, ?, ?, ?, ?)",
			rating.ID, rating.UserID, rating.ArticleID, rating.Rating, rating.Timestamp)
		if err != nil {
			return fmt.Errorf("add rating: %w", err)
		}
		return nil
	})
}

// CountRatings returns the number of ratings of an article
func (r *RatingRepository) CountRatings(ctx context.Context, articleID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM ratings WHERE article_id = ?", articleID); err != nil {
		return 0, fmt.Errorf("count ratings: %w", err)
	}
	return count, nil
}
