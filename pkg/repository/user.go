package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/readrec/pkg/domain"
)

// UserRepository handles user and preference records
type UserRepository struct {
	db *sqlx.DB
}

// userSQL represents a user row, preferences are stored flat
type userSQL struct {
	ID                string    `db:"id"`
	Email             string    `db:"email"`
	Username          string    `db:"username"`
	UserType          string    `db:"user_type"`
	HasPreferences    bool      `db:"has_preferences"`
	PreferredCategory string    `db:"preferred_category"`
	PreferredTone     string    `db:"preferred_tone"`
	PreferredLength   string    `db:"preferred_length"`
	WantsTrending     bool      `db:"wants_trending"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetUser returns the user with embedded preferences, domain.ErrNotFound if missing
func (r *UserRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var u userSQL
	err := r.db.GetContext(ctx, &u, "SELECT * FROM users WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u.toDomain(), nil
}

// UpsertUser stores the user merging with the existing record.
// Empty username falls back to the email, empty user type keeps the stored one
// and nil preferences keep stored preferences.
func (r *UserRepository) UpsertUser(ctx context.Context, user domain.User) error {
	row := userSQL{
		ID:            user.ID,
		Email:         user.Email,
		Username:      user.Username,
		UserType:      user.UserType,
		WantsTrending: true,
	}
	if row.Username == "" {
		row.Username = user.Email
	}
	if p := user.Preferences; p != nil {
		row.HasPreferences = true
		row.PreferredCategory = p.PreferredCategory
		row.PreferredTone = p.PreferredTone
		row.PreferredLength = p.PreferredLength
		row.WantsTrending = p.WantsTrending
	}

	query := `
		INSERT INTO users (
			id, email, username, user_type, has_preferences,
			preferred_category, preferred_tone, preferred_length, wants_trending, updated_at
		) VALUES (
			:id, :email, :username, :user_type, :has_preferences,
			:preferred_category, :preferred_tone, :preferred_length, :wants_trending, datetime('now')
		)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			username = excluded.username,
			user_type = CASE WHEN excluded.user_type != '' THEN excluded.user_type ELSE users.user_type END,
			has_preferences = users.has_preferences OR excluded.has_preferences,
			preferred_category = CASE WHEN excluded.has_preferences THEN excluded.preferred_category ELSE users.preferred_category END,
			preferred_tone = CASE WHEN excluded.has_preferences THEN excluded.preferred_tone ELSE users.preferred_tone END,
			preferred_length = CASE WHEN excluded.has_preferences THEN excluded.preferred_length ELSE users.preferred_length END,
			wants_trending = CASE WHEN excluded.has_preferences THEN excluded.wants_trending ELSE users.wants_trending END,
			updated_at = datetime('now')
	`
	return withLockRetry(ctx, func() error {
		if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}
		return nil
	})
}

func (u *userSQL) toDomain() *domain.User {
	user := &domain.User{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		UserType:  u.UserType,
		UpdatedAt: u.UpdatedAt,
	}
	if u.HasPreferences {
		user.Preferences = &domain.Preferences{
			PreferredCategory: u.PreferredCategory,
			PreferredTone:     u.PreferredTone,
			PreferredLength:   u.PreferredLength,
			WantsTrending:     u.WantsTrending,
		}
	}
	return user
}
