package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/readrec/pkg/domain"
)

// ArticleRepository handles article-related database operations
type ArticleRepository struct {
	db *sqlx.DB
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *sqlx.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// UpsertArticles inserts articles or replaces existing ones with the same id
func (r *ArticleRepository) UpsertArticles(ctx context.Context, articles []domain.Article) error {
	if len(articles) == 0 {
		return nil
	}
	query := `
		INSERT INTO articles (
			id, title, summary, content, category, image_url, link,
			tone, length, trending, published
		) VALUES (
			:id, :title, :summary, :content, :category, :image_url, :link,
			:tone, :length, :trending, :published
		)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			summary = excluded.summary,
			content = CASE WHEN excluded.content != '' THEN excluded.content ELSE articles.content END,
			category = excluded.category,
			image_url = excluded.image_url,
			link = excluded.link,
			tone = excluded.tone,
			length = excluded.length,
			trending = excluded.trending,
			published = excluded.published
	`
	return withLockRetry(ctx, func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

		for _, a := range articles {
			a.Category = strings.ToLower(strings.TrimSpace(a.Category))
			if _, err := tx.NamedExecContext(ctx, query, a); err != nil {
				return fmt.Errorf("upsert article %s: %w", a.ID, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit articles: %w", err)
		}
		return nil
	})
}

// GetArticles returns articles newest first, filtered by category if not empty.
// Category match is case-insensitive.
func (r *ArticleRepository) GetArticles(ctx context.Context, category string, limit int) ([]domain.Article, error) {
	query := `
		SELECT id, title, summary, content, category, image_url, link,
		       tone, length, trending, published
		FROM articles
	`
	args := []any{}
	if c := strings.ToLower(strings.TrimSpace(category)); c != "" {
		query += " WHERE category = ?"
		args = append(args, c)
	}
	query += " ORDER BY published DESC, id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	articles := []domain.Article{}
	if err := r.db.SelectContext(ctx, &articles, query, args...); err != nil {
		return nil, fmt.Errorf("get articles: %w", err)
	}
	return articles, nil
}

// GetArticle retrieves an article by id
func (r *ArticleRepository) GetArticle(ctx context.Context, id string) (*domain.Article, error) {
	var a domain.Article
	err := r.db.GetContext(ctx, &a, `
		SELECT id, title, summary, content, category, image_url, link,
		       tone, length, trending, published
		FROM articles WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get article %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	return &a, nil
}
