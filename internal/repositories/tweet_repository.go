package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
)

// TweetRepository defines persistence for channel tweets.
type TweetRepository interface {
	Create(ctx context.Context, tweet models.Tweet) error
	ListByOwner(ctx context.Context, ownerID string, page models.PageRequest) ([]models.Tweet, int64, error)
	Update(ctx context.Context, ownerID, id, content string) (models.Tweet, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// PostgresTweetRepository provides PostgreSQL-backed persistence for tweets.
type PostgresTweetRepository struct {
	pool db.Pool
}

// NewPostgresTweetRepository constructs a tweet repository backed by PostgreSQL.
func NewPostgresTweetRepository(pool db.Pool) *PostgresTweetRepository {
	return &PostgresTweetRepository{pool: pool}
}

// Create stores a tweet.
func (r *PostgresTweetRepository) Create(ctx context.Context, tweet models.Tweet) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO tweets (id, owner_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
    `, tweet.ID, tweet.OwnerID, tweet.Content, tweet.CreatedAt, tweet.UpdatedAt)
	return translate(err, "insert tweet", notFound("user"), nil)
}

// ListByOwner returns one page of a user's tweets, newest first.
func (r *PostgresTweetRepository) ListByOwner(ctx context.Context, ownerID string, page models.PageRequest) ([]models.Tweet, int64, error) {
	total, err := countRows(ctx, r.pool, "count tweets", `SELECT COUNT(*) FROM tweets WHERE owner_id = $1`, ownerID)
	if err != nil {
		return nil, 0, err
	}

	limit, offset := pageArgs(page)
	rows, err := r.pool.Query(ctx, `
        SELECT id, owner_id, content, created_at, updated_at
        FROM tweets
        WHERE owner_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2 OFFSET $3
    `, ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query tweets: %w", err)
	}
	defer rows.Close()

	tweets := []models.Tweet{}
	for rows.Next() {
		var t models.Tweet
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Content, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan tweet: %w", err)
		}
		tweets = append(tweets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate tweets: %w", err)
	}

	return tweets, total, nil
}

// Update rewrites the content of a tweet authored by ownerID.
func (r *PostgresTweetRepository) Update(ctx context.Context, ownerID, id, content string) (models.Tweet, error) {
	row := r.pool.QueryRow(ctx, `
        UPDATE tweets
        SET content = $3, updated_at = NOW()
        WHERE id = $1 AND owner_id = $2
        RETURNING id, owner_id, content, created_at, updated_at
    `, id, ownerID, content)

	var t models.Tweet
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Content, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return models.Tweet{}, translate(err, "update tweet", notFoundOrUnauthorized("tweet"), nil)
	}
	return t, nil
}

// Delete removes a tweet authored by ownerID together with its likes.
func (r *PostgresTweetRepository) Delete(ctx context.Context, ownerID, id string) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM tweets WHERE id = $1 AND owner_id = $2`, id, ownerID)
		if err != nil {
			return fmt.Errorf("delete tweet: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return notFoundOrUnauthorized("tweet")
		}
		if _, err := tx.Exec(ctx, `DELETE FROM likes WHERE target_kind = 'tweet' AND target_id = $1`, id); err != nil {
			return fmt.Errorf("delete tweet likes: %w", err)
		}
		return nil
	})
}
