package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
)

// CommentRepository defines persistence for video comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	ListByVideo(ctx context.Context, videoID, viewerID string, page models.PageRequest) ([]models.Comment, int64, error)
	Update(ctx context.Context, ownerID, id, content string) (models.Comment, error)
	Delete(ctx context.Context, ownerID, id string) error
}

const commentColumns = `id, video_id, owner_id, content, created_at, updated_at`

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// visibleVideoClause matches a published video or one owned by the viewer.
const visibleVideoClause = `(is_published OR owner_id = $2)`

// Create stores a comment. A missing video, or an unpublished one the author does
// not own, surfaces as not found.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	tag, err := r.pool.Exec(ctx, `
        INSERT INTO comments (id, video_id, owner_id, content, created_at, updated_at)
        SELECT $1::uuid, $2::uuid, $3::uuid, $4::text, $5::timestamptz, $6::timestamptz
        WHERE EXISTS (SELECT 1 FROM videos WHERE id = $2::uuid AND (is_published OR owner_id = $3::uuid))
    `, comment.ID, comment.VideoID, comment.OwnerID, comment.Content, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		return translate(err, "insert comment", notFound("video"), nil)
	}
	if tag.RowsAffected() == 0 {
		return notFound("video")
	}
	return nil
}

// ListByVideo returns one page of a video's comments, newest first. Comments on an
// unpublished video are only listed for its owner.
func (r *PostgresCommentRepository) ListByVideo(ctx context.Context, videoID, viewerID string, page models.PageRequest) ([]models.Comment, int64, error) {
	var visible bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1 AND `+visibleVideoClause+`)`, videoID, viewerID).Scan(&visible)
	if err != nil {
		return nil, 0, fmt.Errorf("check comment video: %w", err)
	}
	if !visible {
		return nil, 0, notFound("video")
	}

	total, err := countRows(ctx, r.pool, "count comments", `SELECT COUNT(*) FROM comments WHERE video_id = $1`, videoID)
	if err != nil {
		return nil, 0, err
	}

	limit, offset := pageArgs(page)
	rows, err := r.pool.Query(ctx, `
        SELECT `+commentColumns+`
        FROM comments
        WHERE video_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2 OFFSET $3
    `, videoID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.VideoID, &c.OwnerID, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, total, nil
}

// Update rewrites the content of a comment authored by ownerID.
func (r *PostgresCommentRepository) Update(ctx context.Context, ownerID, id, content string) (models.Comment, error) {
	row := r.pool.QueryRow(ctx, `
        UPDATE comments
        SET content = $3, updated_at = NOW()
        WHERE id = $1 AND owner_id = $2
        RETURNING `+commentColumns, id, ownerID, content)

	var c models.Comment
	if err := row.Scan(&c.ID, &c.VideoID, &c.OwnerID, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.Comment{}, translate(err, "update comment", notFoundOrUnauthorized("comment"), nil)
	}
	return c, nil
}

// Delete removes a comment authored by ownerID together with its likes.
func (r *PostgresCommentRepository) Delete(ctx context.Context, ownerID, id string) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM comments WHERE id = $1 AND owner_id = $2`, id, ownerID)
		if err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return notFoundOrUnauthorized("comment")
		}
		if _, err := tx.Exec(ctx, `DELETE FROM likes WHERE target_kind = 'comment' AND target_id = $1`, id); err != nil {
			return fmt.Errorf("delete comment likes: %w", err)
		}
		return nil
	})
}
