package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/errs"
	"github.com/videotube/backend/internal/models"
)

// LikeRepository defines persistence for likes on videos, comments and tweets.
type LikeRepository interface {
	Toggle(ctx context.Context, userID string, kind models.LikeTarget, targetID string) (bool, error)
	LikedVideos(ctx context.Context, userID string) ([]models.Video, error)
}

// likeTargetCheck tests that a target exists. Scoped checks also take the liking
// user as $2 and hide videos, and comments on videos, that are unpublished and not theirs.
type likeTargetCheck struct {
	query  string
	scoped bool
}

var likeTargetChecks = map[models.LikeTarget]likeTargetCheck{
	models.LikeTargetVideo: {
		query:  `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1 AND ` + visibleVideoClause + `)`,
		scoped: true,
	},
	models.LikeTargetComment: {
		query: `SELECT EXISTS (
            SELECT 1 FROM comments c JOIN videos v ON v.id = c.video_id
            WHERE c.id = $1 AND (v.is_published OR v.owner_id = $2))`,
		scoped: true,
	},
	models.LikeTargetTweet: {
		query: `SELECT EXISTS (SELECT 1 FROM tweets WHERE id = $1)`,
	},
}

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// Toggle removes the user's like on the target if present and adds it otherwise. It
// reports whether the target is liked afterwards. The (user, kind, target) unique
// constraint keeps concurrent toggles from creating duplicate rows.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, userID string, kind models.LikeTarget, targetID string) (bool, error) {
	check, ok := likeTargetChecks[kind]
	if !ok {
		return false, errs.New(errs.ErrInvalidArgument, "invalid like target")
	}
	args := []any{targetID}
	if check.scoped {
		args = append(args, userID)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, check.query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check like target: %w", err)
	}
	if !exists {
		return false, notFound(string(kind))
	}

	tag, err := r.pool.Exec(ctx, `
        DELETE FROM likes
        WHERE user_id = $1 AND target_kind = $2 AND target_id = $3
    `, userID, string(kind), targetID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = r.pool.Exec(ctx, `
        INSERT INTO likes (id, user_id, target_kind, target_id, created_at)
        VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (user_id, target_kind, target_id) DO NOTHING
    `, uuid.NewString(), userID, string(kind), targetID)
	if err != nil {
		return false, translate(err, "insert like", notFound("user"), nil)
	}
	return true, nil
}

// LikedVideos returns the videos the user liked, most recently liked first.
func (r *PostgresLikeRepository) LikedVideos(ctx context.Context, userID string) ([]models.Video, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT `+prefixedVideoColumns+`
        FROM likes l
        JOIN videos v ON v.id = l.target_id
        WHERE l.user_id = $1 AND l.target_kind = 'video' AND (v.is_published OR v.owner_id = $1)
        ORDER BY l.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()

	return collectVideos(rows)
}
