package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
)

// VideoRepository defines persistence for published videos and view tracking.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	List(ctx context.Context, filter models.VideoFilter) ([]models.Video, int64, error)
	Update(ctx context.Context, ownerID, id string, patch models.VideoPatch) (models.Video, error)
	Delete(ctx context.Context, ownerID, id string) (models.Video, error)
	TogglePublish(ctx context.Context, ownerID, id string) (models.Video, error)
	RecordView(ctx context.Context, id, viewerID string) (models.Video, error)
}

const (
	videoColumns = `id, owner_id, title, description, video_url, video_key, thumbnail_url, thumbnail_key,
        views, is_published, created_at, updated_at`
	prefixedVideoColumns = `v.id, v.owner_id, v.title, v.description, v.video_url, v.video_key, v.thumbnail_url,
        v.thumbnail_key, v.views, v.is_published, v.created_at, v.updated_at`
)

var videoSortColumns = map[string]string{
	"createdAt": "v.created_at",
	"updatedAt": "v.updated_at",
	"views":     "v.views",
	"title":     "v.title",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, video_url, video_key, thumbnail_url, thumbnail_key, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.VideoURL, video.VideoKey,
		video.ThumbnailURL, video.ThumbnailKey, video.Views, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	return translate(err, "insert video", notFound("user"), nil)
}

// FindByID fetches a video regardless of its publication state.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)
	video, err := scanVideo(row)
	if err != nil {
		return models.Video{}, translate(err, "select video", notFound("video"), nil)
	}
	return video, nil
}

// List returns one page of videos visible to filter.ViewerID together with the total
// number of matching videos.
func (r *PostgresVideoRepository) List(ctx context.Context, filter models.VideoFilter) ([]models.Video, int64, error) {
	args := []any{nullableID(filter.ViewerID)}
	where := []string{"(v.is_published OR v.owner_id = $1)"}

	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		where = append(where, fmt.Sprintf("v.owner_id = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+likeEscaper.Replace(q)+"%")
		where = append(where, fmt.Sprintf("(v.title ILIKE $%d OR v.description ILIKE $%d)", len(args), len(args)))
	}
	clause := strings.Join(where, " AND ")

	total, err := countRows(ctx, r.pool, "count videos", `SELECT COUNT(*) FROM videos v WHERE `+clause, args...)
	if err != nil {
		return nil, 0, err
	}

	column, ok := videoSortColumns[filter.SortBy]
	if !ok {
		column = videoSortColumns["createdAt"]
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}

	limit, offset := pageArgs(filter.Page)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
        SELECT %s
        FROM videos v
        WHERE %s
        ORDER BY %s %s, v.id %s
        LIMIT $%d OFFSET $%d
    `, prefixedVideoColumns, clause, column, direction, direction, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	videos, err := collectVideos(rows)
	if err != nil {
		return nil, 0, err
	}
	return videos, total, nil
}

// Update applies patch to a video owned by ownerID.
func (r *PostgresVideoRepository) Update(ctx context.Context, ownerID, id string, patch models.VideoPatch) (models.Video, error) {
	var thumbURL, thumbKey *string
	if patch.Thumbnail != nil {
		thumbURL, thumbKey = &patch.Thumbnail.URL, &patch.Thumbnail.Key
	}

	row := r.pool.QueryRow(ctx, `
        UPDATE videos
        SET title = COALESCE($3, title),
            description = COALESCE($4, description),
            thumbnail_url = COALESCE($5, thumbnail_url),
            thumbnail_key = COALESCE($6, thumbnail_key),
            updated_at = NOW()
        WHERE id = $1 AND owner_id = $2
        RETURNING `+videoColumns, id, ownerID, patch.Title, patch.Description, thumbURL, thumbKey)
	video, err := scanVideo(row)
	if err != nil {
		return models.Video{}, translate(err, "update video", notFoundOrUnauthorized("video"), nil)
	}
	return video, nil
}

// Delete removes a video owned by ownerID along with the likes on it and on its comments.
func (r *PostgresVideoRepository) Delete(ctx context.Context, ownerID, id string) (models.Video, error) {
	var video models.Video
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
            DELETE FROM likes
            WHERE (target_kind = 'video' AND target_id = $1)
               OR (target_kind = 'comment' AND target_id IN (SELECT id FROM comments WHERE video_id = $1))
        `, id); err != nil {
			return fmt.Errorf("delete video likes: %w", err)
		}

		row := tx.QueryRow(ctx, `DELETE FROM videos WHERE id = $1 AND owner_id = $2 RETURNING `+videoColumns, id, ownerID)
		deleted, err := scanVideo(row)
		if err != nil {
			return translate(err, "delete video", notFoundOrUnauthorized("video"), nil)
		}
		video = deleted
		return nil
	})
	if err != nil {
		return models.Video{}, err
	}
	return video, nil
}

// TogglePublish flips the publication flag of a video owned by ownerID.
func (r *PostgresVideoRepository) TogglePublish(ctx context.Context, ownerID, id string) (models.Video, error) {
	row := r.pool.QueryRow(ctx, `
        UPDATE videos
        SET is_published = NOT is_published, updated_at = NOW()
        WHERE id = $1 AND owner_id = $2
        RETURNING `+videoColumns, id, ownerID)
	video, err := scanVideo(row)
	if err != nil {
		return models.Video{}, translate(err, "toggle publish", notFoundOrUnauthorized("video"), nil)
	}
	return video, nil
}

// RecordView increments the view counter of a video visible to viewerID and moves it to
// the front of the viewer's watch history.
func (r *PostgresVideoRepository) RecordView(ctx context.Context, id, viewerID string) (models.Video, error) {
	var video models.Video
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
            UPDATE videos
            SET views = views + 1
            WHERE id = $1 AND (is_published OR owner_id = $2)
            RETURNING `+videoColumns, id, nullableID(viewerID))
		viewed, err := scanVideo(row)
		if err != nil {
			return translate(err, "record view", notFound("video"), nil)
		}
		video = viewed

		if viewerID == "" {
			return nil
		}
		if _, err := tx.Exec(ctx, `
            INSERT INTO watch_history (user_id, video_id, watched_at)
            VALUES ($1, $2, NOW())
            ON CONFLICT (user_id, video_id) DO UPDATE SET watched_at = EXCLUDED.watched_at
        `, viewerID, id); err != nil {
			return fmt.Errorf("append watch history: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Video{}, err
	}
	return video, nil
}

func videoDest(v *models.Video) []any {
	return []any{&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.VideoKey, &v.ThumbnailURL,
		&v.ThumbnailKey, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt}
}

func scanVideo(row pgx.Row) (models.Video, error) {
	var video models.Video
	if err := row.Scan(videoDest(&video)...); err != nil {
		return models.Video{}, err
	}
	return video, nil
}

func collectVideos(rows pgx.Rows) ([]models.Video, error) {
	videos := []models.Video{}
	for rows.Next() {
		var video models.Video
		if err := rows.Scan(videoDest(&video)...); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}
