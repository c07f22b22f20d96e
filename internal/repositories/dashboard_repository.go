package repositories

import (
	"context"
	"fmt"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
)

// DashboardRepository aggregates per-channel counters.
type DashboardRepository interface {
	ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error)
}

// PostgresDashboardRepository computes dashboard statistics in PostgreSQL.
type PostgresDashboardRepository struct {
	pool db.Pool
}

// NewPostgresDashboardRepository constructs a dashboard repository backed by PostgreSQL.
func NewPostgresDashboardRepository(pool db.Pool) *PostgresDashboardRepository {
	return &PostgresDashboardRepository{pool: pool}
}

// ChannelStats counts the channel's videos, views, subscribers and the likes on its videos.
func (r *PostgresDashboardRepository) ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT
            EXISTS (SELECT 1 FROM users WHERE id = $1),
            (SELECT COUNT(*) FROM videos WHERE owner_id = $1),
            (SELECT COALESCE(SUM(views), 0)::BIGINT FROM videos WHERE owner_id = $1),
            (SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1),
            (SELECT COUNT(*) FROM likes l JOIN videos v ON l.target_kind = 'video' AND l.target_id = v.id WHERE v.owner_id = $1)
    `, channelID)

	var (
		exists bool
		stats  models.ChannelStats
	)
	if err := row.Scan(&exists, &stats.TotalVideos, &stats.TotalViews, &stats.TotalSubscribers, &stats.TotalLikes); err != nil {
		return models.ChannelStats{}, fmt.Errorf("select channel stats: %w", err)
	}
	if !exists {
		return models.ChannelStats{}, notFound("channel")
	}
	return stats, nil
}
