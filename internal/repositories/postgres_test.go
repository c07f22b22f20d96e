package repositories

import (
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

const (
	userID    = "0b6f5d1e-2f1a-4a3c-9a56-5d1f0b7d0c11"
	otherID   = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
	videoID   = "3b241101-e2bb-4255-8caf-4136c566a962"
	commentID = "6f1c2b3a-4d5e-4f60-9182-7a6b5c4d3e2f"
	tweetID   = "1d2c3b4a-5f6e-4d7c-8b9a-0f1e2d3c4b5a"
)

var fixedTime = time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

var userColumnNames = []string{
	"id", "username", "email", "full_name", "avatar_url", "avatar_key", "cover_image_url",
	"cover_image_key", "password_hash", "refresh_token_hash", "created_at", "updated_at",
}

func userRow(id, username, refreshHash string) *pgxmock.Rows {
	return pgxmock.NewRows(userColumnNames).AddRow(
		id, username, username+"@x.com", "Full "+username, "https://cdn/avatar.png", "image/a.png",
		"", "", "bcrypt-hash", refreshHash, fixedTime, fixedTime,
	)
}

var videoColumnNames = []string{
	"id", "owner_id", "title", "description", "video_url", "video_key", "thumbnail_url",
	"thumbnail_key", "views", "is_published", "created_at", "updated_at",
}

func videoRows(ids ...string) *pgxmock.Rows {
	rows := pgxmock.NewRows(videoColumnNames)
	for _, id := range ids {
		rows.AddRow(id, userID, "title "+id, "desc", "https://cdn/v.mp4", "video/v.mp4",
			"https://cdn/t.png", "image/t.png", int64(7), true, fixedTime, fixedTime)
	}
	return rows
}
