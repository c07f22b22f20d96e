package repositories

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/videotube/backend/internal/errs"
	"github.com/videotube/backend/internal/models"
)

func TestCommentRepository_CreateOnMissingVideo(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresCommentRepository(mock)

	comment := models.Comment{ID: commentID, VideoID: videoID, OwnerID: userID, Content: "nice", CreatedAt: fixedTime, UpdatedAt: fixedTime}
	mock.ExpectExec(`INSERT INTO comments`).
		WithArgs(commentID, videoID, userID, "nice", fixedTime, fixedTime).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := repo.Create(context.Background(), comment)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.Equal(t, "video not found", err.Error())
}

func TestCommentRepository_CreateOnHiddenVideo(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresCommentRepository(mock)

	comment := models.Comment{ID: commentID, VideoID: videoID, OwnerID: otherID, Content: "nice", CreatedAt: fixedTime, UpdatedAt: fixedTime}
	mock.ExpectExec(`WHERE EXISTS \(SELECT 1 FROM videos WHERE id = \$2::uuid AND \(is_published OR owner_id = \$3::uuid\)\)`).
		WithArgs(commentID, videoID, otherID, "nice", fixedTime, fixedTime).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := repo.Create(context.Background(), comment)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCommentRepository_ListByVideoHidden(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresCommentRepository(mock)

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM videos WHERE id = \$1 AND \(is_published OR owner_id = \$2\)\)`).
		WithArgs(videoID, otherID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	_, _, err := repo.ListByVideo(context.Background(), videoID, otherID, models.PageRequest{Page: 1, Limit: 10})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCommentRepository_ListByVideo(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresCommentRepository(mock)

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM videos`).
		WithArgs(videoID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM comments WHERE video_id = \$1`).
		WithArgs(videoID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(11)))
	mock.ExpectQuery(`ORDER BY created_at DESC, id DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(videoID, 10, 10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "video_id", "owner_id", "content", "created_at", "updated_at"}).
			AddRow(commentID, videoID, userID, "last one", fixedTime, fixedTime))

	comments, total, err := repo.ListByVideo(context.Background(), videoID, userID, models.PageRequest{Page: 2, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(11), total)
	require.Len(t, comments, 1)

	page := models.NewPage(comments, total, models.PageRequest{Page: 2, Limit: 10})
	require.Equal(t, int64(2), page.TotalPages)
}

func TestCommentRepository_DeleteByNonOwner(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresCommentRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM comments WHERE id = \$1 AND owner_id = \$2`).
		WithArgs(commentID, otherID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), otherID, commentID)
	require.ErrorIs(t, err, errs.ErrNotFoundOrUnauthorized)
}

func TestCommentRepository_DeleteByOwner(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresCommentRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM comments WHERE id = \$1 AND owner_id = \$2`).
		WithArgs(commentID, userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM likes WHERE target_kind = 'comment' AND target_id = \$1`).
		WithArgs(commentID).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), userID, commentID))
}

func TestTweetRepository_UpdateByNonOwner(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresTweetRepository(mock)

	mock.ExpectQuery(`UPDATE tweets SET content = \$3`).
		WithArgs(tweetID, otherID, "edited").
		WillReturnRows(pgxmock.NewRows([]string{"id", "owner_id", "content", "created_at", "updated_at"}))

	_, err := repo.Update(context.Background(), otherID, tweetID, "edited")
	require.ErrorIs(t, err, errs.ErrNotFoundOrUnauthorized)
}

func TestTweetRepository_ListByOwner(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresTweetRepository(mock)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tweets WHERE owner_id = \$1`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(`FROM tweets WHERE owner_id = \$1 ORDER BY created_at DESC`).
		WithArgs(userID, 10, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "owner_id", "content", "created_at", "updated_at"}).
			AddRow(tweetID, userID, "hello", fixedTime, fixedTime))

	tweets, total, err := repo.ListByOwner(context.Background(), userID, models.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "hello", tweets[0].Content)
}

func TestLikeRepository_ToggleTwiceRestoresState(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresLikeRepository(mock)
	ctx := context.Background()

	expectTarget := func() {
		mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM videos WHERE id = \$1 AND \(is_published OR owner_id = \$2\)\)`).
			WithArgs(videoID, userID).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	}

	expectTarget()
	mock.ExpectExec(`DELETE FROM likes WHERE user_id = \$1 AND target_kind = \$2 AND target_id = \$3`).
		WithArgs(userID, "video", videoID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`ON CONFLICT \(user_id, target_kind, target_id\) DO NOTHING`).
		WithArgs(pgxmock.AnyArg(), userID, "video", videoID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	liked, err := repo.Toggle(ctx, userID, models.LikeTargetVideo, videoID)
	require.NoError(t, err)
	require.True(t, liked)

	expectTarget()
	mock.ExpectExec(`DELETE FROM likes WHERE user_id = \$1 AND target_kind = \$2 AND target_id = \$3`).
		WithArgs(userID, "video", videoID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	liked, err = repo.Toggle(ctx, userID, models.LikeTargetVideo, videoID)
	require.NoError(t, err)
	require.False(t, liked)
}

func TestLikeRepository_ToggleMissingTarget(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresLikeRepository(mock)

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM tweets WHERE id = \$1\)`).
		WithArgs(tweetID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.Toggle(context.Background(), userID, models.LikeTargetTweet, tweetID)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.Equal(t, "tweet not found", err.Error())

	_, err = repo.Toggle(context.Background(), userID, models.LikeTarget("playlist"), tweetID)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestLikeRepository_ToggleHiddenTargets(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresLikeRepository(mock)

	mock.ExpectQuery(`FROM videos WHERE id = \$1 AND \(is_published OR owner_id = \$2\)`).
		WithArgs(videoID, otherID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	_, err := repo.Toggle(context.Background(), otherID, models.LikeTargetVideo, videoID)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.Equal(t, "video not found", err.Error())

	mock.ExpectQuery(`FROM comments c JOIN videos v ON v.id = c.video_id WHERE c.id = \$1 AND \(v.is_published OR v.owner_id = \$2\)`).
		WithArgs(commentID, otherID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	_, err = repo.Toggle(context.Background(), otherID, models.LikeTargetComment, commentID)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.Equal(t, "comment not found", err.Error())
}

func TestLikeRepository_LikedVideosEmpty(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresLikeRepository(mock)

	mock.ExpectQuery(`FROM likes l JOIN videos v`).
		WithArgs(userID).
		WillReturnRows(videoRows())

	videos, err := repo.LikedVideos(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, videos)
	require.Empty(t, videos)
}

func TestSubscriptionRepository_Toggle(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresSubscriptionRepository(mock)

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM users WHERE id = \$1\)`).
		WithArgs(otherID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(`DELETE FROM subscriptions`).
		WithArgs(userID, otherID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO subscriptions`).
		WithArgs(userID, otherID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	subscribed, err := repo.Toggle(context.Background(), userID, otherID)
	require.NoError(t, err)
	require.True(t, subscribed)
}

func TestSubscriptionRepository_Subscribers(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresSubscriptionRepository(mock)

	mock.ExpectQuery(`JOIN users u ON u.id = s.subscriber_id`).
		WithArgs(otherID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "full_name", "avatar_url"}).
			AddRow(userID, "alice", "Alice", "a"))

	subs, err := repo.Subscribers(context.Background(), otherID)
	require.NoError(t, err)
	require.Equal(t, []models.UserSummary{{ID: userID, Username: "alice", FullName: "Alice", AvatarURL: "a"}}, subs)
}

func TestDashboardRepository_ChannelStats(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresDashboardRepository(mock)
	columns := []string{"exists", "videos", "views", "subscribers", "likes"}

	mock.ExpectQuery(`COALESCE\(SUM\(views\), 0\)::BIGINT`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(true, int64(4), int64(120), int64(9), int64(17)))
	stats, err := repo.ChannelStats(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, models.ChannelStats{TotalVideos: 4, TotalViews: 120, TotalSubscribers: 9, TotalLikes: 17}, stats)

	mock.ExpectQuery(`COALESCE\(SUM\(views\), 0\)::BIGINT`).
		WithArgs(otherID).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(false, int64(0), int64(0), int64(0), int64(0)))
	_, err = repo.ChannelStats(context.Background(), otherID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}
