package handlers

import (
	"context"

	"github.com/videotube/backend/internal/models"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, username, email string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAccount(ctx context.Context, id, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, id string, asset models.MediaAsset) (models.User, error)
	UpdateCoverImage(ctx context.Context, id string, asset models.MediaAsset) (models.User, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error)
}

// TokenService issues, rotates and revokes session token pairs.
type TokenService interface {
	IssueTokenPair(ctx context.Context, userID string) (models.SessionTokens, error)
	Rotate(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, userID string) error
}

// MediaGateway moves staged uploads into the object store.
type MediaGateway interface {
	Upload(ctx context.Context, localPath string, kind models.MediaKind) (models.MediaAsset, error)
	// Discard removes assets best-effort, logging failures.
	Discard(ctx context.Context, keys ...string)
}

// VideoStore captures persistence for videos and watch tracking.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	List(ctx context.Context, filter models.VideoFilter) ([]models.Video, int64, error)
	Update(ctx context.Context, ownerID, id string, patch models.VideoPatch) (models.Video, error)
	Delete(ctx context.Context, ownerID, id string) (models.Video, error)
	TogglePublish(ctx context.Context, ownerID, id string) (models.Video, error)
	RecordView(ctx context.Context, id, viewerID string) (models.Video, error)
}

// CommentStore captures persistence for video comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	ListByVideo(ctx context.Context, videoID, viewerID string, page models.PageRequest) ([]models.Comment, int64, error)
	Update(ctx context.Context, ownerID, id, content string) (models.Comment, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// TweetStore captures persistence for tweets.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	ListByOwner(ctx context.Context, ownerID string, page models.PageRequest) ([]models.Tweet, int64, error)
	Update(ctx context.Context, ownerID, id, content string) (models.Tweet, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// LikeStore toggles likes and lists liked videos.
type LikeStore interface {
	Toggle(ctx context.Context, userID string, kind models.LikeTarget, targetID string) (bool, error)
	LikedVideos(ctx context.Context, userID string) ([]models.Video, error)
}

// SubscriptionStore toggles and lists channel subscriptions.
type SubscriptionStore interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
	Subscribers(ctx context.Context, channelID string) ([]models.UserSummary, error)
	SubscribedChannels(ctx context.Context, subscriberID string) ([]models.UserSummary, error)
}

// StatsReader returns dashboard statistics for a channel.
type StatsReader interface {
	ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
