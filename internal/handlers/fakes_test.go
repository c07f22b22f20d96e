package handlers

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/videotube/backend/internal/errs"
	"github.com/videotube/backend/internal/models"
)

type memoryUsers struct {
	mu   sync.Mutex
	byID map[string]models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: make(map[string]models.User)}
}

func (s *memoryUsers) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Username == user.Username || existing.Email == user.Email {
			return errs.New(errs.ErrConflict, "user with email or username already exists")
		}
	}
	s.byID[user.ID] = user
	return nil
}

func (s *memoryUsers) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return models.User{}, errs.New(errs.ErrNotFound, "user not found")
	}
	return user, nil
}

func (s *memoryUsers) FindByLogin(_ context.Context, username, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.byID {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			return user, nil
		}
	}
	return models.User{}, errs.New(errs.ErrNotFound, "user not found")
}

func (s *memoryUsers) update(id string, fn func(*models.User)) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return models.User{}, errs.New(errs.ErrNotFound, "user not found")
	}
	fn(&user)
	s.byID[id] = user
	return user, nil
}

func (s *memoryUsers) UpdatePassword(_ context.Context, id, passwordHash string) error {
	_, err := s.update(id, func(u *models.User) { u.PasswordHash = passwordHash })
	return err
}

func (s *memoryUsers) UpdateAccount(_ context.Context, id, fullName, email string) (models.User, error) {
	return s.update(id, func(u *models.User) { u.FullName, u.Email = fullName, email })
}

func (s *memoryUsers) UpdateAvatar(_ context.Context, id string, asset models.MediaAsset) (models.User, error) {
	return s.update(id, func(u *models.User) { u.AvatarURL, u.AvatarKey = asset.URL, asset.Key })
}

func (s *memoryUsers) UpdateCoverImage(_ context.Context, id string, asset models.MediaAsset) (models.User, error) {
	return s.update(id, func(u *models.User) { u.CoverImageURL, u.CoverImageKey = asset.URL, asset.Key })
}

func (s *memoryUsers) SetRefreshToken(_ context.Context, userID, tokenHash string) error {
	_, err := s.update(userID, func(u *models.User) { u.RefreshTokenHash = &tokenHash })
	return err
}

func (s *memoryUsers) SwapRefreshToken(_ context.Context, userID, currentHash, nextHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[userID]
	if !ok || user.RefreshTokenHash == nil || *user.RefreshTokenHash != currentHash {
		return errs.ErrNotFound
	}
	user.RefreshTokenHash = &nextHash
	s.byID[userID] = user
	return nil
}

func (s *memoryUsers) ClearRefreshToken(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.byID[userID]; ok {
		user.RefreshTokenHash = nil
		s.byID[userID] = user
	}
	return nil
}

func (s *memoryUsers) ChannelProfile(_ context.Context, username, _ string) (models.ChannelProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.byID {
		if user.Username == username {
			return models.ChannelProfile{ID: user.ID, Username: user.Username, FullName: user.FullName}, nil
		}
	}
	return models.ChannelProfile{}, errs.New(errs.ErrNotFound, "channel not found")
}

func (s *memoryUsers) WatchHistory(context.Context, string) ([]models.WatchedVideo, error) {
	return nil, nil
}

type memoryVideos struct {
	mu   sync.Mutex
	byID map[string]models.Video
}

func newMemoryVideos() *memoryVideos {
	return &memoryVideos{byID: make(map[string]models.Video)}
}

func (s *memoryVideos) Create(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[video.ID] = video
	return nil
}

func (s *memoryVideos) FindByID(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.byID[id]
	if !ok {
		return models.Video{}, errs.New(errs.ErrNotFound, "video not found")
	}
	return video, nil
}

func (s *memoryVideos) List(_ context.Context, filter models.VideoFilter) ([]models.Video, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.Video
	for _, video := range s.byID {
		if !video.IsPublished && video.OwnerID != filter.ViewerID {
			continue
		}
		if filter.OwnerID != "" && video.OwnerID != filter.OwnerID {
			continue
		}
		matched = append(matched, video)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := filter.Page.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *memoryVideos) owned(ownerID, id string) (models.Video, error) {
	video, ok := s.byID[id]
	if !ok || video.OwnerID != ownerID {
		return models.Video{}, errs.New(errs.ErrNotFoundOrUnauthorized, "video not found or not authorized")
	}
	return video, nil
}

func (s *memoryVideos) Update(_ context.Context, ownerID, id string, patch models.VideoPatch) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, err := s.owned(ownerID, id)
	if err != nil {
		return models.Video{}, err
	}
	if patch.Title != nil {
		video.Title = *patch.Title
	}
	if patch.Description != nil {
		video.Description = *patch.Description
	}
	if patch.Thumbnail != nil {
		video.ThumbnailURL, video.ThumbnailKey = patch.Thumbnail.URL, patch.Thumbnail.Key
	}
	s.byID[id] = video
	return video, nil
}

func (s *memoryVideos) Delete(_ context.Context, ownerID, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, err := s.owned(ownerID, id)
	if err != nil {
		return models.Video{}, err
	}
	delete(s.byID, id)
	return video, nil
}

func (s *memoryVideos) TogglePublish(_ context.Context, ownerID, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, err := s.owned(ownerID, id)
	if err != nil {
		return models.Video{}, err
	}
	video.IsPublished = !video.IsPublished
	s.byID[id] = video
	return video, nil
}

func (s *memoryVideos) RecordView(_ context.Context, id, viewerID string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.byID[id]
	if !ok || (!video.IsPublished && video.OwnerID != viewerID) {
		return models.Video{}, errs.New(errs.ErrNotFound, "video not found")
	}
	video.Views++
	s.byID[id] = video
	return video, nil
}

type memoryComments struct {
	mu     sync.Mutex
	byID   map[string]models.Comment
	videos *memoryVideos
}

func newMemoryComments(videos *memoryVideos) *memoryComments {
	return &memoryComments{byID: make(map[string]models.Comment), videos: videos}
}

func (s *memoryComments) videoVisible(videoID, viewerID string) bool {
	s.videos.mu.Lock()
	defer s.videos.mu.Unlock()
	video, ok := s.videos.byID[videoID]
	return ok && (video.IsPublished || video.OwnerID == viewerID)
}

func (s *memoryComments) Create(_ context.Context, comment models.Comment) error {
	if !s.videoVisible(comment.VideoID, comment.OwnerID) {
		return errs.New(errs.ErrNotFound, "video not found")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[comment.ID] = comment
	return nil
}

func (s *memoryComments) ListByVideo(_ context.Context, videoID, viewerID string, _ models.PageRequest) ([]models.Comment, int64, error) {
	if !s.videoVisible(videoID, viewerID) {
		return nil, 0, errs.New(errs.ErrNotFound, "video not found")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Comment
	for _, comment := range s.byID {
		if comment.VideoID == videoID {
			out = append(out, comment)
		}
	}
	return out, int64(len(out)), nil
}

func (s *memoryComments) Update(_ context.Context, ownerID, id, content string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.byID[id]
	if !ok || comment.OwnerID != ownerID {
		return models.Comment{}, errs.New(errs.ErrNotFoundOrUnauthorized, "comment not found or not authorized")
	}
	comment.Content = content
	s.byID[id] = comment
	return comment, nil
}

func (s *memoryComments) Delete(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.byID[id]
	if !ok || comment.OwnerID != ownerID {
		return errs.New(errs.ErrNotFoundOrUnauthorized, "comment not found or not authorized")
	}
	delete(s.byID, id)
	return nil
}

type likeKey struct {
	user   string
	kind   models.LikeTarget
	target string
}

type memoryLikes struct {
	mu    sync.Mutex
	likes map[likeKey]struct{}
}

func newMemoryLikes() *memoryLikes {
	return &memoryLikes{likes: make(map[likeKey]struct{})}
}

func (s *memoryLikes) Toggle(_ context.Context, userID string, kind models.LikeTarget, targetID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := likeKey{userID, kind, targetID}
	if _, ok := s.likes[key]; ok {
		delete(s.likes, key)
		return false, nil
	}
	s.likes[key] = struct{}{}
	return true, nil
}

func (s *memoryLikes) LikedVideos(context.Context, string) ([]models.Video, error) {
	return nil, nil
}

type recordingMedia struct {
	mu        sync.Mutex
	uploaded  []string
	discarded []string
	failKind  models.MediaKind
}

func (m *recordingMedia) Upload(_ context.Context, localPath string, kind models.MediaKind) (models.MediaAsset, error) {
	defer os.Remove(localPath)
	m.mu.Lock()
	defer m.mu.Unlock()
	if kind == m.failKind {
		return models.MediaAsset{}, errs.New(errs.ErrUploadFailed, "failed to upload "+string(kind))
	}
	key := string(kind) + "/" + filepath.Base(localPath)
	m.uploaded = append(m.uploaded, key)
	return models.MediaAsset{URL: "https://cdn.test/" + key, Key: key}, nil
}

func (m *recordingMedia) Discard(_ context.Context, keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		if key != "" {
			m.discarded = append(m.discarded, key)
		}
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type memoryTweets struct {
	mu   sync.Mutex
	byID map[string]models.Tweet
}

func newMemoryTweets() *memoryTweets {
	return &memoryTweets{byID: make(map[string]models.Tweet)}
}

func (s *memoryTweets) Create(_ context.Context, tweet models.Tweet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[tweet.ID] = tweet
	return nil
}

func (s *memoryTweets) ListByOwner(_ context.Context, ownerID string, _ models.PageRequest) ([]models.Tweet, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Tweet
	for _, tweet := range s.byID {
		if tweet.OwnerID == ownerID {
			out = append(out, tweet)
		}
	}
	return out, int64(len(out)), nil
}

func (s *memoryTweets) Update(_ context.Context, ownerID, id, content string) (models.Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tweet, ok := s.byID[id]
	if !ok || tweet.OwnerID != ownerID {
		return models.Tweet{}, errs.New(errs.ErrNotFoundOrUnauthorized, "tweet not found or not authorized")
	}
	tweet.Content = content
	s.byID[id] = tweet
	return tweet, nil
}

func (s *memoryTweets) Delete(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tweet, ok := s.byID[id]
	if !ok || tweet.OwnerID != ownerID {
		return errs.New(errs.ErrNotFoundOrUnauthorized, "tweet not found or not authorized")
	}
	delete(s.byID, id)
	return nil
}

type subscriptionKey struct {
	subscriber string
	channel    string
}

type memorySubscriptions struct {
	mu   sync.Mutex
	subs map[subscriptionKey]struct{}
}

func newMemorySubscriptions() *memorySubscriptions {
	return &memorySubscriptions{subs: make(map[subscriptionKey]struct{})}
}

func (s *memorySubscriptions) Toggle(_ context.Context, subscriberID, channelID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := subscriptionKey{subscriber: subscriberID, channel: channelID}
	if _, ok := s.subs[key]; ok {
		delete(s.subs, key)
		return false, nil
	}
	s.subs[key] = struct{}{}
	return true, nil
}

func (s *memorySubscriptions) Subscribers(_ context.Context, channelID string) ([]models.UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.UserSummary
	for key := range s.subs {
		if key.channel == channelID {
			out = append(out, models.UserSummary{ID: key.subscriber})
		}
	}
	return out, nil
}

func (s *memorySubscriptions) SubscribedChannels(_ context.Context, subscriberID string) ([]models.UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.UserSummary
	for key := range s.subs {
		if key.subscriber == subscriberID {
			out = append(out, models.UserSummary{ID: key.channel})
		}
	}
	return out, nil
}

type stubStats struct {
	stats models.ChannelStats
}

func (s stubStats) ChannelStats(context.Context, string) (models.ChannelStats, error) {
	return s.stats, nil
}
