package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/response"
)

// TweetHandler implements channel tweet endpoints.
type TweetHandler struct {
	Tweets  TweetStore
	NowFunc func() time.Time
}

// Create handles POST /api/v1/tweets.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	content, err := decodeContent(w, r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	now := nowOrDefault(h.NowFunc)
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		OwnerID:   user.ID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Tweets.Create(r.Context(), tweet); err != nil {
		response.Error(w, r, err)
		return
	}
	response.Created(w, r, tweet, "Tweet created successfully")
}

// ListByUser handles GET /api/v1/tweets/user/{userId}.
func (h TweetHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ownerID, err := pathID(r, "userId", "user id")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	page, err := pageRequest(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	tweets, total, err := h.Tweets.ListByOwner(r.Context(), ownerID, page)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, models.NewPage(tweets, total, page), "Tweets fetched successfully")
}

// Update handles PATCH /api/v1/tweets/{tweetId}.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	tweetID, err := pathID(r, "tweetId", "tweet id")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	content, err := decodeContent(w, r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	tweet, err := h.Tweets.Update(r.Context(), user.ID, tweetID, content)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, tweet, "Tweet updated successfully")
}

// Delete handles DELETE /api/v1/tweets/{tweetId}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	tweetID, err := pathID(r, "tweetId", "tweet id")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	if err := h.Tweets.Delete(r.Context(), user.ID, tweetID); err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, struct{}{}, "Tweet deleted successfully")
}
