package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/videotube/backend/internal/errs"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/response"
)

var likeTargetsByPath = map[string]models.LikeTarget{
	"v":       models.LikeTargetVideo,
	"video":   models.LikeTargetVideo,
	"c":       models.LikeTargetComment,
	"comment": models.LikeTargetComment,
	"t":       models.LikeTargetTweet,
	"tweet":   models.LikeTargetTweet,
}

// LikeHandler toggles likes on videos, comments and tweets.
type LikeHandler struct {
	Likes LikeStore
}

type likeResponse struct {
	Liked bool `json:"liked"`
}

// Toggle handles POST /api/v1/likes/toggle/{kind}/{targetId}, where kind is one of
// v, c or t.
func (h LikeHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	kind, ok := likeTargetsByPath[chi.URLParam(r, "kind")]
	if !ok {
		response.Error(w, r, errs.New(errs.ErrInvalidArgument, "like target must be one of v, c or t"))
		return
	}
	targetID, err := pathID(r, "targetId", string(kind)+" id")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	liked, err := h.Likes.Toggle(r.Context(), user.ID, kind, targetID)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	message := "Like removed"
	if liked {
		message = "Like added"
	}
	response.OK(w, r, likeResponse{Liked: liked}, message)
}

// LikedVideos handles GET /api/v1/likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	videos, err := h.Likes.LikedVideos(r.Context(), user.ID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if videos == nil {
		videos = []models.Video{}
	}
	response.OK(w, r, videos, "Liked videos fetched successfully")
}
