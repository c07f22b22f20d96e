package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/response"
	"github.com/videotube/backend/internal/validation"
)

type contentRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

func decodeContent(w http.ResponseWriter, r *http.Request) (string, error) {
	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return "", err
	}
	req.Content = strings.TrimSpace(req.Content)
	if err := validation.Struct(req); err != nil {
		return "", err
	}
	return req.Content, nil
}

// CommentHandler implements comment endpoints. Only a comment's author may edit or
// delete it.
type CommentHandler struct {
	Comments CommentStore
	NowFunc  func() time.Time
}

// List handles GET /api/v1/comments/{videoId}.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	viewer, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	videoID, err := pathID(r, "videoId", "video id")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	page, err := pageRequest(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	comments, total, err := h.Comments.ListByVideo(r.Context(), videoID, viewer.ID, page)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, models.NewPage(comments, total, page), "Comments fetched successfully")
}

// Add handles POST /api/v1/comments/{videoId}.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	videoID, err := pathID(r, "videoId", "video id")
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
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		OwnerID:   user.ID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Comments.Create(r.Context(), comment); err != nil {
		response.Error(w, r, err)
		return
	}
	response.Created(w, r, comment, "Comment added successfully")
}

// Update handles PATCH /api/v1/comments/c/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	commentID, err := pathID(r, "commentId", "comment id")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	content, err := decodeContent(w, r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	comment, err := h.Comments.Update(r.Context(), user.ID, commentID, content)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, comment, "Comment updated successfully")
}

// Delete handles DELETE /api/v1/comments/c/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	commentID, err := pathID(r, "commentId", "comment id")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	if err := h.Comments.Delete(r.Context(), user.ID, commentID); err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, struct{}{}, "Comment deleted successfully")
}

func nowOrDefault(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now().UTC()
}
