package handlers

import (
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/errs"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/response"
	"github.com/videotube/backend/internal/validation"
)

// VideoHandler implements video publishing, browsing and ownership-guarded edits.
type VideoHandler struct {
	Videos  VideoStore
	Media   Media
	NowFunc func() time.Time
}

type listVideosQuery struct {
	SortBy   string `query:"sortBy" validate:"omitempty,oneof=createdAt updatedAt views title"`
	SortType string `query:"sortType" validate:"omitempty,oneof=asc desc"`
}

type publishVideoRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=5000"`
}

type updateVideoRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,min=1,max=5000"`
}

// List handles GET /api/v1/videos.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	viewer, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	page, err := pageRequest(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	ownerID, err := queryID(r, "userId", "userId")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	q := r.URL.Query()
	sort := listVideosQuery{SortBy: q.Get("sortBy"), SortType: strings.ToLower(q.Get("sortType"))}
	if err := validation.Struct(sort); err != nil {
		response.Error(w, r, err)
		return
	}

	filter := models.VideoFilter{
		Page:     page,
		Query:    q.Get("query"),
		SortBy:   sort.SortBy,
		SortDesc: sort.SortType != "asc",
		OwnerID:  ownerID,
		ViewerID: viewer.ID,
	}
	videos, total, err := h.Videos.List(r.Context(), filter)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, models.NewPage(videos, total, page), "Videos fetched successfully")
}

// Publish handles POST /api/v1/videos.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	if err := h.Media.parseForm(w, r); err != nil {
		response.Error(w, r, err)
		return
	}
	req := publishVideoRequest{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
	if err := validation.Struct(req); err != nil {
		cleanupRequest(ctx, r)
		response.Error(w, r, err)
		return
	}

	videoPath, err := h.Media.stage(r, "videoFile")
	if err != nil {
		cleanupRequest(ctx, r)
		response.Error(w, r, err)
		return
	}
	thumbPath, err := h.Media.stage(r, "thumbnail")
	defer cleanupRequest(ctx, r, videoPath, thumbPath)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if videoPath == "" {
		response.Error(w, r, errs.New(errs.ErrInvalidArgument, "videoFile is required"))
		return
	}

	videoAsset, err := h.Media.upload(ctx, videoPath, models.MediaKindVideo)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	thumbAsset, err := h.Media.upload(ctx, thumbPath, models.MediaKindImage)
	if err != nil {
		h.Media.Gateway.Discard(ctx, videoAsset.Key)
		response.Error(w, r, err)
		return
	}

	now := h.now()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      owner.ID,
		Title:        req.Title,
		Description:  req.Description,
		VideoURL:     videoAsset.URL,
		VideoKey:     videoAsset.Key,
		ThumbnailURL: thumbAsset.URL,
		ThumbnailKey: thumbAsset.Key,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.Videos.Create(ctx, video); err != nil {
		h.Media.Gateway.Discard(ctx, videoAsset.Key, thumbAsset.Key)
		response.Error(w, r, err)
		return
	}

	response.Created(w, r, video, "Video published successfully")
}

// Get handles GET /api/v1/videos/{videoId}. Each call counts a view and moves the
// video to the front of the caller's watch history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	video, err := h.Videos.RecordView(r.Context(), videoID, viewer.ID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, video, "Video fetched successfully")
}

// Update handles PATCH /api/v1/videos/{videoId}. It accepts either a JSON body or a
// multipart form carrying an optional thumbnail.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	videoID, err := pathID(r, "videoId", "video id")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	existing, err := h.Videos.FindByID(ctx, videoID)
	if err != nil || existing.OwnerID != owner.ID {
		if err == nil || errs.HTTPStatus(err) == http.StatusNotFound {
			err = errs.New(errs.ErrNotFoundOrUnauthorized, "video not found or not authorized")
		}
		response.Error(w, r, err)
		return
	}

	var req updateVideoRequest
	var thumbPath string
	if isMultipart(r) {
		if err := h.Media.parseForm(w, r); err != nil {
			response.Error(w, r, err)
			return
		}
		req.Title = optionalFormValue(r, "title")
		req.Description = optionalFormValue(r, "description")
		thumbPath, err = h.Media.stage(r, "thumbnail")
		defer cleanupRequest(ctx, r, thumbPath)
		if err != nil {
			response.Error(w, r, err)
			return
		}
	} else {
		if err := decodeJSON(w, r, &req); err != nil {
			response.Error(w, r, err)
			return
		}
		req.Title = trimmed(req.Title)
		req.Description = trimmed(req.Description)
	}

	if req.Title == nil && req.Description == nil && thumbPath == "" {
		response.Error(w, r, errs.New(errs.ErrInvalidArgument, "title, description or thumbnail is required"))
		return
	}
	if err := validation.Struct(req); err != nil {
		response.Error(w, r, err)
		return
	}

	patch := models.VideoPatch{Title: req.Title, Description: req.Description}
	if thumbPath != "" {
		thumb, err := h.Media.upload(ctx, thumbPath, models.MediaKindImage)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		patch.Thumbnail = &thumb
	}

	video, err := h.Videos.Update(ctx, owner.ID, videoID, patch)
	if err != nil {
		if patch.Thumbnail != nil {
			h.Media.Gateway.Discard(ctx, patch.Thumbnail.Key)
		}
		response.Error(w, r, err)
		return
	}

	if patch.Thumbnail != nil && existing.ThumbnailKey != "" {
		h.Media.Gateway.Discard(ctx, existing.ThumbnailKey)
	}
	response.OK(w, r, video, "Video updated successfully")
}

// Delete handles DELETE /api/v1/videos/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	videoID, err := pathID(r, "videoId", "video id")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	video, err := h.Videos.Delete(r.Context(), owner.ID, videoID)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	h.Media.Gateway.Discard(r.Context(), video.VideoKey, video.ThumbnailKey)
	response.OK(w, r, struct{}{}, "Video deleted successfully")
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/{videoId}. Unlike the
// other mutations it reports a non-owner explicitly with 403.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	videoID, err := pathID(r, "videoId", "video id")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	existing, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if existing.OwnerID != owner.ID {
		response.Error(w, r, errs.New(errs.ErrForbidden, "only the owner can change the publish status"))
		return
	}

	video, err := h.Videos.TogglePublish(ctx, owner.ID, videoID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, video, "Publish status toggled successfully")
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func optionalFormValue(r *http.Request, key string) *string {
	if _, ok := r.MultipartForm.Value[key]; !ok {
		return nil
	}
	value := strings.TrimSpace(r.FormValue(key))
	return &value
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	value := strings.TrimSpace(*s)
	return &value
}
