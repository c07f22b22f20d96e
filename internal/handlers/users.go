package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/errs"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/response"
	"github.com/videotube/backend/internal/validation"
)

// UserHandler implements account, session and channel endpoints.
type UserHandler struct {
	Users    UserStore
	Tokens   TokenService
	Media    Media
	SameSite http.SameSite
	NowFunc  func() time.Time
}

type registerRequest struct {
	FullName string `json:"fullName" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=30"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,maxbytes=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
}

type sessionResponse struct {
	User         *models.User `json:"user,omitempty"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// Register handles POST /api/v1/users/register.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := h.Media.parseForm(w, r); err != nil {
		response.Error(w, r, err)
		return
	}

	req := registerRequest{
		FullName: strings.TrimSpace(r.FormValue("fullName")),
		Email:    normalize(r.FormValue("email")),
		Username: normalize(r.FormValue("username")),
		Password: r.FormValue("password"),
	}
	if err := validation.Struct(req); err != nil {
		cleanupRequest(ctx, r)
		response.Error(w, r, err)
		return
	}

	avatarPath, err := h.Media.stage(r, "avatar")
	if err != nil {
		cleanupRequest(ctx, r)
		response.Error(w, r, err)
		return
	}
	coverPath, err := h.Media.stage(r, "coverImage")
	defer cleanupRequest(ctx, r, avatarPath, coverPath)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if avatarPath == "" {
		response.Error(w, r, errs.New(errs.ErrInvalidArgument, "avatar file is required"))
		return
	}

	if _, err := h.Users.FindByLogin(ctx, req.Username, req.Email); err == nil {
		response.Error(w, r, errs.New(errs.ErrConflict, "user with email or username already exists"))
		return
	} else if !errors.Is(err, errs.ErrNotFound) {
		response.Error(w, r, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("register failed to hash password", "error", err)
		response.Error(w, r, errs.ErrInternal)
		return
	}

	avatar, err := h.Media.upload(ctx, avatarPath, models.MediaKindImage)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	cover, err := h.Media.upload(ctx, coverPath, models.MediaKindImage)
	if err != nil {
		h.Media.Gateway.Discard(ctx, avatar.Key)
		response.Error(w, r, err)
		return
	}

	now := h.now()
	user := models.User{
		ID:            uuid.NewString(),
		Username:      req.Username,
		Email:         req.Email,
		FullName:      req.FullName,
		AvatarURL:     avatar.URL,
		AvatarKey:     avatar.Key,
		CoverImageURL: cover.URL,
		CoverImageKey: cover.Key,
		PasswordHash:  string(hashed),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		h.Media.Gateway.Discard(ctx, avatar.Key, cover.Key)
		response.Error(w, r, err)
		return
	}

	logger.Info("user registered", "userId", user.ID)
	response.Created(w, r, user.Public(), "User registered successfully")
}

// Login handles POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, err)
		return
	}
	req.Username = normalize(req.Username)
	req.Email = normalize(req.Email)
	if req.Username == "" && req.Email == "" {
		response.Error(w, r, errs.New(errs.ErrInvalidArgument, "username or email is required"))
		return
	}
	if err := validation.Struct(req); err != nil {
		response.Error(w, r, err)
		return
	}

	user, err := h.Users.FindByLogin(ctx, req.Username, req.Email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			err = errs.New(errs.ErrNotFound, "user does not exist")
		}
		response.Error(w, r, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		response.Error(w, r, errs.New(errs.ErrUnauthenticated, "invalid user credentials"))
		return
	}

	tokens, err := h.Tokens.IssueTokenPair(ctx, user.ID)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	setSessionCookies(w, tokens, h.SameSite)
	public := user.Public()
	response.OK(w, r, sessionResponse{
		User:         &public,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "User logged in successfully")
}

// Logout handles POST /api/v1/users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	if err := h.Tokens.Revoke(r.Context(), user.ID); err != nil {
		response.Error(w, r, err)
		return
	}

	clearSessionCookies(w, h.SameSite)
	response.OK(w, r, struct{}{}, "User logged out")
}

// RefreshToken handles POST /api/v1/users/refresh-token. The refreshToken cookie
// takes precedence over a JSON body.
func (h UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var token string
	if cookie, err := r.Cookie(auth.RefreshTokenCookie); err == nil {
		token = strings.TrimSpace(cookie.Value)
	}
	if token == "" && r.ContentLength != 0 {
		var req refreshRequest
		if err := decodeJSON(w, r, &req); err != nil {
			response.Error(w, r, err)
			return
		}
		token = strings.TrimSpace(req.RefreshToken)
	}
	if token == "" {
		response.Error(w, r, errs.New(errs.ErrUnauthenticated, "unauthorized request"))
		return
	}

	tokens, err := h.Tokens.Rotate(r.Context(), token)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	setSessionCookies(w, tokens, h.SameSite)
	response.OK(w, r, sessionResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "Access token refreshed")
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		response.Error(w, r, err)
		return
	}

	user, err := h.Users.FindByID(ctx, current.ID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		response.Error(w, r, errs.New(errs.ErrUnauthenticated, "invalid old password"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		logging.FromContext(ctx).Error("change password failed to hash", "error", err)
		response.Error(w, r, errs.ErrInternal)
		return
	}
	if err := h.Users.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
		response.Error(w, r, err)
		return
	}

	response.OK(w, r, struct{}{}, "Password changed successfully")
}

// CurrentUser handles GET /api/v1/users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, user, "Current user fetched successfully")
}

// UpdateAccount handles PATCH /api/v1/users/update-account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	current, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	var req updateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, err)
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = normalize(req.Email)
	if err := validation.Struct(req); err != nil {
		response.Error(w, r, err)
		return
	}

	user, err := h.Users.UpdateAccount(r.Context(), current.ID, req.FullName, req.Email)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, user.Public(), "Account details updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "avatar", func(u models.User) string { return u.AvatarKey }, h.Users.UpdateAvatar)
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "coverImage", func(u models.User) string { return u.CoverImageKey }, h.Users.UpdateCoverImage)
}

type imageUpdater func(ctx context.Context, id string, asset models.MediaAsset) (models.User, error)

func (h UserHandler) replaceImage(w http.ResponseWriter, r *http.Request, field string, previousKey func(models.User) string, update imageUpdater) {
	ctx := r.Context()
	current, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	if err := h.Media.parseForm(w, r); err != nil {
		response.Error(w, r, err)
		return
	}
	path, err := h.Media.stage(r, field)
	defer cleanupRequest(ctx, r, path)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if path == "" {
		response.Error(w, r, errs.New(errs.ErrInvalidArgument, field+" file is missing"))
		return
	}

	asset, err := h.Media.upload(ctx, path, models.MediaKindImage)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	user, err := update(ctx, current.ID, asset)
	if err != nil {
		h.Media.Gateway.Discard(ctx, asset.Key)
		response.Error(w, r, err)
		return
	}

	if old := previousKey(current); old != "" && old != asset.Key {
		h.Media.Gateway.Discard(ctx, old)
	}
	response.OK(w, r, user.Public(), field+" updated successfully")
}

// Channel handles GET /api/v1/users/c/{username}.
func (h UserHandler) Channel(w http.ResponseWriter, r *http.Request) {
	viewer, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	username := normalize(chi.URLParam(r, "username"))
	if username == "" {
		response.Error(w, r, errs.New(errs.ErrInvalidArgument, "username is missing"))
		return
	}

	profile, err := h.Users.ChannelProfile(r.Context(), username, viewer.ID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			err = errs.New(errs.ErrNotFound, "channel does not exist")
		}
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, profile, "User channel fetched successfully")
}

// WatchHistory handles GET /api/v1/users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	history, err := h.Users.WatchHistory(r.Context(), user.ID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if history == nil {
		history = []models.WatchedVideo{}
	}
	response.OK(w, r, history, "Watch history fetched successfully")
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
