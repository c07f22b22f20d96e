package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/errs"
	"github.com/videotube/backend/internal/models"
)

const maxJSONBody = 1 << 20

var lower = cases.Lower(language.Und)

// normalize trims and lower-cases usernames and emails so uniqueness ignores case.
func normalize(s string) string {
	return lower.String(strings.TrimSpace(s))
}

func currentUser(r *http.Request) (models.User, error) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user.ID == "" {
		return models.User{}, errs.New(errs.ErrUnauthenticated, "unauthorized request")
	}
	return user, nil
}

// pathID reads a chi URL parameter and requires it to be a canonical UUID.
func pathID(r *http.Request, param, label string) (string, error) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	if raw == "" {
		return "", errs.New(errs.ErrInvalidArgument, fmt.Sprintf("%s is required", label))
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", errs.New(errs.ErrInvalidArgument, fmt.Sprintf("invalid %s", label))
	}
	return id.String(), nil
}

func queryID(r *http.Request, param, label string) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(param))
	if raw == "" {
		return "", nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", errs.New(errs.ErrInvalidArgument, fmt.Sprintf("invalid %s", label))
	}
	return id.String(), nil
}

// pageRequest parses the page and limit query parameters. Missing values take the
// defaults and limit is capped at models.MaxLimit.
func pageRequest(r *http.Request) (models.PageRequest, error) {
	page, err := positiveQueryInt(r, "page", models.DefaultPage)
	if err != nil {
		return models.PageRequest{}, err
	}
	limit, err := positiveQueryInt(r, "limit", models.DefaultLimit)
	if err != nil {
		return models.PageRequest{}, err
	}
	if limit > models.MaxLimit {
		limit = models.MaxLimit
	}
	if page > models.MaxPage(limit) {
		return models.PageRequest{}, errs.New(errs.ErrInvalidArgument, "page is out of range")
	}
	return models.PageRequest{Page: page, Limit: limit}, nil
}

func positiveQueryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errs.New(errs.ErrInvalidArgument, fmt.Sprintf("%s must be a positive integer", name))
	}
	return n, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errs.New(errs.ErrInvalidArgument, "request body is required")
		}
		return errs.New(errs.ErrInvalidArgument, "invalid request body")
	}
	return nil
}
