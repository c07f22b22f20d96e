package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/videotube/backend/internal/errs"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
)

const multipartMemory = 32 << 20

// Media bundles the gateway with the local staging settings used by upload endpoints.
type Media struct {
	Gateway        MediaGateway
	TempDir        string
	MaxUploadBytes int64
}

// parseForm parses a multipart body, spilling large parts to disk.
func (m Media) parseForm(w http.ResponseWriter, r *http.Request) error {
	if m.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, m.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.New(errs.ErrInvalidArgument, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
		}
		return errs.New(errs.ErrInvalidArgument, "invalid multipart form")
	}
	return nil
}

// stage copies the uploaded file in field to a temporary file under TempDir and
// returns its path. A missing field yields an empty path.
func (m Media) stage(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", errs.New(errs.ErrInvalidArgument, fmt.Sprintf("invalid %s file", field))
	}
	defer file.Close()

	dir := m.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	out, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}

	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("stage %s: %w", field, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("stage %s: %w", field, err)
	}
	return out.Name(), nil
}

// upload sends a staged file through the gateway. An empty path is not an error and
// yields a zero asset.
func (m Media) upload(ctx context.Context, path string, kind models.MediaKind) (models.MediaAsset, error) {
	if path == "" {
		return models.MediaAsset{}, nil
	}
	return m.Gateway.Upload(ctx, path, kind)
}

// cleanupRequest removes multipart spill files and any staged files the handler
// never handed to the gateway.
func cleanupRequest(ctx context.Context, r *http.Request, staged ...string) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
	for _, path := range staged {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.FromContext(ctx).Warn("remove staged upload", slog.String("path", path), slog.Any("error", err))
		}
	}
}
