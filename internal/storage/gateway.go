// Package storage moves uploaded media from local staging files into the object store.
package storage

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
	"time"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/errs"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/metrics"
	"github.com/videotube/backend/internal/models"
)

// ObjectStore is the remote side of the gateway.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Gateway uploads staged files and removes previously uploaded assets. Calls to the
// object store run behind a circuit breaker so an unavailable store fails requests
// immediately instead of holding them for the full upload timeout.
type Gateway struct {
	store   ObjectStore
	breaker *gobreaker.CircuitBreaker[string]
	now     func() time.Time
}

// NewGateway wraps store with a breaker that opens after cfg.BreakerFailures
// consecutive failures and probes again after cfg.BreakerOpenDelay.
func NewGateway(store ObjectStore, cfg config.ObjectStoreConfig) *Gateway {
	if store == nil {
		panic("storage: object store is required")
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	openDelay := cfg.BreakerOpenDelay
	if openDelay <= 0 {
		openDelay = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "object-store",
		MaxRequests: 1,
		Timeout:     openDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			metrics.UploadBreakerState.Set(float64(to))
		},
	})

	return &Gateway{store: store, breaker: breaker, now: time.Now}
}

// Upload sends the file at localPath to the object store and returns its durable
// location. The local file is removed whether or not the upload succeeds.
func (g *Gateway) Upload(ctx context.Context, localPath string, kind models.MediaKind) (models.MediaAsset, error) {
	ctx, span := logging.StartSpan(ctx, "media.upload", slog.String("kind", string(kind)))
	defer span.End()
	defer removeStaged(ctx, localPath)

	start := g.now()
	asset, result, err := g.upload(ctx, localPath, kind)
	metrics.RecordUpload(string(kind), result, g.now().Sub(start))
	if err != nil {
		span.Fail(err)
		return models.MediaAsset{}, err
	}
	return asset, nil
}

func (g *Gateway) upload(ctx context.Context, localPath string, kind models.MediaKind) (models.MediaAsset, string, error) {
	if strings.TrimSpace(localPath) == "" {
		return models.MediaAsset{}, "rejected", errs.New(errs.ErrInvalidArgument, fmt.Sprintf("%s file is required", kind))
	}

	file, err := os.Open(localPath)
	if err != nil {
		logging.FromContext(ctx).Error("open staged upload", slog.String("path", localPath), slog.Any("error", err))
		return models.MediaAsset{}, "failed", errs.New(errs.ErrUploadFailed, fmt.Sprintf("failed to upload %s", kind))
	}
	defer file.Close()

	contentType, err := sniffContentType(file)
	if err != nil {
		logging.FromContext(ctx).Error("read staged upload", slog.String("path", localPath), slog.Any("error", err))
		return models.MediaAsset{}, "failed", errs.New(errs.ErrUploadFailed, fmt.Sprintf("failed to upload %s", kind))
	}
	if !acceptable(kind, contentType) {
		return models.MediaAsset{}, "rejected", errs.New(errs.ErrInvalidArgument, fmt.Sprintf("unsupported %s content type %s", kind, contentType))
	}

	key := fmt.Sprintf("%s/%s%s", kind, uuid.NewString(), strings.ToLower(filepath.Ext(localPath)))
	url, err := g.breaker.Execute(func() (string, error) {
		return g.store.Put(ctx, key, file, contentType)
	})
	if err != nil {
		logging.FromContext(ctx).Error("object store upload failed",
			slog.String("key", key),
			slog.Bool("breaker_open", errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)),
			slog.Any("error", err),
		)
		return models.MediaAsset{}, "failed", errs.New(errs.ErrUploadFailed, fmt.Sprintf("failed to upload %s", kind))
	}

	return models.MediaAsset{URL: url, Key: key}, "ok", nil
}

// Destroy removes a previously uploaded asset. An empty key is a no-op.
func (g *Gateway) Destroy(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	_, err := g.breaker.Execute(func() (string, error) {
		return "", g.store.Delete(ctx, key)
	})
	if err != nil {
		return fmt.Errorf("destroy %s: %w", key, err)
	}
	return nil
}

// Discard destroys each asset and logs failures instead of returning them.
func (g *Gateway) Discard(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := g.Destroy(ctx, key); err != nil {
			logging.FromContext(ctx).Warn("media cleanup failed", slog.String("key", key), slog.Any("error", err))
		}
	}
}

func sniffContentType(file *os.File) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}

func acceptable(kind models.MediaKind, contentType string) bool {
	switch kind {
	case models.MediaKindImage:
		return strings.HasPrefix(contentType, "image/")
	case models.MediaKindVideo:
		return strings.HasPrefix(contentType, "video/") ||
			strings.HasPrefix(contentType, "application/octet-stream") ||
			strings.HasPrefix(contentType, "audio/")
	default:
		return false
	}
}

func removeStaged(ctx context.Context, path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.FromContext(ctx).Warn("remove staged upload", slog.String("path", path), slog.Any("error", err))
	}
}
