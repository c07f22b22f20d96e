package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/errs"
	"github.com/videotube/backend/internal/models"
)

// UserRepository defines the data access contract for users and their channels.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, username, email string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAccount(ctx context.Context, id, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, id string, asset models.MediaAsset) (models.User, error)
	UpdateCoverImage(ctx context.Context, id string, asset models.MediaAsset) (models.User, error)
	SetRefreshToken(ctx context.Context, userID, tokenHash string) error
	SwapRefreshToken(ctx context.Context, userID, currentHash, nextHash string) error
	ClearRefreshToken(ctx context.Context, userID string) error
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error)
}

const userColumns = `id, username, email, full_name, avatar_url, avatar_key, cover_image_url, cover_image_key,
        password_hash, COALESCE(refresh_token_hash, ''), created_at, updated_at`

var errUserConflict = errs.New(errs.ErrConflict, "user with email or username already exists")

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record. Username and email must already be normalised.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO users (id, username, email, full_name, avatar_url, avatar_key, cover_image_url, cover_image_key, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, user.ID, user.Username, user.Email, user.FullName, user.AvatarURL, user.AvatarKey,
		user.CoverImageURL, user.CoverImageKey, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	return translate(err, "insert user", nil, errUserConflict)
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, translate(err, "select user by id", notFound("user"), nil)
	}
	return user, nil
}

// FindByLogin fetches a user matching either the username or the email.
func (r *PostgresUserRepository) FindByLogin(ctx context.Context, username, email string) (models.User, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2)
        LIMIT 1
    `, username, email)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, translate(err, "select user by login", notFound("user"), nil)
	}
	return user, nil
}

// UpdatePassword stores a new password hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE users
        SET password_hash = $2, updated_at = NOW()
        WHERE id = $1
    `, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("user")
	}
	return nil
}

// UpdateAccount changes the display name and email.
func (r *PostgresUserRepository) UpdateAccount(ctx context.Context, id, fullName, email string) (models.User, error) {
	row := r.pool.QueryRow(ctx, `
        UPDATE users
        SET full_name = $2, email = $3, updated_at = NOW()
        WHERE id = $1
        RETURNING `+userColumns, id, fullName, email)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, translate(err, "update account", notFound("user"), errUserConflict)
	}
	return user, nil
}

// UpdateAvatar points the user at a newly uploaded avatar.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, id string, asset models.MediaAsset) (models.User, error) {
	row := r.pool.QueryRow(ctx, `
        UPDATE users
        SET avatar_url = $2, avatar_key = $3, updated_at = NOW()
        WHERE id = $1
        RETURNING `+userColumns, id, asset.URL, asset.Key)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, translate(err, "update avatar", notFound("user"), nil)
	}
	return user, nil
}

// UpdateCoverImage points the user at a newly uploaded cover image.
func (r *PostgresUserRepository) UpdateCoverImage(ctx context.Context, id string, asset models.MediaAsset) (models.User, error) {
	row := r.pool.QueryRow(ctx, `
        UPDATE users
        SET cover_image_url = $2, cover_image_key = $3, updated_at = NOW()
        WHERE id = $1
        RETURNING `+userColumns, id, asset.URL, asset.Key)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, translate(err, "update cover image", notFound("user"), nil)
	}
	return user, nil
}

// SetRefreshToken overwrites the stored refresh token digest.
func (r *PostgresUserRepository) SetRefreshToken(ctx context.Context, userID, tokenHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET refresh_token_hash = $2 WHERE id = $1`, userID, tokenHash)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("user")
	}
	return nil
}

// SwapRefreshToken replaces the stored digest only if it still equals currentHash.
func (r *PostgresUserRepository) SwapRefreshToken(ctx context.Context, userID, currentHash, nextHash string) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE users
        SET refresh_token_hash = $3
        WHERE id = $1 AND refresh_token_hash = $2
    `, userID, currentHash, nextHash)
	if err != nil {
		return fmt.Errorf("swap refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearRefreshToken removes the stored digest. Missing users are not an error.
func (r *PostgresUserRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, `UPDATE users SET refresh_token_hash = NULL WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// ChannelProfile resolves a channel by username along with its subscription counters
// and whether viewerID subscribes to it.
func (r *PostgresUserRepository) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT u.id, u.username, u.full_name, u.email, u.avatar_url, u.cover_image_url,
               (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id),
               (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id),
               EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = $2)
        FROM users u
        WHERE u.username = $1
    `, username, nullableID(viewerID))

	var p models.ChannelProfile
	err := row.Scan(&p.ID, &p.Username, &p.FullName, &p.Email, &p.AvatarURL, &p.CoverImageURL,
		&p.SubscribersCount, &p.ChannelsSubscribedToCount, &p.IsSubscribed)
	if err != nil {
		return models.ChannelProfile{}, translate(err, "select channel profile", notFound("channel"), nil)
	}
	return p, nil
}

// WatchHistory returns the user's watched videos, most recent first, with owners resolved.
func (r *PostgresUserRepository) WatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT `+prefixedVideoColumns+`,
               o.id, o.username, o.full_name, o.avatar_url, h.watched_at
        FROM watch_history h
        JOIN videos v ON v.id = h.video_id
        JOIN users o ON o.id = v.owner_id
        WHERE h.user_id = $1 AND (v.is_published OR v.owner_id = $1)
        ORDER BY h.watched_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	history := []models.WatchedVideo{}
	for rows.Next() {
		var w models.WatchedVideo
		dest := append(videoDest(&w.Video), &w.Owner.ID, &w.Owner.Username, &w.Owner.FullName, &w.Owner.AvatarURL, &w.WatchedAt)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan watch history: %w", err)
		}
		history = append(history, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return history, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var (
		user        models.User
		refreshHash string
	)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.AvatarURL, &user.AvatarKey,
		&user.CoverImageURL, &user.CoverImageKey, &user.PasswordHash, &refreshHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return models.User{}, err
	}
	if refreshHash != "" {
		user.RefreshTokenHash = &refreshHash
	}
	return user, nil
}
