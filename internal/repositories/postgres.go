package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/errs"
	"github.com/videotube/backend/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translate maps driver failures onto the errs taxonomy. notFound is returned for
// missing rows and dangling foreign keys, conflict for unique violations.
func translate(err error, op string, notFound, conflict error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) && notFound != nil {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if conflict != nil {
				return conflict
			}
			return ErrConflict
		case pgForeignKeyViolation:
			if notFound != nil {
				return notFound
			}
			return ErrNotFound
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}

func notFound(entity string) error {
	return errs.New(errs.ErrNotFound, entity+" not found")
}

func notFoundOrUnauthorized(entity string) error {
	return errs.New(errs.ErrNotFoundOrUnauthorized, entity+" not found or not authorized")
}

// withTx runs fn in a transaction, committing when fn succeeds and rolling back otherwise.
func withTx(ctx context.Context, pool db.Pool, fn func(tx pgx.Tx) error) (err error) {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = fmt.Errorf("commit transaction: %w", e)
		}
	}()

	return fn(tx)
}

// countRows runs a COUNT query shared by the paginated listings.
func countRows(ctx context.Context, pool db.Pool, op, sql string, args ...any) (int64, error) {
	var total int64
	if err := pool.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

// nullableID turns an empty identifier into SQL NULL so it never matches a uuid column.
func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func pageArgs(page models.PageRequest) (int, int) {
	return page.Limit, page.Offset()
}

var (
	_ UserRepository         = (*PostgresUserRepository)(nil)
	_ VideoRepository        = (*PostgresVideoRepository)(nil)
	_ CommentRepository      = (*PostgresCommentRepository)(nil)
	_ TweetRepository        = (*PostgresTweetRepository)(nil)
	_ LikeRepository         = (*PostgresLikeRepository)(nil)
	_ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
	_ DashboardRepository    = (*PostgresDashboardRepository)(nil)
)
