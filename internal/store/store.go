// Package store is the relational persistence layer. All methods return
// typed errors: domain.ErrNotFound for missing rows, *domain.ConflictError
// for uniqueness clashes and illegal transitions, *domain.StoreError for
// infrastructure failures. Counter mutations always share a transaction with
// the status change that causes them.
package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hardwaylabs/partnerbot/core/logger"
	"github.com/hardwaylabs/partnerbot/internal/domain"
)

// Store wraps the shared database handle.
type Store struct {
	db *sqlx.DB
}

// New builds a Store over an already connected pool.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// inTx runs fn inside a transaction and wraps any failure as a StoreError
// carrying op. Domain errors raised inside fn pass through unwrapped.
func (s *Store) inTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Storef(op, err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Event(ctx, "store", slog.LevelWarn, "tx.rollback",
				slog.String("op", op),
				slog.String("err", rbErr.Error()))
		}
		return domain.Storef(op, err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Storef(op, err)
	}
	return nil
}

// uniqueViolation reports whether err is a unique-constraint violation and
// names the constraint that fired, so callers can map it to the right
// conflicting resource.
func uniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return pqErr.Constraint, true
	}
	return "", false
}

// applyCounterDelta adjusts a channel's aggregate counters inside tx.
func applyCounterDelta(tx *sqlx.Tx, channelID int64, d counterDelta) error {
	if d.isZero() {
		return nil
	}
	res, err := tx.Exec(`
		UPDATE channels SET
			total_requests    = total_requests + $1,
			pending_requests  = pending_requests + $2,
			approved_requests = approved_requests + $3,
			rejected_requests = rejected_requests + $4,
			pending_amount    = pending_amount + $5,
			total_earned      = total_earned + $6
		WHERE id = $7
	`, d.Total, d.Pending, d.Approved, d.Rejected, d.PendingAmount, d.TotalEarned, channelID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetOrCreateUser registers a Telegram identity on first contact and keeps
// the stored username in sync on every later one.
func (s *Store) GetOrCreateUser(ctx context.Context, telegramID int64, username string) (*domain.User, error) {
	var u domain.User
	err := s.db.GetContext(ctx, &u, `
		INSERT INTO users (telegram_id, username)
		VALUES ($1, $2)
		ON CONFLICT (telegram_id) DO UPDATE SET username = EXCLUDED.username
		RETURNING id, telegram_id, username, created_at
	`, telegramID, username)
	if err != nil {
		return nil, domain.Storef("get_or_create_user", err)
	}
	return &u, nil
}

// UserTelegramID resolves an internal user id to the Telegram chat id used
// for outbound notifications.
func (s *Store) UserTelegramID(ctx context.Context, userID int64) (int64, error) {
	var tgID int64
	err := s.db.GetContext(ctx, &tgID, `SELECT telegram_id FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, domain.Storef("user_telegram_id", err)
	}
	return tgID, nil
}

// ChannelOwnerTelegramID resolves a channel to its owner's Telegram chat id.
func (s *Store) ChannelOwnerTelegramID(ctx context.Context, channelID int64) (int64, error) {
	var tgID int64
	err := s.db.GetContext(ctx, &tgID, `
		SELECT u.telegram_id FROM channels c
		JOIN users u ON u.id = c.user_id
		WHERE c.id = $1
	`, channelID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, domain.Storef("channel_owner_telegram_id", err)
	}
	return tgID, nil
}
