package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hardwaylabs/partnerbot/internal/domain"
)

// SavePaidContentParams carries the fields collected by the submission flow.
type SavePaidContentParams struct {
	UserID         int64
	ChannelID      int64
	ContentType    domain.ContentType
	Link           string
	ScreenshotLink string
	PublishDate    time.Time
	InitialViews   int
	Note           string
}

const paidContentColumns = `
	id, user_id, channel_id, content_type, link, screenshot_link,
	publish_date, initial_views, current_views, payment_amount,
	note, status, admin_comment, created_at
`

func insertPaidContent(ctx context.Context, ext sqlx.ExtContext, p SavePaidContentParams) (int64, error) {
	var channelID any
	if p.ChannelID != 0 {
		channelID = p.ChannelID
	}
	var id int64
	err := sqlx.GetContext(ctx, ext, &id, `
		INSERT INTO paid_content_applications
			(user_id, channel_id, content_type, link, screenshot_link,
			 publish_date, initial_views, note, status)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, NULLIF($8, ''), 'pending')
		RETURNING id
	`, p.UserID, channelID, p.ContentType, p.Link, p.ScreenshotLink,
		p.PublishDate, p.InitialViews, p.Note)
	return id, err
}

// SavePaidContentApplication inserts a pending submission.
func (s *Store) SavePaidContentApplication(ctx context.Context, p SavePaidContentParams) (int64, error) {
	id, err := insertPaidContent(ctx, s.db, p)
	if err != nil {
		return 0, domain.Storef("save_paid_content", err)
	}
	return id, nil
}

// SubmitPaidContent inserts a submission and, when it is tied to a channel
// and asks for money, the matching pending payment request with the channel
// counter bump, all in one transaction.
func (s *Store) SubmitPaidContent(ctx context.Context, p SavePaidContentParams, requestedAmount float64) (appID, requestID int64, err error) {
	err = s.inTx(ctx, "submit_paid_content", func(tx *sqlx.Tx) error {
		appID, err = insertPaidContent(ctx, tx, p)
		if err != nil {
			return err
		}
		if p.ChannelID == 0 || requestedAmount <= 0 {
			return nil
		}
		err = tx.GetContext(ctx, &requestID, `
			INSERT INTO payment_requests
				(channel_id, content_link, content_type, views, requested_amount, status)
			VALUES ($1, $2, $3, $4, $5, 'pending')
			RETURNING id
		`, p.ChannelID, p.Link, p.ContentType, p.InitialViews, requestedAmount)
		if err != nil {
			return err
		}
		return applyCounterDelta(tx, p.ChannelID, deltaForCreate(requestedAmount))
	})
	if err != nil {
		return 0, 0, err
	}
	return appID, requestID, nil
}

// UpdatePaidContentStatus applies an admin decision to a submission.
// Pending submissions can be approved or rejected; approved ones can be
// marked paid once the payout is done.
func (s *Store) UpdatePaidContentStatus(ctx context.Context, id int64, status domain.Status, currentViews int, paymentAmount float64, comment string) (*domain.PaidContentApplication, error) {
	var app domain.PaidContentApplication
	err := s.inTx(ctx, "update_paid_content_status", func(tx *sqlx.Tx) error {
		var current domain.Status
		err := tx.GetContext(ctx, &current, `
			SELECT status FROM paid_content_applications WHERE id = $1 FOR UPDATE
		`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		if !legalPaidContentTransition(current, status) {
			return domain.Conflict("application",
				"cannot move from "+string(current)+" to "+string(status))
		}

		var views, amount any
		if currentViews > 0 {
			views = currentViews
		}
		if paymentAmount > 0 {
			amount = paymentAmount
		}
		return tx.GetContext(ctx, &app, `
			UPDATE paid_content_applications SET
				status = $1,
				current_views = COALESCE($2, current_views),
				payment_amount = COALESCE($3, payment_amount),
				admin_comment = NULLIF($4, '')
			WHERE id = $5
			RETURNING `+paidContentColumns+`
		`, status, views, amount, comment, id)
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func legalPaidContentTransition(from, to domain.Status) bool {
	switch {
	case from == domain.StatusPending && (to == domain.StatusApproved || to == domain.StatusRejected):
		return true
	case from == domain.StatusApproved && to == domain.StatusPaid:
		return true
	}
	return false
}

// PaidContentByID fetches one submission.
func (s *Store) PaidContentByID(ctx context.Context, id int64) (*domain.PaidContentApplication, error) {
	var app domain.PaidContentApplication
	err := s.db.GetContext(ctx, &app, `
		SELECT `+paidContentColumns+` FROM paid_content_applications WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storef("paid_content_by_id", err)
	}
	return &app, nil
}

// PendingPaidContent lists submissions awaiting review, oldest first so the
// queue is worked in arrival order.
func (s *Store) PendingPaidContent(ctx context.Context, limit, offset int) ([]domain.PaidContentApplication, error) {
	var apps []domain.PaidContentApplication
	err := s.db.SelectContext(ctx, &apps, `
		SELECT `+paidContentColumns+` FROM paid_content_applications
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, domain.Storef("pending_paid_content", err)
	}
	return apps, nil
}

// PaidContentByStatus lists decided submissions for history browsing,
// newest first.
func (s *Store) PaidContentByStatus(ctx context.Context, status domain.Status, limit, offset int) ([]domain.PaidContentApplication, error) {
	var apps []domain.PaidContentApplication
	err := s.db.SelectContext(ctx, &apps, `
		SELECT `+paidContentColumns+` FROM paid_content_applications
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, domain.Storef("paid_content_by_status", err)
	}
	return apps, nil
}

// CountPaidContentByStatus returns the history size for pagination.
func (s *Store) CountPaidContentByStatus(ctx context.Context, status domain.Status) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM paid_content_applications WHERE status = $1
	`, status)
	if err != nil {
		return 0, domain.Storef("count_paid_content_by_status", err)
	}
	return n, nil
}

// CountPendingPaidContent returns the review backlog size.
func (s *Store) CountPendingPaidContent(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM paid_content_applications WHERE status = 'pending'`)
	if err != nil {
		return 0, domain.Storef("count_pending_paid_content", err)
	}
	return n, nil
}

// UserPaidContent lists a user's own submissions, newest first.
func (s *Store) UserPaidContent(ctx context.Context, userID int64, limit, offset int) ([]domain.PaidContentApplication, error) {
	var apps []domain.PaidContentApplication
	err := s.db.SelectContext(ctx, &apps, `
		SELECT `+paidContentColumns+` FROM paid_content_applications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, domain.Storef("user_paid_content", err)
	}
	return apps, nil
}

// CountUserPaidContent returns the size of a user's submission history.
func (s *Store) CountUserPaidContent(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM paid_content_applications WHERE user_id = $1
	`, userID)
	if err != nil {
		return 0, domain.Storef("count_user_paid_content", err)
	}
	return n, nil
}
