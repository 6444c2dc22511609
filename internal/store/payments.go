package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/hardwaylabs/partnerbot/internal/domain"
)

// CreatePaymentRequestParams carries the fields of a new payment request.
type CreatePaymentRequestParams struct {
	ChannelID       int64
	ContentLink     string
	ContentType     domain.ContentType
	Views           int
	RequestedAmount float64
}

const paymentRequestColumns = `
	id, channel_id, content_link, content_type, views,
	requested_amount, approved_amount, status, admin_comment,
	created_at, decided_at
`

// CreatePaymentRequest inserts a pending request and bumps the owning
// channel's total/pending counters in the same transaction.
func (s *Store) CreatePaymentRequest(ctx context.Context, p CreatePaymentRequestParams) (int64, error) {
	var id int64
	err := s.inTx(ctx, "create_payment_request", func(tx *sqlx.Tx) error {
		var channelID int64
		err := tx.GetContext(ctx, &channelID, `SELECT id FROM channels WHERE id = $1 FOR UPDATE`, p.ChannelID)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		err = tx.GetContext(ctx, &id, `
			INSERT INTO payment_requests
				(channel_id, content_link, content_type, views, requested_amount, status)
			VALUES ($1, $2, $3, $4, $5, 'pending')
			RETURNING id
		`, p.ChannelID, p.ContentLink, p.ContentType, p.Views, p.RequestedAmount)
		if err != nil {
			return err
		}
		return applyCounterDelta(tx, p.ChannelID, deltaForCreate(p.RequestedAmount))
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdatePaymentRequestStatus applies an admin decision. The status flip and
// the channel counter adjustment commit together or not at all. An approved
// amount below the requested one is a partial approval; the difference never
// reaches the channel's earnings. Approving more than was requested is
// refused so total_earned can never exceed what the creator asked for.
func (s *Store) UpdatePaymentRequestStatus(ctx context.Context, id int64, status domain.Status, approvedAmount float64, comment string) (*domain.PaymentRequest, error) {
	var req domain.PaymentRequest
	err := s.inTx(ctx, "update_payment_request_status", func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &req, `
			SELECT `+paymentRequestColumns+` FROM payment_requests
			WHERE id = $1
			FOR UPDATE
		`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		if status == domain.StatusApproved && approvedAmount > req.RequestedAmount {
			return domain.Invalid("approved_amount", "exceeds the requested amount")
		}

		delta, ok := deltaForTransition(req.Status, status, req.RequestedAmount, approvedAmount)
		if !ok {
			return domain.Conflict("payment_request",
				"cannot move from "+string(req.Status)+" to "+string(status))
		}

		switch status {
		case domain.StatusApproved:
			err = tx.GetContext(ctx, &req, `
				UPDATE payment_requests SET
					status = $1, approved_amount = $2,
					admin_comment = NULLIF($3, ''), decided_at = NOW()
				WHERE id = $4
				RETURNING `+paymentRequestColumns+`
			`, status, approvedAmount, comment, id)
		case domain.StatusRejected:
			err = tx.GetContext(ctx, &req, `
				UPDATE payment_requests SET
					status = $1, admin_comment = NULLIF($2, ''), decided_at = NOW()
				WHERE id = $3
				RETURNING `+paymentRequestColumns+`
			`, status, comment, id)
		default:
			// Paid: the approval comment and amount stay as they are.
			err = tx.GetContext(ctx, &req, `
				UPDATE payment_requests SET status = $1
				WHERE id = $2
				RETURNING `+paymentRequestColumns+`
			`, status, id)
		}
		if err != nil {
			return err
		}
		return applyCounterDelta(tx, req.ChannelID, delta)
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// PaymentRequestByID fetches one request.
func (s *Store) PaymentRequestByID(ctx context.Context, id int64) (*domain.PaymentRequest, error) {
	var req domain.PaymentRequest
	err := s.db.GetContext(ctx, &req, `
		SELECT `+paymentRequestColumns+` FROM payment_requests WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storef("payment_request_by_id", err)
	}
	return &req, nil
}

// PendingPaymentRequests lists requests awaiting review, oldest first.
func (s *Store) PendingPaymentRequests(ctx context.Context, limit, offset int) ([]domain.PaymentRequest, error) {
	var reqs []domain.PaymentRequest
	err := s.db.SelectContext(ctx, &reqs, `
		SELECT `+paymentRequestColumns+` FROM payment_requests
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, domain.Storef("pending_payment_requests", err)
	}
	return reqs, nil
}

// PaymentRequestsByStatus lists decided requests for history browsing,
// newest first.
func (s *Store) PaymentRequestsByStatus(ctx context.Context, status domain.Status, limit, offset int) ([]domain.PaymentRequest, error) {
	var reqs []domain.PaymentRequest
	err := s.db.SelectContext(ctx, &reqs, `
		SELECT `+paymentRequestColumns+` FROM payment_requests
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, domain.Storef("payment_requests_by_status", err)
	}
	return reqs, nil
}

// CountPaymentRequestsByStatus returns the history size for pagination.
func (s *Store) CountPaymentRequestsByStatus(ctx context.Context, status domain.Status) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM payment_requests WHERE status = $1`, status)
	if err != nil {
		return 0, domain.Storef("count_payment_requests_by_status", err)
	}
	return n, nil
}

// CountPendingPaymentRequests returns the review backlog size.
func (s *Store) CountPendingPaymentRequests(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM payment_requests WHERE status = 'pending'`)
	if err != nil {
		return 0, domain.Storef("count_pending_payment_requests", err)
	}
	return n, nil
}
