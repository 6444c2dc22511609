package store

import (
	"context"

	"github.com/hardwaylabs/partnerbot/internal/domain"
)

// UserStats aggregates one creator's channels, submissions, and earnings.
func (s *Store) UserStats(ctx context.Context, userID int64) (*domain.UserStats, error) {
	var st domain.UserStats
	err := s.db.GetContext(ctx, &st, `
		SELECT
			COUNT(*)                                          AS channels,
			COUNT(*) FILTER (WHERE status = 'approved')       AS approved_channels,
			COALESCE(SUM(total_earned), 0)                    AS total_earned,
			COALESCE(SUM(pending_amount), 0)                  AS pending_amount
		FROM channels
		WHERE user_id = $1 AND is_active
	`, userID)
	if err != nil {
		return nil, domain.Storef("user_stats", err)
	}

	err = s.db.GetContext(ctx, &st.Applications, `
		SELECT COUNT(*) FROM paid_content_applications WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, domain.Storef("user_stats", err)
	}

	var apps struct {
		Pending  int `db:"pending_apps"`
		Approved int `db:"approved_apps"`
		Rejected int `db:"rejected_apps"`
		Paid     int `db:"paid_apps"`
	}
	err = s.db.GetContext(ctx, &apps, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending')  AS pending_apps,
			COUNT(*) FILTER (WHERE status = 'approved') AS approved_apps,
			COUNT(*) FILTER (WHERE status = 'rejected') AS rejected_apps,
			COUNT(*) FILTER (WHERE status = 'paid')     AS paid_apps
		FROM paid_content_applications
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, domain.Storef("user_stats", err)
	}
	st.PendingApps = apps.Pending
	st.ApprovedApps = apps.Approved
	st.RejectedApps = apps.Rejected
	st.PaidApps = apps.Paid
	return &st, nil
}

// AdminStats aggregates the review workload across all users.
func (s *Store) AdminStats(ctx context.Context) (*domain.AdminStats, error) {
	var st domain.AdminStats
	err := s.db.GetContext(ctx, &st, `
		SELECT
			(SELECT COUNT(*) FROM users)                                               AS users,
			(SELECT COUNT(*) FROM channels WHERE is_active)                            AS channels,
			(SELECT COUNT(*) FROM channels WHERE status = 'pending' AND is_active)     AS pending_channels,
			(SELECT COUNT(*) FROM paid_content_applications WHERE status = 'pending')  AS pending_applications,
			(SELECT COUNT(*) FROM payment_requests WHERE status = 'pending')           AS pending_requests,
			(SELECT COALESCE(SUM(pending_amount), 0) FROM channels WHERE is_active)    AS pending_amount,
			(SELECT COALESCE(SUM(approved_amount), 0)
				FROM payment_requests WHERE status = 'paid')                           AS total_paid
	`)
	if err != nil {
		return nil, domain.Storef("admin_stats", err)
	}
	return &st, nil
}
