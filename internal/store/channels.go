package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/hardwaylabs/partnerbot/internal/domain"
)

// AddChannelParams carries the fields collected by the collaboration flow.
type AddChannelParams struct {
	UserID        int64
	Platform      domain.Platform
	Link          string
	Name          string
	ViewsCount    int
	TwitchViewers int
	Experience    string
	Frequency     string
	PromoCode     string
}

const channelColumns = `
	id, user_id, platform, link, name, views_count, twitch_viewers,
	experience, frequency, promo_code, status,
	total_requests, approved_requests, pending_requests, rejected_requests,
	pending_amount, total_earned, admin_comment, is_active, created_at
`

// ChannelExists reports whether an active, non-rejected channel with the
// given link is already registered on the platform, and whether the caller
// owns it. Rejected registrations do not block a retry.
func (s *Store) ChannelExists(ctx context.Context, link string, platform domain.Platform, userID int64) (exists, own bool, err error) {
	var ownerID int64
	err = s.db.GetContext(ctx, &ownerID, `
		SELECT user_id FROM channels
		WHERE link = $1 AND platform = $2 AND is_active AND status <> 'rejected'
		LIMIT 1
	`, link, platform)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, domain.Storef("channel_exists", err)
	}
	return true, ownerID == userID, nil
}

// PromoCodeInUse reports whether the promo code is held by an active channel
// of a different user. A user's own code never counts as taken.
func (s *Store) PromoCodeInUse(ctx context.Context, code string, userID int64) (bool, error) {
	var ownerID int64
	err := s.db.GetContext(ctx, &ownerID, `
		SELECT user_id FROM channels
		WHERE promo_code = $1 AND is_active
		LIMIT 1
	`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, domain.Storef("promo_code_in_use", err)
	}
	return ownerID != userID, nil
}

// AddOrReviveChannel inserts a new pending channel registration, or resets a
// previously rejected registration of the same (user, link, platform) to
// pending with the freshly collected fields. A non-rejected duplicate is a
// conflict.
func (s *Store) AddOrReviveChannel(ctx context.Context, p AddChannelParams) (int64, error) {
	var id int64
	err := s.inTx(ctx, "add_or_revive_channel", func(tx *sqlx.Tx) error {
		var existing struct {
			ID     int64         `db:"id"`
			Status domain.Status `db:"status"`
		}
		err := tx.GetContext(ctx, &existing, `
			SELECT id, status FROM channels
			WHERE user_id = $1 AND link = $2 AND platform = $3
			FOR UPDATE
		`, p.UserID, p.Link, p.Platform)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			err = tx.GetContext(ctx, &id, `
				INSERT INTO channels
					(user_id, platform, link, name, views_count, twitch_viewers,
					 experience, frequency, promo_code, status)
				VALUES ($1, $2, $3, $4, $5, $6,
					NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), 'pending')
				RETURNING id
			`, p.UserID, p.Platform, p.Link, p.Name, p.ViewsCount, p.TwitchViewers,
				p.Experience, p.Frequency, p.PromoCode)
			if constraint, ok := uniqueViolation(err); ok {
				return channelConflict(constraint)
			}
			return err
		case err != nil:
			return err
		}

		if existing.Status != domain.StatusRejected {
			return domain.Conflict("channel", "already registered on this platform")
		}
		id = existing.ID
		_, err = tx.ExecContext(ctx, `
			UPDATE channels SET
				status = 'pending',
				name = $1,
				views_count = $2,
				twitch_viewers = $3,
				experience = NULLIF($4, ''),
				frequency = NULLIF($5, ''),
				promo_code = NULLIF($6, ''),
				admin_comment = NULL
			WHERE id = $7
		`, p.Name, p.ViewsCount, p.TwitchViewers, p.Experience, p.Frequency, p.PromoCode, id)
		if constraint, ok := uniqueViolation(err); ok {
			return channelConflict(constraint)
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// channelConflict maps the unique constraint that fired on a channel write to
// the conflicting resource. The channels table carries two: the partial
// unique index on active promo codes and the (user_id, link, platform) key.
func channelConflict(constraint string) error {
	if strings.Contains(constraint, "promo") {
		return domain.Conflict("promo_code", "promo code already in use")
	}
	return domain.Conflict("channel", "already registered on this platform")
}

// UpdateChannelStatus applies an admin decision to a pending channel.
// Only pending channels can be approved or rejected.
func (s *Store) UpdateChannelStatus(ctx context.Context, id int64, status domain.Status, comment string) (*domain.Channel, error) {
	if status != domain.StatusApproved && status != domain.StatusRejected {
		return nil, domain.Conflict("channel", "channels can only be approved or rejected")
	}
	var ch domain.Channel
	err := s.inTx(ctx, "update_channel_status", func(tx *sqlx.Tx) error {
		var current domain.Status
		err := tx.GetContext(ctx, &current, `SELECT status FROM channels WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		if current != domain.StatusPending {
			return domain.Conflict("channel", "already decided")
		}
		return tx.GetContext(ctx, &ch, `
			UPDATE channels SET status = $1, admin_comment = NULLIF($2, '')
			WHERE id = $3
			RETURNING `+channelColumns+`
		`, status, comment, id)
	})
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// ChannelByID fetches one channel regardless of status.
func (s *Store) ChannelByID(ctx context.Context, id int64) (*domain.Channel, error) {
	var ch domain.Channel
	err := s.db.GetContext(ctx, &ch, `SELECT `+channelColumns+` FROM channels WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storef("channel_by_id", err)
	}
	return &ch, nil
}

// UserChannels lists a user's active channels grouped by platform.
func (s *Store) UserChannels(ctx context.Context, userID int64) ([]domain.Channel, error) {
	var channels []domain.Channel
	err := s.db.SelectContext(ctx, &channels, `
		SELECT `+channelColumns+` FROM channels
		WHERE user_id = $1 AND is_active
		ORDER BY platform, created_at
	`, userID)
	if err != nil {
		return nil, domain.Storef("user_channels", err)
	}
	return channels, nil
}

// PendingChannels lists channels awaiting review, oldest first.
func (s *Store) PendingChannels(ctx context.Context, limit, offset int) ([]domain.Channel, error) {
	var channels []domain.Channel
	err := s.db.SelectContext(ctx, &channels, `
		SELECT `+channelColumns+` FROM channels
		WHERE status = 'pending' AND is_active
		ORDER BY created_at
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, domain.Storef("pending_channels", err)
	}
	return channels, nil
}

// ChannelsByStatus lists decided registrations for history browsing, newest
// first. The pending queue stays on PendingChannels and its arrival order.
func (s *Store) ChannelsByStatus(ctx context.Context, status domain.Status, limit, offset int) ([]domain.Channel, error) {
	var channels []domain.Channel
	err := s.db.SelectContext(ctx, &channels, `
		SELECT `+channelColumns+` FROM channels
		WHERE status = $1 AND is_active
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, domain.Storef("channels_by_status", err)
	}
	return channels, nil
}

// CountChannelsByStatus returns the history size for pagination.
func (s *Store) CountChannelsByStatus(ctx context.Context, status domain.Status) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM channels WHERE status = $1 AND is_active
	`, status)
	if err != nil {
		return 0, domain.Storef("count_channels_by_status", err)
	}
	return n, nil
}

// CountPendingChannels returns the review backlog size for pagination.
func (s *Store) CountPendingChannels(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM channels WHERE status = 'pending' AND is_active
	`)
	if err != nil {
		return 0, domain.Storef("count_pending_channels", err)
	}
	return n, nil
}

// ApprovedUserChannel returns the user's approved channel on the platform,
// or ErrNotFound when none exists. An empty platform matches any.
func (s *Store) ApprovedUserChannel(ctx context.Context, userID int64, platform domain.Platform) (*domain.Channel, error) {
	var ch domain.Channel
	err := s.db.GetContext(ctx, &ch, `
		SELECT `+channelColumns+` FROM channels
		WHERE user_id = $1 AND ($2 = '' OR platform = $2)
			AND status = 'approved' AND is_active
		ORDER BY created_at
		LIMIT 1
	`, userID, platform)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storef("approved_user_channel", err)
	}
	return &ch, nil
}
