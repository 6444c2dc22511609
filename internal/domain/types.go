package domain

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Platform is the closed set of platforms a channel can be registered on.
type Platform string

const (
	PlatformYouTube Platform = "youtube"
	PlatformTikTok  Platform = "tiktok"
	PlatformShorts  Platform = "shorts"
	PlatformTwitch  Platform = "twitch"
	PlatformOther   Platform = "other"
)

// ParsePlatform validates a raw platform value against the closed enum.
func ParsePlatform(raw string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case PlatformYouTube, PlatformTikTok, PlatformShorts, PlatformTwitch, PlatformOther:
		return p, nil
	}
	return "", fmt.Errorf("unknown platform %q", raw)
}

// ContentType is the closed set of paid content kinds.
type ContentType string

const (
	ContentStream ContentType = "stream"
	ContentShorts ContentType = "shorts"
	ContentVideo  ContentType = "video"
)

// ParseContentType validates a raw content type value against the closed enum.
func ParseContentType(raw string) (ContentType, error) {
	t := ContentType(strings.ToLower(strings.TrimSpace(raw)))
	switch t {
	case ContentStream, ContentShorts, ContentVideo:
		return t, nil
	}
	return "", fmt.Errorf("unknown content type %q", raw)
}

// Status is the shared lifecycle enum for channels, payment requests, and
// paid content applications. Channels never reach StatusPaid.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusPaid     Status = "paid"
)

// ParseStatus validates a raw status value against the closed enum.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusPaid:
		return s, nil
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// User is a Telegram identity known to the bot. Users are created on first
// interaction and never deleted. Whether a user is an approved blogger is
// derived from their channels, not stored here.
type User struct {
	ID         int64     `db:"id"`
	TelegramID int64     `db:"telegram_id"`
	Username   string    `db:"username"`
	CreatedAt  time.Time `db:"created_at"`
}

// Channel is a registered presence on a platform, owned by one user and
// subject to admin approval. The aggregate counters mirror the channel's
// payment requests per status and are adjusted transactionally with every
// request status change.
type Channel struct {
	ID               int64          `db:"id"`
	UserID           int64          `db:"user_id"`
	Platform         Platform       `db:"platform"`
	Link             string         `db:"link"`
	Name             string         `db:"name"`
	ViewsCount       int            `db:"views_count"`
	TwitchViewers    int            `db:"twitch_viewers"`
	Experience       sql.NullString `db:"experience"`
	Frequency        sql.NullString `db:"frequency"`
	PromoCode        sql.NullString `db:"promo_code"`
	Status           Status         `db:"status"`
	TotalRequests    int            `db:"total_requests"`
	ApprovedRequests int            `db:"approved_requests"`
	PendingRequests  int            `db:"pending_requests"`
	RejectedRequests int            `db:"rejected_requests"`
	PendingAmount    float64        `db:"pending_amount"`
	TotalEarned      float64        `db:"total_earned"`
	AdminComment     sql.NullString `db:"admin_comment"`
	IsActive         bool           `db:"is_active"`
	CreatedAt        time.Time      `db:"created_at"`
}

// PaymentRequest asks for payment against a specific piece of content
// published on an approved channel.
type PaymentRequest struct {
	ID              int64           `db:"id"`
	ChannelID       int64           `db:"channel_id"`
	ContentLink     string          `db:"content_link"`
	ContentType     ContentType     `db:"content_type"`
	Views           int             `db:"views"`
	RequestedAmount float64         `db:"requested_amount"`
	ApprovedAmount  sql.NullFloat64 `db:"approved_amount"`
	Status          Status          `db:"status"`
	AdminComment    sql.NullString  `db:"admin_comment"`
	CreatedAt       time.Time       `db:"created_at"`
	DecidedAt       sql.NullTime    `db:"decided_at"`
}

// PaidContentApplication is a creator's submission of published paid content
// for review. It is created by the submission flow and mutated only by admin
// review actions.
type PaidContentApplication struct {
	ID             int64           `db:"id"`
	UserID         int64           `db:"user_id"`
	ChannelID      sql.NullInt64   `db:"channel_id"`
	ContentType    ContentType     `db:"content_type"`
	Link           string          `db:"link"`
	ScreenshotLink sql.NullString  `db:"screenshot_link"`
	PublishDate    time.Time       `db:"publish_date"`
	InitialViews   int             `db:"initial_views"`
	CurrentViews   sql.NullInt64   `db:"current_views"`
	PaymentAmount  sql.NullFloat64 `db:"payment_amount"`
	Note           sql.NullString  `db:"note"`
	Status         Status          `db:"status"`
	AdminComment   sql.NullString  `db:"admin_comment"`
	CreatedAt      time.Time       `db:"created_at"`
}

// UserStats aggregates a creator's submissions and earnings.
type UserStats struct {
	Channels         int     `db:"channels"`
	ApprovedChannels int     `db:"approved_channels"`
	Applications     int     `db:"applications"`
	PendingApps      int     `db:"pending_apps"`
	ApprovedApps     int     `db:"approved_apps"`
	RejectedApps     int     `db:"rejected_apps"`
	PaidApps         int     `db:"paid_apps"`
	TotalEarned      float64 `db:"total_earned"`
	PendingAmount    float64 `db:"pending_amount"`
}

// AdminStats aggregates the review workload across all users.
type AdminStats struct {
	Users               int     `db:"users"`
	Channels            int     `db:"channels"`
	PendingChannels     int     `db:"pending_channels"`
	PendingApplications int     `db:"pending_applications"`
	PendingRequests     int     `db:"pending_requests"`
	PendingAmount       float64 `db:"pending_amount"`
	TotalPaid           float64 `db:"total_paid"`
}
