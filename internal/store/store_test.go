package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardwaylabs/partnerbot/internal/domain"
)

// testStore connects to the database named by TEST_DATABASE_URL and applies
// the migrations. Tests using it are skipped when the variable is unset.
func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	apply := func(name string) {
		raw, err := os.ReadFile(filepath.Join("..", "..", "migrations", name))
		require.NoError(t, err)
		_, err = db.Exec(string(raw))
		require.NoError(t, err)
	}
	apply("0001_init.up.sql")
	t.Cleanup(func() { apply("0001_init.down.sql") })

	return New(db)
}

func mustDate(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", raw)
	require.NoError(t, err)
	return d
}

func TestPaymentRequestLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	u, err := s.GetOrCreateUser(ctx, 555001, "lifecycle_blogger")
	require.NoError(t, err)

	chID, err := s.AddOrReviveChannel(ctx, AddChannelParams{
		UserID:     u.ID,
		Platform:   domain.PlatformYouTube,
		Link:       "https://www.youtube.com/@lifecycle",
		Name:       "lifecycle",
		ViewsCount: 5000,
		PromoCode:  "LIFE10",
	})
	require.NoError(t, err)
	_, err = s.UpdateChannelStatus(ctx, chID, domain.StatusApproved, "welcome aboard")
	require.NoError(t, err)

	reqID, err := s.CreatePaymentRequest(ctx, CreatePaymentRequestParams{
		ChannelID:       chID,
		ContentLink:     "https://youtu.be/lifecycle1",
		ContentType:     domain.ContentVideo,
		Views:           4000,
		RequestedAmount: 200,
	})
	require.NoError(t, err)

	req, err := s.PaymentRequestByID(ctx, reqID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, req.Status)
	assert.InDelta(t, 200, req.RequestedAmount, 0.001)

	ch, err := s.ChannelByID(ctx, chID)
	require.NoError(t, err)
	assert.Equal(t, 1, ch.TotalRequests)
	assert.Equal(t, 1, ch.PendingRequests)
	assert.InDelta(t, 200, ch.PendingAmount, 0.001)

	// More than was requested never goes through.
	_, err = s.UpdatePaymentRequestStatus(ctx, reqID, domain.StatusApproved, 300, "generous")
	assert.True(t, domain.IsValidation(err))

	req, err = s.UpdatePaymentRequestStatus(ctx, reqID, domain.StatusApproved, 150, "partial payout")
	require.NoError(t, err)
	require.True(t, req.ApprovedAmount.Valid)
	assert.InDelta(t, 150, req.ApprovedAmount.Float64, 0.001)

	ch, err = s.ChannelByID(ctx, chID)
	require.NoError(t, err)
	assert.Equal(t, 0, ch.PendingRequests)
	assert.Equal(t, 1, ch.ApprovedRequests)
	assert.InDelta(t, 0, ch.PendingAmount, 0.001)
	assert.InDelta(t, 150, ch.TotalEarned, 0.001)

	_, err = s.UpdatePaymentRequestStatus(ctx, reqID, domain.StatusApproved, 100, "again")
	assert.True(t, domain.IsConflict(err))

	_, err = s.UpdatePaymentRequestStatus(ctx, reqID, domain.StatusPaid, 0, "")
	require.NoError(t, err)
}

func TestSavePaidContentApplicationRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	u, err := s.GetOrCreateUser(ctx, 555002, "roundtrip_blogger")
	require.NoError(t, err)

	id, err := s.SavePaidContentApplication(ctx, SavePaidContentParams{
		UserID:       u.ID,
		ContentType:  domain.ContentVideo,
		Link:         "https://youtu.be/roundtrip1",
		PublishDate:  mustDate(t, "2024-01-25"),
		InitialViews: 4500,
		Note:         "first one",
	})
	require.NoError(t, err)

	app, err := s.PaidContentByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, app.Status)
	assert.False(t, app.ChannelID.Valid)
	assert.Equal(t, "first one", app.Note.String)
}
