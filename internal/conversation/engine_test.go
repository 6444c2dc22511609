package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardwaylabs/partnerbot/core/config"
	"github.com/hardwaylabs/partnerbot/core/telegram/state"
	"github.com/hardwaylabs/partnerbot/internal/domain"
	"github.com/hardwaylabs/partnerbot/internal/store"
)

type fakeStore struct {
	addParams    store.AddChannelParams
	addErr       error
	addCalls     int
	nextID       int64
	existing     map[string]int64 // link -> owner user id
	promoOwners  map[string]int64 // code -> owner user id
	approved     map[int64]*domain.Channel
	channels     map[int64]*domain.Channel
	requests     map[int64]*domain.PaymentRequest
	apps         map[int64]*domain.PaidContentApplication
	saveParams   store.SavePaidContentParams
	saveCalls    int
	submitParams store.SavePaidContentParams
	submitAmount float64
	submitErr    error
	updatedReq   *domain.PaymentRequest
	updateReqErr error
	reqStatus    domain.Status
	reqAmount    float64
	reqComment   string
	telegramIDs  map[int64]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:      1,
		existing:    map[string]int64{},
		promoOwners: map[string]int64{},
		approved:    map[int64]*domain.Channel{},
		channels:    map[int64]*domain.Channel{},
		requests:    map[int64]*domain.PaymentRequest{},
		apps:        map[int64]*domain.PaidContentApplication{},
		telegramIDs: map[int64]int64{},
	}
}

func (f *fakeStore) ChannelExists(_ context.Context, link string, _ domain.Platform, userID int64) (bool, bool, error) {
	owner, ok := f.existing[link]
	return ok, ok && owner == userID, nil
}

func (f *fakeStore) PromoCodeInUse(_ context.Context, code string, userID int64) (bool, error) {
	owner, ok := f.promoOwners[code]
	return ok && owner != userID, nil
}

func (f *fakeStore) AddOrReviveChannel(_ context.Context, p store.AddChannelParams) (int64, error) {
	f.addCalls++
	if f.addErr != nil {
		return 0, f.addErr
	}
	f.addParams = p
	id := f.nextID
	f.nextID++
	return id, nil
}

func (f *fakeStore) ApprovedUserChannel(_ context.Context, userID int64, _ domain.Platform) (*domain.Channel, error) {
	if ch, ok := f.approved[userID]; ok {
		return ch, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeStore) ChannelByID(_ context.Context, id int64) (*domain.Channel, error) {
	if ch, ok := f.channels[id]; ok {
		return ch, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeStore) PaymentRequestByID(_ context.Context, id int64) (*domain.PaymentRequest, error) {
	if req, ok := f.requests[id]; ok {
		return req, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeStore) PaidContentByID(_ context.Context, id int64) (*domain.PaidContentApplication, error) {
	if app, ok := f.apps[id]; ok {
		return app, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeStore) SavePaidContentApplication(_ context.Context, p store.SavePaidContentParams) (int64, error) {
	f.saveCalls++
	f.saveParams = p
	id := f.nextID
	f.nextID++
	return id, nil
}

func (f *fakeStore) SubmitPaidContent(_ context.Context, p store.SavePaidContentParams, requested float64) (int64, int64, error) {
	if f.submitErr != nil {
		return 0, 0, f.submitErr
	}
	f.submitParams = p
	f.submitAmount = requested
	id := f.nextID
	f.nextID++
	return id, id + 100, nil
}

func (f *fakeStore) UpdateChannelStatus(_ context.Context, id int64, status domain.Status, comment string) (*domain.Channel, error) {
	return &domain.Channel{ID: id, Status: status, UserID: 1}, nil
}

func (f *fakeStore) UpdatePaymentRequestStatus(_ context.Context, id int64, status domain.Status, amount float64, comment string) (*domain.PaymentRequest, error) {
	if f.updateReqErr != nil {
		return nil, f.updateReqErr
	}
	f.reqStatus = status
	f.reqAmount = amount
	f.reqComment = comment
	if f.updatedReq != nil {
		return f.updatedReq, nil
	}
	return &domain.PaymentRequest{ID: id, ChannelID: 1, Status: status}, nil
}

func (f *fakeStore) UpdatePaidContentStatus(_ context.Context, id int64, status domain.Status, views int, amount float64, comment string) (*domain.PaidContentApplication, error) {
	return &domain.PaidContentApplication{ID: id, UserID: 1, Status: status}, nil
}

func (f *fakeStore) UserTelegramID(_ context.Context, userID int64) (int64, error) {
	if id, ok := f.telegramIDs[userID]; ok {
		return id, nil
	}
	return 0, domain.ErrNotFound
}

func (f *fakeStore) ChannelOwnerTelegramID(_ context.Context, channelID int64) (int64, error) {
	if id, ok := f.telegramIDs[channelID]; ok {
		return id, nil
	}
	return 0, domain.ErrNotFound
}

type fakeNotifier struct {
	recipients []int64
	comments   []string
}

func (f *fakeNotifier) StatusChanged(recipientID int64, _ any, comment string) {
	f.recipients = append(f.recipients, recipientID)
	f.comments = append(f.comments, comment)
}

func newTestEngine(fs *fakeStore, fn *fakeNotifier) *Engine {
	cfg := config.LimitsConfig{
		MinStreamViewers:  20,
		MinShortsViews:    1000,
		MinVideoViews:     3000,
		MaxNoteLen:        200,
		DateRetentionDays: 90,
		RatePerThousand:   50,
	}
	e := New(fs, state.NewMemoryManager(), fn, cfg)
	e.now = func() time.Time { return time.Date(2024, 2, 28, 12, 0, 0, 0, time.UTC) }
	return e
}

const (
	testUserID     = int64(777)
	testInternalID = int64(42)
)

func TestCollaborationTwitchFlow(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	e := newTestEngine(fs, nil)

	e.BeginCollaboration(testUserID, testInternalID)
	_, err := e.CollabPlatform(ctx, testUserID, "twitch")
	require.NoError(t, err)

	_, err = e.CollabLink(ctx, testUserID, "https://twitch.tv/testchannel")
	require.NoError(t, err)

	// Below the 20-viewer threshold: rejected, step unchanged.
	_, err = e.CollabViewers(ctx, testUserID, "15")
	require.NoError(t, err)
	sess, ok := e.sessions.Get(testUserID)
	require.True(t, ok)
	assert.Equal(t, StepCollabViewers, sess.Step)
	assert.Zero(t, fs.addCalls)

	_, err = e.CollabViewers(ctx, testUserID, "25")
	require.NoError(t, err)
	_, err = e.CollabViews(ctx, testUserID, "10 000")
	require.NoError(t, err)
	_, err = e.CollabExperience(ctx, testUserID, "Two sponsored streams last year")
	require.NoError(t, err)
	_, err = e.CollabFrequency(ctx, testUserID, "Three streams per week")
	require.NoError(t, err)
	_, err = e.CollabPromo(ctx, testUserID, "go10")
	require.NoError(t, err)

	r, err := e.ConfirmCollaboration(ctx, testUserID)
	require.NoError(t, err)
	assert.Contains(t, r.Text, "Application #1")

	assert.Equal(t, testInternalID, fs.addParams.UserID)
	assert.Equal(t, domain.PlatformTwitch, fs.addParams.Platform)
	assert.Equal(t, "https://twitch.tv/testchannel", fs.addParams.Link)
	assert.Equal(t, 25, fs.addParams.TwitchViewers)
	assert.Equal(t, 10000, fs.addParams.ViewsCount)
	assert.Equal(t, "GO10", fs.addParams.PromoCode)

	_, inProgress := e.InProgress(testUserID)
	assert.False(t, inProgress)
}

func TestCollaborationDuplicateLink(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	fs.existing["https://twitch.tv/taken"] = 999
	e := newTestEngine(fs, nil)

	e.BeginCollaboration(testUserID, testInternalID)
	_, err := e.CollabPlatform(ctx, testUserID, "twitch")
	require.NoError(t, err)

	r, err := e.CollabLink(ctx, testUserID, "https://twitch.tv/taken")
	require.NoError(t, err)
	assert.Contains(t, r.Text, "another user")

	sess, _ := e.sessions.Get(testUserID)
	assert.Equal(t, StepCollabLink, sess.Step)
}

func TestCollaborationCommitFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	fs.addErr = &domain.StoreError{Op: "add_or_revive_channel", Err: errors.New("connection reset")}
	e := newTestEngine(fs, nil)

	e.BeginCollaboration(testUserID, testInternalID)
	_, _ = e.CollabPlatform(ctx, testUserID, "youtube")
	_, _ = e.CollabLink(ctx, testUserID, "https://youtube.com/@creator")
	_, _ = e.CollabViews(ctx, testUserID, "5000")
	_, _ = e.CollabExperience(ctx, testUserID, "None yet")
	_, _ = e.CollabFrequency(ctx, testUserID, "Weekly")
	_, _ = e.CollabPromo(ctx, testUserID, "NEW1")

	r, err := e.ConfirmCollaboration(ctx, testUserID)
	require.Error(t, err)
	assert.Contains(t, r.Text, "try again")

	// Session survives the failed commit; a retry succeeds.
	sess, ok := e.sessions.Get(testUserID)
	require.True(t, ok)
	assert.Equal(t, StepCollabConfirm, sess.Step)

	fs.addErr = nil
	_, err = e.ConfirmCollaboration(ctx, testUserID)
	require.NoError(t, err)
	_, inProgress := e.InProgress(testUserID)
	assert.False(t, inProgress)
}

func TestPaidContentFlow(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	fs.approved[testInternalID] = &domain.Channel{ID: 7, UserID: testInternalID, Platform: domain.PlatformYouTube, Status: domain.StatusApproved}
	e := newTestEngine(fs, nil)

	_, err := e.BeginPaidContent(ctx, testUserID, testInternalID)
	require.NoError(t, err)
	_, err = e.PaidType(ctx, testUserID, "video")
	require.NoError(t, err)
	_, err = e.PaidLink(ctx, testUserID, "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)

	// ISO date format is rejected; step stays put.
	r, err := e.PaidDate(ctx, testUserID, "2024-02-25")
	require.NoError(t, err)
	assert.Contains(t, r.Text, "dd.mm.yyyy")
	sess, _ := e.sessions.Get(testUserID)
	assert.Equal(t, StepPaidDate, sess.Step)

	_, err = e.PaidDate(ctx, testUserID, "25.01.2024")
	require.NoError(t, err)
	_, err = e.PaidViews(ctx, testUserID, "4500")
	require.NoError(t, err)
	_, err = e.PaidNote(ctx, testUserID, "0")
	require.NoError(t, err)

	r, err = e.ConfirmPaidContent(ctx, testUserID)
	require.NoError(t, err)
	assert.Contains(t, r.Text, "accepted")

	assert.Equal(t, int64(7), fs.submitParams.ChannelID)
	assert.Equal(t, 4500, fs.submitParams.InitialViews)
	assert.Empty(t, fs.submitParams.Note)
	// 4500 views at 50 per thousand.
	assert.InDelta(t, 225.0, fs.submitAmount, 0.001)
}

func TestPaidContentWithoutChannelSkipsPaymentRequest(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	fs.approved[testInternalID] = &domain.Channel{ID: 7, UserID: testInternalID, Platform: domain.PlatformYouTube, Status: domain.StatusApproved}
	e := newTestEngine(fs, nil)

	_, err := e.BeginPaidContent(ctx, testUserID, testInternalID)
	require.NoError(t, err)
	_, err = e.PaidType(ctx, testUserID, "video")
	require.NoError(t, err)
	_, err = e.PaidLink(ctx, testUserID, "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	_, err = e.PaidDate(ctx, testUserID, "25.01.2024")
	require.NoError(t, err)
	_, err = e.PaidViews(ctx, testUserID, "4500")
	require.NoError(t, err)
	_, err = e.PaidNote(ctx, testUserID, "0")
	require.NoError(t, err)

	// Channel approval was withdrawn between start and confirm: the
	// submission is still recorded, just without a payment request.
	delete(fs.approved, testInternalID)

	r, err := e.ConfirmPaidContent(ctx, testUserID)
	require.NoError(t, err)
	assert.Contains(t, r.Text, "accepted")
	assert.NotContains(t, r.Text, "payout")

	assert.Equal(t, 1, fs.saveCalls)
	assert.Zero(t, fs.saveParams.ChannelID)
	assert.Zero(t, fs.submitAmount)
}

func TestPaidContentRequiresApprovedChannel(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(newFakeStore(), nil)

	r, err := e.BeginPaidContent(ctx, testUserID, testInternalID)
	require.NoError(t, err)
	assert.Contains(t, r.Text, "approved")
	_, inProgress := e.InProgress(testUserID)
	assert.False(t, inProgress)
}

func TestReviewApproveRequest(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	fs.telegramIDs[1] = 555
	fs.requests[7] = &domain.PaymentRequest{ID: 7, ChannelID: 1, Status: domain.StatusPending, RequestedAmount: 100}
	fn := &fakeNotifier{}
	e := newTestEngine(fs, fn)

	adminID := int64(9000)
	r, err := e.BeginReview(ctx, adminID, ReviewDraft{Kind: ReviewRequest, TargetID: 7, Decision: domain.StatusApproved})
	require.NoError(t, err)
	assert.Contains(t, r.Text, "100.00")

	_, err = e.ReviewAmount(ctx, adminID, "80.00")
	require.NoError(t, err)
	_, err = e.ReviewComment(ctx, adminID, "Partial payout, views dipped")
	require.NoError(t, err)

	r, err = e.ConfirmReview(ctx, adminID)
	require.NoError(t, err)
	assert.Contains(t, r.Text, "approved")

	assert.Equal(t, domain.StatusApproved, fs.reqStatus)
	assert.InDelta(t, 80.0, fs.reqAmount, 0.001)
	assert.Equal(t, "Partial payout, views dipped", fs.reqComment)

	require.Len(t, fn.recipients, 1)
	assert.Equal(t, int64(555), fn.recipients[0])

	_, inProgress := e.InProgress(adminID)
	assert.False(t, inProgress)
}

func TestReviewCommentRequired(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	fs.channels[3] = &domain.Channel{ID: 3, UserID: 1, Status: domain.StatusPending}
	e := newTestEngine(fs, nil)

	adminID := int64(9000)
	_, err := e.BeginReview(ctx, adminID, ReviewDraft{Kind: ReviewChannel, TargetID: 3, Decision: domain.StatusRejected})
	require.NoError(t, err)

	_, err = e.ReviewComment(ctx, adminID, "   ")
	require.NoError(t, err)
	sess, _ := e.sessions.Get(adminID)
	assert.Equal(t, StepReviewComment, sess.Step)
}

func TestReviewOverApprovalRejected(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	fs.requests[7] = &domain.PaymentRequest{ID: 7, ChannelID: 1, Status: domain.StatusPending, RequestedAmount: 100}
	e := newTestEngine(fs, nil)

	adminID := int64(9000)
	_, err := e.BeginReview(ctx, adminID, ReviewDraft{Kind: ReviewRequest, TargetID: 7, Decision: domain.StatusApproved})
	require.NoError(t, err)

	// More than the creator asked for: re-prompt, step unchanged.
	r, err := e.ReviewAmount(ctx, adminID, "150")
	require.NoError(t, err)
	assert.Contains(t, r.Text, "cannot exceed the requested 100.00")
	sess, _ := e.sessions.Get(adminID)
	assert.Equal(t, StepReviewAmount, sess.Step)

	_, err = e.ReviewAmount(ctx, adminID, "100")
	require.NoError(t, err)
	sess, _ = e.sessions.Get(adminID)
	assert.Equal(t, StepReviewComment, sess.Step)
}

func TestReviewTargetGoneOrDecided(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	fs.requests[5] = &domain.PaymentRequest{ID: 5, ChannelID: 1, Status: domain.StatusApproved, RequestedAmount: 60}
	e := newTestEngine(fs, nil)

	adminID := int64(9000)
	r, err := e.BeginReview(ctx, adminID, ReviewDraft{Kind: ReviewRequest, TargetID: 12, Decision: domain.StatusApproved})
	require.NoError(t, err)
	assert.Contains(t, r.Text, "no longer exists")

	r, err = e.BeginReview(ctx, adminID, ReviewDraft{Kind: ReviewRequest, TargetID: 5, Decision: domain.StatusRejected})
	require.NoError(t, err)
	assert.Contains(t, r.Text, "already decided")

	_, inProgress := e.InProgress(adminID)
	assert.False(t, inProgress)
}

func TestSupersedeIsVisible(t *testing.T) {
	e := newTestEngine(newFakeStore(), nil)

	e.BeginCollaboration(testUserID, testInternalID)
	flow, ok := e.InProgress(testUserID)
	require.True(t, ok)
	assert.Equal(t, FlowCollaboration, flow)

	r := e.Cancel(testUserID)
	assert.Contains(t, r.Text, "Cancelled")
	_, ok = e.InProgress(testUserID)
	assert.False(t, ok)
}
