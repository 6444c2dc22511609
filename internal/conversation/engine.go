// Package conversation implements the per-user form-filling flows: channel
// collaboration applications, paid content submissions, and the admin review
// flow. Each flow advances one step per inbound message; invalid input
// re-prompts with the reason and leaves the session where it was.
package conversation

import (
	"context"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/hardwaylabs/partnerbot/core/config"
	tghelpers "github.com/hardwaylabs/partnerbot/core/telegram/helpers"
	"github.com/hardwaylabs/partnerbot/core/telegram/state"
	"github.com/hardwaylabs/partnerbot/internal/domain"
	"github.com/hardwaylabs/partnerbot/internal/store"
)

const (
	FlowCollaboration state.Flow = "collaboration"
	FlowPaidContent   state.Flow = "paid_content"
	FlowReview        state.Flow = "review"
)

const (
	StepCollabPlatform   state.Step = "collab_platform"
	StepCollabLink       state.Step = "collab_link"
	StepCollabViewers    state.Step = "collab_viewers"
	StepCollabViews      state.Step = "collab_views"
	StepCollabExperience state.Step = "collab_experience"
	StepCollabFrequency  state.Step = "collab_frequency"
	StepCollabPromo      state.Step = "collab_promo"
	StepCollabConfirm    state.Step = "collab_confirm"

	StepPaidType       state.Step = "paid_type"
	StepPaidLink       state.Step = "paid_link"
	StepPaidScreenshot state.Step = "paid_screenshot"
	StepPaidDate       state.Step = "paid_date"
	StepPaidViews      state.Step = "paid_views"
	StepPaidNote       state.Step = "paid_note"
	StepPaidConfirm    state.Step = "paid_confirm"

	StepReviewAmount  state.Step = "review_amount"
	StepReviewComment state.Step = "review_comment"
	StepReviewConfirm state.Step = "review_confirm"
)

// Callback uniques shared with the handler layer; the flows attach them to
// their inline keyboards and the handlers route them back into the engine.
const (
	CBCollabPlatform = "collab_platform"
	CBCollabConfirm  = "collab_confirm"
	CBPaidType       = "paid_type"
	CBPaidConfirm    = "paid_confirm"
	CBReviewConfirm  = "review_confirm"
	CBFlowCancel     = "flow_cancel"
	CBFlowDiscard    = "flow_discard"
)

// Store is the persistence surface the flows commit through.
type Store interface {
	ChannelExists(ctx context.Context, link string, platform domain.Platform, userID int64) (exists, own bool, err error)
	PromoCodeInUse(ctx context.Context, code string, userID int64) (bool, error)
	AddOrReviveChannel(ctx context.Context, p store.AddChannelParams) (int64, error)
	ApprovedUserChannel(ctx context.Context, userID int64, platform domain.Platform) (*domain.Channel, error)
	ChannelByID(ctx context.Context, id int64) (*domain.Channel, error)
	PaymentRequestByID(ctx context.Context, id int64) (*domain.PaymentRequest, error)
	PaidContentByID(ctx context.Context, id int64) (*domain.PaidContentApplication, error)
	SavePaidContentApplication(ctx context.Context, p store.SavePaidContentParams) (int64, error)
	SubmitPaidContent(ctx context.Context, p store.SavePaidContentParams, requestedAmount float64) (appID, requestID int64, err error)
	UpdateChannelStatus(ctx context.Context, id int64, status domain.Status, comment string) (*domain.Channel, error)
	UpdatePaymentRequestStatus(ctx context.Context, id int64, status domain.Status, approvedAmount float64, comment string) (*domain.PaymentRequest, error)
	UpdatePaidContentStatus(ctx context.Context, id int64, status domain.Status, currentViews int, paymentAmount float64, comment string) (*domain.PaidContentApplication, error)
	UserTelegramID(ctx context.Context, userID int64) (int64, error)
	ChannelOwnerTelegramID(ctx context.Context, channelID int64) (int64, error)
}

// Notifier delivers best-effort status notices to record owners.
type Notifier interface {
	StatusChanged(recipientID int64, record any, comment string)
}

// Reply is what a step hands back to the transport layer.
type Reply struct {
	Text   string
	Markup *tele.ReplyMarkup
}

// Engine drives all flows over one session manager. Step handlers are bound
// on construction; the message router dispatches free text into them.
type Engine struct {
	store    Store
	sessions state.Manager
	notifier Notifier
	limits   config.LimitsConfig
	now      func() time.Time
}

// New builds the engine and binds every text step to the manager.
func New(st Store, sessions state.Manager, notifier Notifier, limits config.LimitsConfig) *Engine {
	e := &Engine{
		store:    st,
		sessions: sessions,
		notifier: notifier,
		limits:   limits,
		now:      time.Now,
	}

	sessions.Bind(FlowCollaboration, StepCollabLink, e.textStep(e.CollabLink))
	sessions.Bind(FlowCollaboration, StepCollabViewers, e.textStep(e.CollabViewers))
	sessions.Bind(FlowCollaboration, StepCollabViews, e.textStep(e.CollabViews))
	sessions.Bind(FlowCollaboration, StepCollabExperience, e.textStep(e.CollabExperience))
	sessions.Bind(FlowCollaboration, StepCollabFrequency, e.textStep(e.CollabFrequency))
	sessions.Bind(FlowCollaboration, StepCollabPromo, e.textStep(e.CollabPromo))

	sessions.Bind(FlowPaidContent, StepPaidLink, e.textStep(e.PaidLink))
	sessions.Bind(FlowPaidContent, StepPaidScreenshot, e.textStep(e.PaidScreenshot))
	sessions.Bind(FlowPaidContent, StepPaidDate, e.textStep(e.PaidDate))
	sessions.Bind(FlowPaidContent, StepPaidViews, e.textStep(e.PaidViews))
	sessions.Bind(FlowPaidContent, StepPaidNote, e.textStep(e.PaidNote))

	sessions.Bind(FlowReview, StepReviewAmount, e.textStep(e.ReviewAmount))
	sessions.Bind(FlowReview, StepReviewComment, e.textStep(e.ReviewComment))

	return e
}

// stepFunc is the shape every text step shares: current user input in,
// reply out. A non-nil error is an infrastructure failure worth logging;
// the reply still tells the user what to do.
type stepFunc func(ctx context.Context, userID int64, text string) (Reply, error)

func (e *Engine) textStep(fn stepFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		r, err := fn(ctx, c.Sender().ID, strings.TrimSpace(c.Text()))
		if r.Text != "" {
			if sendErr := send(c, r); err == nil {
				err = sendErr
			}
		}
		return err
	}
}

func send(c tele.Context, r Reply) error {
	if r.Markup != nil {
		return tghelpers.SendMD(c, r.Text, r.Markup)
	}
	return tghelpers.SendMD(c, r.Text)
}

// InProgress reports the user's live flow, if any.
func (e *Engine) InProgress(userID int64) (state.Flow, bool) {
	sess, ok := e.sessions.Get(userID)
	if !ok || sess.Flow == state.FlowNone {
		return state.FlowNone, false
	}
	return sess.Flow, true
}

// Cancel drops the live session at any step.
func (e *Engine) Cancel(userID int64) Reply {
	if _, ok := e.InProgress(userID); !ok {
		return Reply{Text: "Nothing to cancel."}
	}
	e.sessions.Clear(userID)
	return Reply{Text: "Cancelled. Use /menu when you are ready to start again."}
}
