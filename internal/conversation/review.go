package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/hardwaylabs/partnerbot/core/logger"
	"github.com/hardwaylabs/partnerbot/core/telegram/state"
	"github.com/hardwaylabs/partnerbot/internal/domain"
)

// ReviewKind names the record kind under admin review.
type ReviewKind string

const (
	ReviewChannel     ReviewKind = "channel"
	ReviewRequest     ReviewKind = "request"
	ReviewApplication ReviewKind = "application"
)

// ReviewDraft carries an admin decision through the comment and
// confirmation steps. Requested is the amount the creator asked for and
// bounds the approved amount on payment requests.
type ReviewDraft struct {
	Kind      ReviewKind
	TargetID  int64
	Decision  domain.Status
	Requested float64
	Amount    float64
	Comment   string
}

// BeginReview starts the admin decision flow for one record. The target is
// fetched up front: a missing or already decided record never opens a
// session. Approving a payment request or an application asks for the amount
// first; everything else goes straight to the mandatory comment.
func (e *Engine) BeginReview(ctx context.Context, userID int64, d ReviewDraft) (Reply, error) {
	draft := d
	var current domain.Status
	switch draft.Kind {
	case ReviewChannel:
		ch, err := e.store.ChannelByID(ctx, draft.TargetID)
		if err != nil {
			return reviewLookupReply(draft, err)
		}
		current = ch.Status
	case ReviewRequest:
		req, err := e.store.PaymentRequestByID(ctx, draft.TargetID)
		if err != nil {
			return reviewLookupReply(draft, err)
		}
		current = req.Status
		draft.Requested = req.RequestedAmount
	case ReviewApplication:
		app, err := e.store.PaidContentByID(ctx, draft.TargetID)
		if err != nil {
			return reviewLookupReply(draft, err)
		}
		current = app.Status
	default:
		return Reply{Text: "Unknown record kind."}, nil
	}
	if current != domain.StatusPending {
		return Reply{Text: fmt.Sprintf("%s #%d was already decided (%s).", draft.Kind, draft.TargetID, current)}, nil
	}

	if draft.Decision == domain.StatusApproved && draft.Kind != ReviewChannel {
		e.sessions.Begin(userID, FlowReview, StepReviewAmount, &draft)
		if draft.Kind == ReviewRequest {
			return Reply{Text: fmt.Sprintf("Approving request #%d. Send the approved amount, up to the requested %.2f.", draft.TargetID, draft.Requested)}, nil
		}
		return Reply{Text: fmt.Sprintf("Approving application #%d. Send the payment amount.", draft.TargetID)}, nil
	}
	e.sessions.Begin(userID, FlowReview, StepReviewComment, &draft)
	return Reply{Text: fmt.Sprintf("Send a comment for the owner of %s #%d. It is required.", draft.Kind, draft.TargetID)}, nil
}

func reviewLookupReply(d ReviewDraft, err error) (Reply, error) {
	if errors.Is(err, domain.ErrNotFound) {
		return Reply{Text: fmt.Sprintf("%s #%d no longer exists.", d.Kind, d.TargetID)}, nil
	}
	return Reply{Text: msgStoreRetry}, err
}

func (e *Engine) reviewDraft(userID int64, step state.Step) (*ReviewDraft, bool) {
	sess, ok := e.sessions.Get(userID)
	if !ok || sess.Flow != FlowReview || sess.Step != step {
		return nil, false
	}
	d, ok := sess.Draft.(*ReviewDraft)
	return d, ok
}

// ReviewAmount parses the approved/payment amount.
func (e *Engine) ReviewAmount(ctx context.Context, userID int64, text string) (Reply, error) {
	d, ok := e.reviewDraft(userID, StepReviewAmount)
	if !ok {
		return Reply{Text: msgNoActiveFlow}, nil
	}
	clean := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	amount, err := strconv.ParseFloat(clean, 64)
	if err != nil || amount <= 0 {
		return Reply{Text: "Send the amount as a positive number, e.g. 80 or 80.50."}, nil
	}
	if d.Requested > 0 && amount > d.Requested {
		return Reply{Text: fmt.Sprintf("The approved amount cannot exceed the requested %.2f. Send it again.", d.Requested)}, nil
	}
	d.Amount = amount
	e.sessions.Advance(userID, StepReviewComment)
	return Reply{Text: "Now send a comment for the owner. It is required."}, nil
}

// ReviewComment records the mandatory decision comment.
func (e *Engine) ReviewComment(ctx context.Context, userID int64, text string) (Reply, error) {
	d, ok := e.reviewDraft(userID, StepReviewComment)
	if !ok {
		return Reply{Text: msgNoActiveFlow}, nil
	}
	comment, verr := freeText("comment", text)
	if verr != nil {
		return Reply{Text: verr.Reason}, nil
	}
	d.Comment = comment
	e.sessions.Advance(userID, StepReviewConfirm)
	return Reply{Text: reviewSummary(d), Markup: confirmMarkup(CBReviewConfirm)}, nil
}

func reviewSummary(d *ReviewDraft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Decision on %s #%d*\n\n", d.Kind, d.TargetID)
	fmt.Fprintf(&b, "Verdict: %s\n", d.Decision)
	if d.Amount > 0 {
		fmt.Fprintf(&b, "Amount: %.2f\n", d.Amount)
	}
	fmt.Fprintf(&b, "Comment: %s\n\nApply?", d.Comment)
	return b.String()
}

// ConfirmReview applies the decision. The status flip and any counter
// adjustment commit atomically in the store; the owner notification is
// best-effort and never affects the outcome.
func (e *Engine) ConfirmReview(ctx context.Context, userID int64) (Reply, error) {
	d, ok := e.reviewDraft(userID, StepReviewConfirm)
	if !ok {
		return Reply{Text: msgNoActiveFlow}, nil
	}

	var (
		record    any
		recipient int64
		err       error
	)
	switch d.Kind {
	case ReviewChannel:
		var ch *domain.Channel
		ch, err = e.store.UpdateChannelStatus(ctx, d.TargetID, d.Decision, d.Comment)
		if err == nil {
			record = ch
			recipient, err = e.resolveRecipient(ctx, func() (int64, error) {
				return e.store.UserTelegramID(ctx, ch.UserID)
			})
		}
	case ReviewRequest:
		var req *domain.PaymentRequest
		req, err = e.store.UpdatePaymentRequestStatus(ctx, d.TargetID, d.Decision, d.Amount, d.Comment)
		if err == nil {
			record = req
			recipient, err = e.resolveRecipient(ctx, func() (int64, error) {
				return e.store.ChannelOwnerTelegramID(ctx, req.ChannelID)
			})
		}
	case ReviewApplication:
		var app *domain.PaidContentApplication
		app, err = e.store.UpdatePaidContentStatus(ctx, d.TargetID, d.Decision, 0, d.Amount, d.Comment)
		if err == nil {
			record = app
			recipient, err = e.resolveRecipient(ctx, func() (int64, error) {
				return e.store.UserTelegramID(ctx, app.UserID)
			})
		}
	default:
		e.sessions.Clear(userID)
		return Reply{Text: "Unknown record kind, decision dropped."}, nil
	}

	switch {
	case domain.IsStore(err):
		return Reply{Text: msgStoreRetry + "\nPress the button again to retry."}, err
	case errors.Is(err, domain.ErrNotFound):
		e.sessions.Clear(userID)
		return Reply{Text: fmt.Sprintf("%s #%d no longer exists.", d.Kind, d.TargetID)}, nil
	case domain.IsValidation(err):
		e.sessions.Clear(userID)
		return Reply{Text: fmt.Sprintf("Decision on %s #%d was not applied: %v", d.Kind, d.TargetID, err)}, nil
	case domain.IsConflict(err):
		e.sessions.Clear(userID)
		return Reply{Text: fmt.Sprintf("%s #%d was already decided: %v", d.Kind, d.TargetID, err)}, nil
	case err != nil:
		return Reply{Text: msgStoreRetry}, err
	}

	e.sessions.Clear(userID)
	if e.notifier != nil && recipient != 0 {
		e.notifier.StatusChanged(recipient, record, d.Comment)
	}
	return Reply{Text: fmt.Sprintf("Done: %s #%d is now %s.", d.Kind, d.TargetID, d.Decision)}, nil
}

// resolveRecipient swallows lookup failures: a missing owner only costs the
// notification, never the decision.
func (e *Engine) resolveRecipient(ctx context.Context, lookup func() (int64, error)) (int64, error) {
	id, err := lookup()
	if err != nil {
		logger.Event(ctx, "conversation", slog.LevelWarn, "notify.recipient_lookup_failed",
			slog.String("err", err.Error()))
		return 0, nil
	}
	return id, nil
}
