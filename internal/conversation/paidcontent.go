package conversation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hardwaylabs/partnerbot/core/telegram/keyboard"
	"github.com/hardwaylabs/partnerbot/core/telegram/state"
	"github.com/hardwaylabs/partnerbot/internal/domain"
	"github.com/hardwaylabs/partnerbot/internal/store"
	"github.com/hardwaylabs/partnerbot/internal/validation"
)

// PaidContentDraft accumulates a submission's fields step by step. UserID
// is the internal user id; sessions are keyed by Telegram id.
type PaidContentDraft struct {
	UserID         int64
	ContentType    domain.ContentType
	Link           string
	ScreenshotLink string
	PublishDate    time.Time
	Views          int
	Note           string
}

// BeginPaidContent starts the submission flow. Only users with at least one
// approved channel may submit.
func (e *Engine) BeginPaidContent(ctx context.Context, userID, internalID int64) (Reply, error) {
	_, err := e.store.ApprovedUserChannel(ctx, internalID, "")
	if errors.Is(err, domain.ErrNotFound) {
		return Reply{Text: "Paid content submissions are open to approved HARDWAY partners only.\nRegister a channel first via /menu."}, nil
	}
	if err != nil {
		return Reply{Text: msgStoreRetry}, err
	}

	e.sessions.Begin(userID, FlowPaidContent, StepPaidType, &PaidContentDraft{UserID: internalID})
	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "🔴 Stream", Unique: CBPaidType, Data: string(domain.ContentStream)},
			{Text: "🎬 Shorts", Unique: CBPaidType, Data: string(domain.ContentShorts)},
			{Text: "📹 Video", Unique: CBPaidType, Data: string(domain.ContentVideo)},
		},
	)
	return Reply{
		Text:   "*Paid content submission*\n\nWhat kind of content are you submitting?",
		Markup: withCancel(markup),
	}, nil
}

func (e *Engine) paidDraft(userID int64, step state.Step) (*PaidContentDraft, bool) {
	sess, ok := e.sessions.Get(userID)
	if !ok || sess.Flow != FlowPaidContent || sess.Step != step {
		return nil, false
	}
	d, ok := sess.Draft.(*PaidContentDraft)
	return d, ok
}

// PaidType consumes the content type button press.
func (e *Engine) PaidType(ctx context.Context, userID int64, raw string) (Reply, error) {
	d, ok := e.paidDraft(userID, StepPaidType)
	if !ok {
		return Reply{Text: msgNoActiveFlow}, nil
	}
	contentType, err := domain.ParseContentType(raw)
	if err != nil {
		return Reply{Text: "Unknown content type, pick one of the buttons above."}, nil
	}
	d.ContentType = contentType
	e.sessions.Advance(userID, StepPaidLink)

	switch contentType {
	case domain.ContentStream:
		return Reply{Text: "Send a link to the stream VOD or the live page."}, nil
	case domain.ContentShorts:
		return Reply{Text: "Send a link to the specific TikTok video or YouTube Short.\nProfile links are not accepted."}, nil
	default:
		return Reply{Text: "Send a link to the YouTube video."}, nil
	}
}

// PaidLink validates the content link; streams additionally need a
// statistics screenshot on the next step.
func (e *Engine) PaidLink(ctx context.Context, userID int64, text string) (Reply, error) {
	d, ok := e.paidDraft(userID, StepPaidLink)
	if !ok {
		return Reply{Text: msgNoActiveFlow}, nil
	}
	link, verr := validation.ContentLink(d.ContentType, text)
	if verr != nil {
		return Reply{Text: verr.Reason + "\nSend the content link again."}, nil
	}
	d.Link = link
	if d.ContentType == domain.ContentStream {
		e.sessions.Advance(userID, StepPaidScreenshot)
		return Reply{Text: "Upload your stream statistics to an image host (postimg.cc, ibb.co) and send the link."}, nil
	}
	e.sessions.Advance(userID, StepPaidDate)
	return Reply{Text: "When was it published? Send the date as dd.mm.yyyy."}, nil
}

// PaidScreenshot validates the statistics screenshot link.
func (e *Engine) PaidScreenshot(ctx context.Context, userID int64, text string) (Reply, error) {
	d, ok := e.paidDraft(userID, StepPaidScreenshot)
	if !ok {
		return Reply{Text: msgNoActiveFlow}, nil
	}
	link, verr := validation.ScreenshotLink(text)
	if verr != nil {
		return Reply{Text: verr.Reason + "\nSend the screenshot link again."}, nil
	}
	d.ScreenshotLink = link
	e.sessions.Advance(userID, StepPaidDate)
	return Reply{Text: "When did the stream happen? Send the date as dd.mm.yyyy."}, nil
}

// PaidDate validates the publish date against the retention window.
func (e *Engine) PaidDate(ctx context.Context, userID int64, text string) (Reply, error) {
	d, ok := e.paidDraft(userID, StepPaidDate)
	if !ok {
		return Reply{Text: msgNoActiveFlow}, nil
	}
	date, verr := validation.PublishDate(text, e.now(), e.limits.DateRetentionDays)
	if verr != nil {
		return Reply{Text: verr.Reason + "\nSend the date as dd.mm.yyyy, e.g. 25.01.2024."}, nil
	}
	d.PublishDate = date
	e.sessions.Advance(userID, StepPaidViews)
	if d.ContentType == domain.ContentStream {
		return Reply{Text: "How many average concurrent viewers did the stream have?"}, nil
	}
	return Reply{Text: "How many views does it have right now?"}, nil
}

// PaidViews applies the per-content-type view minimum.
func (e *Engine) PaidViews(ctx context.Context, userID int64, text string) (Reply, error) {
	d, ok := e.paidDraft(userID, StepPaidViews)
	if !ok {
		return Reply{Text: msgNoActiveFlow}, nil
	}
	views, verr := validation.Views(d.ContentType, text, e.limits)
	if verr != nil {
		return Reply{Text: verr.Reason + "\nSend the count again."}, nil
	}
	d.Views = views
	e.sessions.Advance(userID, StepPaidNote)
	return Reply{Text: "Anything to add for the reviewer? Send a note, or 0 to skip."}, nil
}

// PaidNote records the optional note and shows the confirmation summary.
func (e *Engine) PaidNote(ctx context.Context, userID int64, text string) (Reply, error) {
	d, ok := e.paidDraft(userID, StepPaidNote)
	if !ok {
		return Reply{Text: msgNoActiveFlow}, nil
	}
	note, verr := validation.Note(text, e.limits.MaxNoteLen)
	if verr != nil {
		return Reply{Text: verr.Reason + "\nSend the note again, or 0 to skip."}, nil
	}
	d.Note = note
	e.sessions.Advance(userID, StepPaidConfirm)
	return Reply{Text: paidSummary(d), Markup: confirmMarkup(CBPaidConfirm)}, nil
}

func paidSummary(d *PaidContentDraft) string {
	var b strings.Builder
	b.WriteString("*Your submission*\n\n")
	fmt.Fprintf(&b, "Type: %s\n", d.ContentType)
	fmt.Fprintf(&b, "Link: %s\n", d.Link)
	if d.ScreenshotLink != "" {
		fmt.Fprintf(&b, "Statistics: %s\n", d.ScreenshotLink)
	}
	fmt.Fprintf(&b, "Published: %s\n", d.PublishDate.Format("02.01.2006"))
	fmt.Fprintf(&b, "Views: %d\n", d.Views)
	if d.Note != "" {
		fmt.Fprintf(&b, "Note: %s\n", d.Note)
	}
	b.WriteString("\nSubmit for review?")
	return b.String()
}

// platformForContent maps a content type to the platform its payment
// request should be booked against.
func platformForContent(t domain.ContentType) domain.Platform {
	switch t {
	case domain.ContentStream:
		return domain.PlatformTwitch
	case domain.ContentShorts:
		return domain.PlatformShorts
	default:
		return domain.PlatformYouTube
	}
}

func (e *Engine) requestedAmount(views int) float64 {
	amount := float64(views) / 1000 * e.limits.RatePerThousand
	return math.Round(amount*100) / 100
}

// ConfirmPaidContent commits the submission together with its payment
// request in one transaction. On storage failure the session is kept so the
// user can press submit again.
func (e *Engine) ConfirmPaidContent(ctx context.Context, userID int64) (Reply, error) {
	d, ok := e.paidDraft(userID, StepPaidConfirm)
	if !ok {
		return Reply{Text: msgNoActiveFlow}, nil
	}

	ch, err := e.store.ApprovedUserChannel(ctx, d.UserID, platformForContent(d.ContentType))
	if errors.Is(err, domain.ErrNotFound) {
		ch, err = e.store.ApprovedUserChannel(ctx, d.UserID, "")
	}
	var channelID int64
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// Submission is still recorded; it just cannot carry a payment
		// request without a channel to book it against.
	case err != nil:
		return Reply{Text: msgStoreRetry}, err
	default:
		channelID = ch.ID
	}

	params := store.SavePaidContentParams{
		UserID:         d.UserID,
		ChannelID:      channelID,
		ContentType:    d.ContentType,
		Link:           d.Link,
		ScreenshotLink: d.ScreenshotLink,
		PublishDate:    d.PublishDate,
		InitialViews:   d.Views,
		Note:           d.Note,
	}
	var (
		appID     int64
		requested float64
	)
	if channelID == 0 {
		appID, err = e.store.SavePaidContentApplication(ctx, params)
	} else {
		requested = e.requestedAmount(d.Views)
		appID, _, err = e.store.SubmitPaidContent(ctx, params, requested)
	}
	if err != nil {
		return Reply{Text: msgStoreRetry}, err
	}

	e.sessions.Clear(userID)
	if requested > 0 {
		return Reply{Text: fmt.Sprintf("Submission #%d accepted. Requested payout: %.2f. We will notify you once it is reviewed.", appID, requested)}, nil
	}
	return Reply{Text: fmt.Sprintf("Submission #%d accepted. We will notify you once it is reviewed.", appID)}, nil
}
