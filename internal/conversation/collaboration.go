package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/hardwaylabs/partnerbot/core/telegram/keyboard"
	"github.com/hardwaylabs/partnerbot/core/telegram/state"
	"github.com/hardwaylabs/partnerbot/internal/domain"
	"github.com/hardwaylabs/partnerbot/internal/store"
	"github.com/hardwaylabs/partnerbot/internal/validation"
)

// CollaborationDraft accumulates the channel application fields step by
// step. UserID is the internal user id; sessions are keyed by Telegram id.
type CollaborationDraft struct {
	UserID        int64
	Platform      domain.Platform
	Link          string
	Name          string
	TwitchViewers int
	Views         int
	Experience    string
	Frequency     string
	PromoCode     string
}

const msgNoActiveFlow = "No active application. Use /menu to start one."

const maxFreeTextLen = 500

// BeginCollaboration starts the channel application flow, replacing any
// previous session. Callers are responsible for the discard confirmation.
func (e *Engine) BeginCollaboration(userID, internalID int64) Reply {
	e.sessions.Begin(userID, FlowCollaboration, StepCollabPlatform, &CollaborationDraft{UserID: internalID})
	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "YouTube", Unique: CBCollabPlatform, Data: string(domain.PlatformYouTube)},
			{Text: "TikTok", Unique: CBCollabPlatform, Data: string(domain.PlatformTikTok)},
		},
		[]keyboard.InlineBtn{
			{Text: "Shorts", Unique: CBCollabPlatform, Data: string(domain.PlatformShorts)},
			{Text: "Twitch", Unique: CBCollabPlatform, Data: string(domain.PlatformTwitch)},
		},
		[]keyboard.InlineBtn{
			{Text: "Other", Unique: CBCollabPlatform, Data: string(domain.PlatformOther)},
		},
	)
	return Reply{
		Text:   "*HARDWAY partner application*\n\nPick the platform of the channel you want to register:",
		Markup: withCancel(markup),
	}
}

func withCancel(markup *tele.ReplyMarkup) *tele.ReplyMarkup {
	btn := keyboard.CancelButton(markup, CBFlowCancel)
	markup.InlineKeyboard = append(markup.InlineKeyboard, []tele.InlineButton{*btn.Inline()})
	return markup
}

func (e *Engine) collabDraft(userID int64, step state.Step) (*CollaborationDraft, bool) {
	sess, ok := e.sessions.Get(userID)
	if !ok || sess.Flow != FlowCollaboration || sess.Step != step {
		return nil, false
	}
	d, ok := sess.Draft.(*CollaborationDraft)
	return d, ok
}

// CollabPlatform consumes the platform button press.
func (e *Engine) CollabPlatform(ctx context.Context, userID int64, raw string) (Reply, error) {
	d, ok := e.collabDraft(userID, StepCollabPlatform)
	if !ok {
		return Reply{Text: msgNoActiveFlow}, nil
	}
	platform, err := domain.ParsePlatform(raw)
	if err != nil {
		return Reply{Text: "Unknown platform, pick one of the buttons above."}, nil
	}
	d.Platform = platform
	e.sessions.Advance(userID, StepCollabLink)
	return Reply{Text: "Send a link to your " + string(platform) + " channel."}, nil
}

// CollabLink validates the channel link and rejects duplicates before any
// further fields are collected.
func (e *Engine) CollabLink(ctx context.Context, userID int64, text string) (Reply, error) {
	d, ok := e.collabDraft(userID, StepCollabLink)
	if !ok {
		return Reply{Text: msgNoActiveFlow}, nil
	}
	link, verr := validation.ChannelLink(d.Platform, text)
	if verr != nil {
		return Reply{Text: "That link does not look right: " + verr.Reason + "\nSend the channel link again."}, nil
	}

	exists, own, err := e.store.ChannelExists(ctx, link, d.Platform, d.UserID)
	if err != nil {
		return Reply{Text: msgStoreRetry}, err
	}
	if exists && own {
		return Reply{Text: "You already registered this channel. Send a different link or /cancel."}, nil
	}
	if exists {
		return Reply{Text: "This channel is already registered by another user. Send a different link or /cancel."}, nil
	}

	d.Link = link
	d.Name = channelNameFromLink(link)
	if d.Platform == domain.PlatformTwitch {
		e.sessions.Advance(userID, StepCollabViewers)
		return Reply{Text: "How many average concurrent viewers do your streams get?"}, nil
	}
	e.sessions.Advance(userID, StepCollabViews)
	return Reply{Text: "How many views does a typical post on this channel get?"}, nil
}

const msgStoreRetry = "Storage is temporarily unavailable, please try again in a moment."

func channelNameFromLink(link string) string {
	trimmed := strings.TrimRight(link, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	return strings.TrimPrefix(trimmed, "@")
}

// CollabViewers applies the minimum concurrent viewers rule for Twitch.
func (e *Engine) CollabViewers(ctx context.Context, userID int64, text string) (Reply, error) {
	d, ok := e.collabDraft(userID, StepCollabViewers)
	if !ok {
		return Reply{Text: msgNoActiveFlow}, nil
	}
	viewers, verr := validation.Views(domain.ContentStream, text, e.limits)
	if verr != nil {
		return Reply{Text: verr.Reason + "\nSend your average concurrent viewers again."}, nil
	}
	d.TwitchViewers = viewers
	e.sessions.Advance(userID, StepCollabViews)
	return Reply{Text: "How many views does a typical stream or clip get?"}, nil
}

// CollabViews records the typical view count; any positive number is fine.
func (e *Engine) CollabViews(ctx context.Context, userID int64, text string) (Reply, error) {
	d, ok := e.collabDraft(userID, StepCollabViews)
	if !ok {
		return Reply{Text: msgNoActiveFlow}, nil
	}
	views, verr := validation.PositiveInt("views", text)
	if verr != nil {
		return Reply{Text: verr.Reason + "\nSend the typical view count as a number, e.g. 10000."}, nil
	}
	d.Views = views
	e.sessions.Advance(userID, StepCollabExperience)
	return Reply{Text: "Tell us about your experience with sponsored content."}, nil
}

// CollabExperience records the free-text experience answer.
func (e *Engine) CollabExperience(ctx context.Context, userID int64, text string) (Reply, error) {
	d, ok := e.collabDraft(userID, StepCollabExperience)
	if !ok {
		return Reply{Text: msgNoActiveFlow}, nil
	}
	answer, verr := freeText("experience", text)
	if verr != nil {
		return Reply{Text: verr.Reason}, nil
	}
	d.Experience = answer
	e.sessions.Advance(userID, StepCollabFrequency)
	return Reply{Text: "How often do you publish new content?"}, nil
}

// CollabFrequency records the publishing frequency answer.
func (e *Engine) CollabFrequency(ctx context.Context, userID int64, text string) (Reply, error) {
	d, ok := e.collabDraft(userID, StepCollabFrequency)
	if !ok {
		return Reply{Text: msgNoActiveFlow}, nil
	}
	answer, verr := freeText("frequency", text)
	if verr != nil {
		return Reply{Text: verr.Reason}, nil
	}
	d.Frequency = answer
	e.sessions.Advance(userID, StepCollabPromo)
	return Reply{Text: "Send the promo code you want to use (2-10 latin letters or digits)."}, nil
}

func freeText(field, text string) (string, *domain.ValidationError) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", domain.Invalid(field, "Please answer with a short text message.")
	}
	if len([]rune(t)) > maxFreeTextLen {
		return "", domain.Invalid(field, "That answer is too long, please keep it shorter.")
	}
	return t, nil
}

// CollabPromo validates the promo code and checks it is not held by someone
// else before showing the confirmation summary.
func (e *Engine) CollabPromo(ctx context.Context, userID int64, text string) (Reply, error) {
	d, ok := e.collabDraft(userID, StepCollabPromo)
	if !ok {
		return Reply{Text: msgNoActiveFlow}, nil
	}
	code, verr := validation.PromoCode(text)
	if verr != nil {
		return Reply{Text: verr.Reason + "\nSend another promo code."}, nil
	}
	taken, err := e.store.PromoCodeInUse(ctx, code, d.UserID)
	if err != nil {
		return Reply{Text: msgStoreRetry}, err
	}
	if taken {
		return Reply{Text: "This promo code is already taken. Send another one."}, nil
	}
	d.PromoCode = code
	e.sessions.Advance(userID, StepCollabConfirm)
	return Reply{Text: collabSummary(d), Markup: confirmMarkup(CBCollabConfirm)}, nil
}

func confirmMarkup(confirmUnique string) *tele.ReplyMarkup {
	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "✅ Submit", Unique: confirmUnique, Data: "confirm"},
	})
	return withCancel(markup)
}

func collabSummary(d *CollaborationDraft) string {
	var b strings.Builder
	b.WriteString("*Your application*\n\n")
	fmt.Fprintf(&b, "Platform: %s\n", d.Platform)
	fmt.Fprintf(&b, "Channel: %s\n", d.Link)
	if d.Platform == domain.PlatformTwitch {
		fmt.Fprintf(&b, "Avg viewers: %d\n", d.TwitchViewers)
	}
	fmt.Fprintf(&b, "Typical views: %d\n", d.Views)
	fmt.Fprintf(&b, "Experience: %s\n", d.Experience)
	fmt.Fprintf(&b, "Frequency: %s\n", d.Frequency)
	fmt.Fprintf(&b, "Promo code: %s\n\n", d.PromoCode)
	b.WriteString("Submit for review?")
	return b.String()
}

// ConfirmCollaboration commits the application. Storage failures keep the
// session so the user can press submit again; a promo code race moves the
// flow back to the promo step without losing anything else.
func (e *Engine) ConfirmCollaboration(ctx context.Context, userID int64) (Reply, error) {
	d, ok := e.collabDraft(userID, StepCollabConfirm)
	if !ok {
		return Reply{Text: msgNoActiveFlow}, nil
	}

	id, err := e.store.AddOrReviveChannel(ctx, store.AddChannelParams{
		UserID:        d.UserID,
		Platform:      d.Platform,
		Link:          d.Link,
		Name:          d.Name,
		ViewsCount:    d.Views,
		TwitchViewers: d.TwitchViewers,
		Experience:    d.Experience,
		Frequency:     d.Frequency,
		PromoCode:     d.PromoCode,
	})
	switch {
	case domain.IsStore(err):
		return Reply{Text: msgStoreRetry}, err
	case domain.IsConflict(err):
		var ce *domain.ConflictError
		if errors.As(err, &ce) && ce.Resource == "promo_code" {
			e.sessions.Advance(userID, StepCollabPromo)
			return Reply{Text: "Someone claimed this promo code first. Send another one."}, nil
		}
		e.sessions.Clear(userID)
		return Reply{Text: "This channel is already registered. Use /menu to start over."}, nil
	case err != nil:
		return Reply{Text: msgStoreRetry}, err
	}

	e.sessions.Clear(userID)
	return Reply{Text: fmt.Sprintf("Application #%d submitted. We will notify you once it is reviewed.", id)}, nil
}
