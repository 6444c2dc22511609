package handlers

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/hardwaylabs/partnerbot/core/telegram/callbacks"
	tghelpers "github.com/hardwaylabs/partnerbot/core/telegram/helpers"
	"github.com/hardwaylabs/partnerbot/core/telegram/keyboard"
	"github.com/hardwaylabs/partnerbot/internal/conversation"
)

const (
	cbMenuCollab = "menu_collab"
	cbMenuPaid   = "menu_paid"
	cbMenuHelp   = "menu_help"
	cbFlowKeep   = "flow_keep"
	cbMyAppsPage = "myapps_page"
)

const welcomeText = `*Welcome to the HARDWAY partner bot!*

Here you can apply for a channel partnership and submit paid content for payout.

Pick an option below, or use /menu any time.`

const helpText = `*How it works*

1. Apply for partnership: register your channel and promo code, wait for approval.
2. Once approved, submit links to your paid content for view verification.
3. Payouts are reviewed and confirmed by the HARDWAY team.

Commands:
/menu - main menu
/myapps - your submissions
/mystats - your channels and earnings
/cancel - abort the current application`

func menuMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "🤝 Partner application", Unique: cbMenuCollab}},
		[]keyboard.InlineBtn{{Text: "💰 Submit paid content", Unique: cbMenuPaid}},
		[]keyboard.InlineBtn{{Text: "ℹ️ Help", Unique: cbMenuHelp}},
	)
}

func (h *Handlers) onStart(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()
	if _, err := h.store.GetOrCreateUser(ctx, sender.ID, sender.Username); err != nil {
		if sendErr := tghelpers.SendText(c, "Registration is temporarily unavailable, please try again."); sendErr != nil {
			return sendErr
		}
		return err
	}
	return tghelpers.SendMD(c, welcomeText, menuMarkup())
}

func (h *Handlers) onMenu(c tele.Context) error {
	return tghelpers.SendMD(c, "*Main menu*", menuMarkup())
}

func (h *Handlers) onCancel(c tele.Context) error {
	return reply(c, h.engine.Cancel(c.Sender().ID))
}

func (h *Handlers) cbHelp(c tele.Context) error {
	return tghelpers.SendMD(c, helpText)
}

func (h *Handlers) cbFlowCancel(c tele.Context) error {
	return reply(c, h.engine.Cancel(c.Sender().ID))
}

// flowLabel names a flow in the discard prompt.
func flowLabel(flow string) string {
	switch flow {
	case string(conversation.FlowCollaboration):
		return "partner application"
	case string(conversation.FlowPaidContent):
		return "paid content submission"
	case string(conversation.FlowReview):
		return "review decision"
	}
	return "application"
}

// confirmDiscard asks before throwing away a live draft. target is the
// flow-start spec re-dispatched once the user agrees.
func (h *Handlers) confirmDiscard(c tele.Context, current string, target string) error {
	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "Yes, discard it", Unique: conversation.CBFlowDiscard, Data: target},
		{Text: "No, keep it", Unique: cbFlowKeep},
	})
	text := fmt.Sprintf("You have an unfinished %s. Starting over will discard it. Continue?", flowLabel(current))
	return tghelpers.SendMD(c, text, markup)
}

func (h *Handlers) cbFlowDiscard(c tele.Context) error {
	target := callbacks.CallbackPayload(c)
	h.engine.Cancel(c.Sender().ID)
	return h.startFlow(c, target)
}

func (h *Handlers) cbFlowKeep(c tele.Context) error {
	return tghelpers.SendText(c, "Continuing where you left off.")
}

// startFlow dispatches a flow-start spec: a plain flow name, or
// "review:<kind>:<id>:<decision>" for admin decisions.
func (h *Handlers) startFlow(c tele.Context, target string) error {
	if strings.HasPrefix(target, "review:") {
		return h.startReviewSpec(c, target)
	}
	switch target {
	case string(conversation.FlowCollaboration):
		return h.startCollaboration(c)
	case string(conversation.FlowPaidContent):
		return h.startPaidContent(c)
	}
	return tghelpers.SendText(c, "Use /menu to start over.")
}

func (h *Handlers) cbStartCollaboration(c tele.Context) error {
	if flow, ok := h.engine.InProgress(c.Sender().ID); ok {
		return h.confirmDiscard(c, string(flow), string(conversation.FlowCollaboration))
	}
	return h.startCollaboration(c)
}

func (h *Handlers) startCollaboration(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()
	user, err := h.store.GetOrCreateUser(ctx, sender.ID, sender.Username)
	if err != nil {
		if sendErr := tghelpers.SendText(c, "Storage is temporarily unavailable, please try again."); sendErr != nil {
			return sendErr
		}
		return err
	}
	return reply(c, h.engine.BeginCollaboration(sender.ID, user.ID))
}

func (h *Handlers) cbStartPaidContent(c tele.Context) error {
	if flow, ok := h.engine.InProgress(c.Sender().ID); ok {
		return h.confirmDiscard(c, string(flow), string(conversation.FlowPaidContent))
	}
	return h.startPaidContent(c)
}

func (h *Handlers) startPaidContent(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()
	user, err := h.store.GetOrCreateUser(ctx, sender.ID, sender.Username)
	if err != nil {
		if sendErr := tghelpers.SendText(c, "Storage is temporarily unavailable, please try again."); sendErr != nil {
			return sendErr
		}
		return err
	}
	r, err := h.engine.BeginPaidContent(ctx, sender.ID, user.ID)
	if sendErr := reply(c, r); err == nil {
		err = sendErr
	}
	return err
}

func (h *Handlers) cbCollabPlatform(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	r, err := h.engine.CollabPlatform(ctx, c.Sender().ID, callbacks.CallbackPayload(c))
	if sendErr := reply(c, r); err == nil {
		err = sendErr
	}
	return err
}

func (h *Handlers) cbCollabConfirm(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	r, err := h.engine.ConfirmCollaboration(ctx, c.Sender().ID)
	if sendErr := reply(c, r); err == nil {
		err = sendErr
	}
	return err
}

func (h *Handlers) cbPaidType(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	r, err := h.engine.PaidType(ctx, c.Sender().ID, callbacks.CallbackPayload(c))
	if sendErr := reply(c, r); err == nil {
		err = sendErr
	}
	return err
}

func (h *Handlers) cbPaidConfirm(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	r, err := h.engine.ConfirmPaidContent(ctx, c.Sender().ID)
	if sendErr := reply(c, r); err == nil {
		err = sendErr
	}
	return err
}

func (h *Handlers) cbReviewConfirm(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	r, err := h.engine.ConfirmReview(ctx, c.Sender().ID)
	if sendErr := reply(c, r); err == nil {
		err = sendErr
	}
	return err
}
