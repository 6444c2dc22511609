package handlers

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/hardwaylabs/partnerbot/core/telegram/callbacks"
	tghelpers "github.com/hardwaylabs/partnerbot/core/telegram/helpers"
)

// sendPage posts a paginated list; paging callbacks edit the list message in
// place instead of stacking a new one per page.
func sendPage(c tele.Context, edit bool, text string, markup *tele.ReplyMarkup) error {
	if edit {
		return tghelpers.EditOrSendMD(c, text, markup)
	}
	if markup != nil {
		return tghelpers.SendMD(c, text, markup)
	}
	return tghelpers.SendMD(c, text)
}

func (h *Handlers) onMyApps(c tele.Context) error {
	return h.showMyApps(c, 0, false)
}

func (h *Handlers) cbMyAppsPage(c tele.Context) error {
	offset, err := callbacks.PayloadInt(c)
	if err != nil || offset < 0 {
		offset = 0
	}
	return h.showMyApps(c, offset, true)
}

func (h *Handlers) showMyApps(c tele.Context, offset int, edit bool) error {
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()
	user, err := h.store.GetOrCreateUser(ctx, sender.ID, sender.Username)
	if err != nil {
		return h.storeUnavailable(c, err)
	}

	total, err := h.store.CountUserPaidContent(ctx, user.ID)
	if err != nil {
		return h.storeUnavailable(c, err)
	}
	if total == 0 {
		return tghelpers.SendMD(c, "You have no submissions yet. Start one via /menu.")
	}

	pageSize := h.cfg.Limits.PageSize
	if offset >= total {
		offset = 0
	}
	apps, err := h.store.UserPaidContent(ctx, user.ID, pageSize, offset)
	if err != nil {
		return h.storeUnavailable(c, err)
	}

	var b strings.Builder
	b.WriteString(pageHeader("Your submissions", offset, len(apps), total))
	for _, app := range apps {
		b.WriteString(renderApplication(app))
		b.WriteString("\n")
	}

	markup := listMarkup(nil, navButtons(cbMyAppsPage, "", offset, pageSize, total))
	return sendPage(c, edit, b.String(), markup)
}

func (h *Handlers) onMyStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sender := c.Sender()
	user, err := h.store.GetOrCreateUser(ctx, sender.ID, sender.Username)
	if err != nil {
		return h.storeUnavailable(c, err)
	}

	stats, err := h.store.UserStats(ctx, user.ID)
	if err != nil {
		return h.storeUnavailable(c, err)
	}
	channels, err := h.store.UserChannels(ctx, user.ID)
	if err != nil {
		return h.storeUnavailable(c, err)
	}

	var b strings.Builder
	b.WriteString("*Your statistics*\n\n")
	fmt.Fprintf(&b, "Channels: %d (approved: %d)\n", stats.Channels, stats.ApprovedChannels)
	fmt.Fprintf(&b, "Submissions: %d\n", stats.Applications)
	fmt.Fprintf(&b, "  ⏳ pending: %d\n", stats.PendingApps)
	fmt.Fprintf(&b, "  ✅ approved: %d\n", stats.ApprovedApps)
	fmt.Fprintf(&b, "  ❌ rejected: %d\n", stats.RejectedApps)
	fmt.Fprintf(&b, "  💸 paid: %d\n", stats.PaidApps)
	fmt.Fprintf(&b, "Awaiting payout: %.2f\n", stats.PendingAmount)
	fmt.Fprintf(&b, "Total earned: %.2f\n", stats.TotalEarned)

	if len(channels) > 0 {
		b.WriteString("\n*Your channels*\n\n")
		for _, ch := range channels {
			b.WriteString(renderChannel(ch))
			b.WriteString("\n")
		}
	}
	return tghelpers.SendMD(c, b.String())
}

func (h *Handlers) storeUnavailable(c tele.Context, err error) error {
	if sendErr := tghelpers.SendText(c, "Storage is temporarily unavailable, please try again."); sendErr != nil {
		return sendErr
	}
	return err
}
