package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/hardwaylabs/partnerbot/core/telegram/callbacks"
	tghelpers "github.com/hardwaylabs/partnerbot/core/telegram/helpers"
	"github.com/hardwaylabs/partnerbot/core/telegram/keyboard"
	"github.com/hardwaylabs/partnerbot/internal/conversation"
	"github.com/hardwaylabs/partnerbot/internal/domain"
)

const (
	cbChannelsPage   = "chans_page"
	cbChannelsFilter = "chans_filter"
	cbAppsPage       = "apps_page"
	cbAppsFilter     = "apps_filter"
	cbRequestsPage   = "reqs_page"
	cbRequestsFilter = "reqs_filter"
	cbChannelApprove = "chan_approve"
	cbChannelReject  = "chan_reject"
	cbAppApprove     = "app_approve"
	cbAppReject      = "app_reject"
	cbRequestApprove = "req_approve"
	cbRequestReject  = "req_reject"
)

func (h *Handlers) onPendingChannels(c tele.Context) error {
	return h.showPendingChannels(c, 0, false)
}

func (h *Handlers) cbChannelsPage(c tele.Context) error {
	offset, err := callbacks.PayloadInt(c)
	if err != nil || offset < 0 {
		offset = 0
	}
	return h.showPendingChannels(c, offset, true)
}

func (h *Handlers) showPendingChannels(c tele.Context, offset int, edit bool) error {
	ctx := tghelpers.BuildContext(c)
	total, err := h.store.CountPendingChannels(ctx)
	if err != nil {
		return h.storeUnavailable(c, err)
	}
	filters := statusFilterRow(cbChannelsFilter, domain.StatusPending, channelStatuses)
	if total == 0 {
		return sendPage(c, edit, "No channel applications waiting for review.",
			listMarkup([][]keyboard.InlineBtn{filters}, nil))
	}
	if offset >= total {
		offset = 0
	}

	pageSize := h.cfg.Limits.PageSize
	channels, err := h.store.PendingChannels(ctx, pageSize, offset)
	if err != nil {
		return h.storeUnavailable(c, err)
	}

	var b strings.Builder
	b.WriteString(pageHeader("Channel applications", offset, len(channels), total))
	ids := make([]int64, 0, len(channels))
	for _, ch := range channels {
		b.WriteString(renderChannel(ch))
		b.WriteString("\n")
		ids = append(ids, ch.ID)
	}

	markup := listMarkup(
		append(decisionRows(cbChannelApprove, cbChannelReject, ids), filters),
		navButtons(cbChannelsPage, "", offset, pageSize, total),
	)
	return sendPage(c, edit, b.String(), markup)
}

// cbChannelsFilter switches the channel list between the pending queue and
// the decided history.
func (h *Handlers) cbChannelsFilter(c tele.Context) error {
	status, offset := parseFilterSpec(callbacks.CallbackPayload(c))
	if status == domain.StatusPending {
		return h.showPendingChannels(c, offset, true)
	}
	return h.showChannelHistory(c, status, offset, true)
}

func (h *Handlers) showChannelHistory(c tele.Context, status domain.Status, offset int, edit bool) error {
	ctx := tghelpers.BuildContext(c)
	total, err := h.store.CountChannelsByStatus(ctx, status)
	if err != nil {
		return h.storeUnavailable(c, err)
	}
	filters := statusFilterRow(cbChannelsFilter, status, channelStatuses)
	if total == 0 {
		return sendPage(c, edit, fmt.Sprintf("No %s channels yet.", status),
			listMarkup([][]keyboard.InlineBtn{filters}, nil))
	}
	if offset >= total {
		offset = 0
	}

	pageSize := h.cfg.Limits.PageSize
	channels, err := h.store.ChannelsByStatus(ctx, status, pageSize, offset)
	if err != nil {
		return h.storeUnavailable(c, err)
	}

	var b strings.Builder
	b.WriteString(pageHeader(fmt.Sprintf("Channels: %s", status), offset, len(channels), total))
	for _, ch := range channels {
		b.WriteString(renderChannel(ch))
		b.WriteString("\n")
	}

	markup := listMarkup(
		[][]keyboard.InlineBtn{filters},
		navButtons(cbChannelsFilter, string(status)+":", offset, pageSize, total),
	)
	return sendPage(c, edit, b.String(), markup)
}

func (h *Handlers) onPendingApps(c tele.Context) error {
	return h.showPendingApps(c, 0, false)
}

func (h *Handlers) cbAppsPage(c tele.Context) error {
	offset, err := callbacks.PayloadInt(c)
	if err != nil || offset < 0 {
		offset = 0
	}
	return h.showPendingApps(c, offset, true)
}

func (h *Handlers) showPendingApps(c tele.Context, offset int, edit bool) error {
	ctx := tghelpers.BuildContext(c)
	total, err := h.store.CountPendingPaidContent(ctx)
	if err != nil {
		return h.storeUnavailable(c, err)
	}
	filters := statusFilterRow(cbAppsFilter, domain.StatusPending, recordStatuses)
	if total == 0 {
		return sendPage(c, edit, "No submissions waiting for review.",
			listMarkup([][]keyboard.InlineBtn{filters}, nil))
	}
	if offset >= total {
		offset = 0
	}

	pageSize := h.cfg.Limits.PageSize
	apps, err := h.store.PendingPaidContent(ctx, pageSize, offset)
	if err != nil {
		return h.storeUnavailable(c, err)
	}

	var b strings.Builder
	b.WriteString(pageHeader("Pending submissions", offset, len(apps), total))
	ids := make([]int64, 0, len(apps))
	for _, app := range apps {
		b.WriteString(renderApplication(app))
		b.WriteString("\n")
		ids = append(ids, app.ID)
	}

	markup := listMarkup(
		append(decisionRows(cbAppApprove, cbAppReject, ids), filters),
		navButtons(cbAppsPage, "", offset, pageSize, total),
	)
	return sendPage(c, edit, b.String(), markup)
}

func (h *Handlers) cbAppsFilter(c tele.Context) error {
	status, offset := parseFilterSpec(callbacks.CallbackPayload(c))
	if status == domain.StatusPending {
		return h.showPendingApps(c, offset, true)
	}
	return h.showAppHistory(c, status, offset, true)
}

func (h *Handlers) showAppHistory(c tele.Context, status domain.Status, offset int, edit bool) error {
	ctx := tghelpers.BuildContext(c)
	total, err := h.store.CountPaidContentByStatus(ctx, status)
	if err != nil {
		return h.storeUnavailable(c, err)
	}
	filters := statusFilterRow(cbAppsFilter, status, recordStatuses)
	if total == 0 {
		return sendPage(c, edit, fmt.Sprintf("No %s submissions yet.", status),
			listMarkup([][]keyboard.InlineBtn{filters}, nil))
	}
	if offset >= total {
		offset = 0
	}

	pageSize := h.cfg.Limits.PageSize
	apps, err := h.store.PaidContentByStatus(ctx, status, pageSize, offset)
	if err != nil {
		return h.storeUnavailable(c, err)
	}

	var b strings.Builder
	b.WriteString(pageHeader(fmt.Sprintf("Submissions: %s", status), offset, len(apps), total))
	for _, app := range apps {
		b.WriteString(renderApplication(app))
		b.WriteString("\n")
	}

	markup := listMarkup(
		[][]keyboard.InlineBtn{filters},
		navButtons(cbAppsFilter, string(status)+":", offset, pageSize, total),
	)
	return sendPage(c, edit, b.String(), markup)
}

func (h *Handlers) onPendingRequests(c tele.Context) error {
	return h.showPendingRequests(c, 0, false)
}

func (h *Handlers) cbRequestsPage(c tele.Context) error {
	offset, err := callbacks.PayloadInt(c)
	if err != nil || offset < 0 {
		offset = 0
	}
	return h.showPendingRequests(c, offset, true)
}

func (h *Handlers) showPendingRequests(c tele.Context, offset int, edit bool) error {
	ctx := tghelpers.BuildContext(c)
	total, err := h.store.CountPendingPaymentRequests(ctx)
	if err != nil {
		return h.storeUnavailable(c, err)
	}
	filters := statusFilterRow(cbRequestsFilter, domain.StatusPending, recordStatuses)
	if total == 0 {
		return sendPage(c, edit, "No payment requests waiting for review.",
			listMarkup([][]keyboard.InlineBtn{filters}, nil))
	}
	if offset >= total {
		offset = 0
	}

	pageSize := h.cfg.Limits.PageSize
	reqs, err := h.store.PendingPaymentRequests(ctx, pageSize, offset)
	if err != nil {
		return h.storeUnavailable(c, err)
	}

	var b strings.Builder
	b.WriteString(pageHeader("Pending payment requests", offset, len(reqs), total))
	ids := make([]int64, 0, len(reqs))
	for _, req := range reqs {
		b.WriteString(renderRequest(req))
		b.WriteString("\n")
		ids = append(ids, req.ID)
	}

	markup := listMarkup(
		append(decisionRows(cbRequestApprove, cbRequestReject, ids), filters),
		navButtons(cbRequestsPage, "", offset, pageSize, total),
	)
	return sendPage(c, edit, b.String(), markup)
}

func (h *Handlers) cbRequestsFilter(c tele.Context) error {
	status, offset := parseFilterSpec(callbacks.CallbackPayload(c))
	if status == domain.StatusPending {
		return h.showPendingRequests(c, offset, true)
	}
	return h.showRequestHistory(c, status, offset, true)
}

func (h *Handlers) showRequestHistory(c tele.Context, status domain.Status, offset int, edit bool) error {
	ctx := tghelpers.BuildContext(c)
	total, err := h.store.CountPaymentRequestsByStatus(ctx, status)
	if err != nil {
		return h.storeUnavailable(c, err)
	}
	filters := statusFilterRow(cbRequestsFilter, status, recordStatuses)
	if total == 0 {
		return sendPage(c, edit, fmt.Sprintf("No %s payment requests yet.", status),
			listMarkup([][]keyboard.InlineBtn{filters}, nil))
	}
	if offset >= total {
		offset = 0
	}

	pageSize := h.cfg.Limits.PageSize
	reqs, err := h.store.PaymentRequestsByStatus(ctx, status, pageSize, offset)
	if err != nil {
		return h.storeUnavailable(c, err)
	}

	var b strings.Builder
	b.WriteString(pageHeader(fmt.Sprintf("Payment requests: %s", status), offset, len(reqs), total))
	for _, req := range reqs {
		b.WriteString(renderRequest(req))
		b.WriteString("\n")
	}

	markup := listMarkup(
		[][]keyboard.InlineBtn{filters},
		navButtons(cbRequestsFilter, string(status)+":", offset, pageSize, total),
	)
	return sendPage(c, edit, b.String(), markup)
}

// cbChannelDecision and friends start the review conversation for one
// record; the comment (and amount, where relevant) is collected by the flow.
func (h *Handlers) cbChannelDecision(decision domain.Status) tele.HandlerFunc {
	return h.cbDecision(conversation.ReviewChannel, decision)
}

func (h *Handlers) cbAppDecision(decision domain.Status) tele.HandlerFunc {
	return h.cbDecision(conversation.ReviewApplication, decision)
}

func (h *Handlers) cbRequestDecision(decision domain.Status) tele.HandlerFunc {
	return h.cbDecision(conversation.ReviewRequest, decision)
}

func (h *Handlers) cbDecision(kind conversation.ReviewKind, decision domain.Status) tele.HandlerFunc {
	return func(c tele.Context) error {
		id, err := callbacks.PayloadInt64(c)
		if err != nil || id <= 0 {
			return tghelpers.SendText(c, "Malformed record reference.")
		}
		target := fmt.Sprintf("review:%s:%d:%s", kind, id, decision)
		if flow, ok := h.engine.InProgress(c.Sender().ID); ok {
			return h.confirmDiscard(c, string(flow), target)
		}
		return h.beginReview(c, kind, id, decision)
	}
}

// startReviewSpec re-dispatches a confirmed discard into the review flow.
func (h *Handlers) startReviewSpec(c tele.Context, spec string) error {
	parts := strings.Split(spec, ":")
	if len(parts) != 4 {
		return tghelpers.SendText(c, "Malformed record reference.")
	}
	id, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || id <= 0 {
		return tghelpers.SendText(c, "Malformed record reference.")
	}
	decision, err := domain.ParseStatus(parts[3])
	if err != nil {
		return tghelpers.SendText(c, "Malformed record reference.")
	}
	return h.beginReview(c, conversation.ReviewKind(parts[1]), id, decision)
}

func (h *Handlers) beginReview(c tele.Context, kind conversation.ReviewKind, id int64, decision domain.Status) error {
	r, err := h.engine.BeginReview(tghelpers.BuildContext(c), c.Sender().ID, conversation.ReviewDraft{
		Kind:     kind,
		TargetID: id,
		Decision: decision,
	})
	if sendErr := reply(c, r); err == nil {
		err = sendErr
	}
	return err
}

// onPay marks an approved payment request as paid: /pay <id>.
func (h *Handlers) onPay(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	args := c.Args()
	if len(args) != 1 {
		return tghelpers.SendMD(c, "Usage: `/pay <request id>`")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return tghelpers.SendMD(c, "Usage: `/pay <request id>`")
	}

	req, err := h.store.UpdatePaymentRequestStatus(ctx, id, domain.StatusPaid, 0, "")
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return tghelpers.SendText(c, fmt.Sprintf("Request #%d does not exist.", id))
	case domain.IsConflict(err):
		return tghelpers.SendText(c, fmt.Sprintf("Request #%d is not approved: %v", id, err))
	case err != nil:
		return h.storeUnavailable(c, err)
	}

	if h.notifier != nil {
		if tgID, lookupErr := h.store.ChannelOwnerTelegramID(ctx, req.ChannelID); lookupErr == nil {
			h.notifier.StatusChanged(tgID, req, "")
		}
	}
	return tghelpers.SendText(c, fmt.Sprintf("Request #%d marked as paid.", id))
}

func (h *Handlers) onAdminStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	stats, err := h.store.AdminStats(ctx)
	if err != nil {
		return h.storeUnavailable(c, err)
	}

	var b strings.Builder
	b.WriteString("*Review workload*\n\n")
	fmt.Fprintf(&b, "Users: %d\n", stats.Users)
	fmt.Fprintf(&b, "Channels: %d (pending: %d)\n", stats.Channels, stats.PendingChannels)
	fmt.Fprintf(&b, "Pending submissions: %d\n", stats.PendingApplications)
	fmt.Fprintf(&b, "Pending payment requests: %d\n", stats.PendingRequests)
	fmt.Fprintf(&b, "Pending amount: %.2f\n", stats.PendingAmount)
	fmt.Fprintf(&b, "Total paid out: %.2f\n", stats.TotalPaid)
	return tghelpers.SendMD(c, b.String())
}
