package handlers

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/hardwaylabs/partnerbot/core/telegram/format"
	"github.com/hardwaylabs/partnerbot/core/telegram/keyboard"
	"github.com/hardwaylabs/partnerbot/internal/domain"
)

// mdSafe keeps free-form user text from opening markdown entities in the
// rendered message. Links are pattern-validated and stay as they are.
func mdSafe(s string) string { return format.EscapeMarkdown(s) }

func statusEmoji(s domain.Status) string {
	switch s {
	case domain.StatusPending:
		return "⏳"
	case domain.StatusApproved:
		return "✅"
	case domain.StatusRejected:
		return "❌"
	case domain.StatusPaid:
		return "💸"
	}
	return "•"
}

func renderApplication(app domain.PaidContentApplication) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s *#%d* %s\n", statusEmoji(app.Status), app.ID, app.ContentType)
	fmt.Fprintf(&b, "%s\n", app.Link)
	fmt.Fprintf(&b, "Published: %s, views: %d\n", app.PublishDate.Format("02.01.2006"), app.InitialViews)
	if app.ScreenshotLink.Valid {
		fmt.Fprintf(&b, "Statistics: %s\n", app.ScreenshotLink.String)
	}
	if app.PaymentAmount.Valid {
		fmt.Fprintf(&b, "Payment: %.2f\n", app.PaymentAmount.Float64)
	}
	if app.Note.Valid {
		fmt.Fprintf(&b, "Note: %s\n", mdSafe(app.Note.String))
	}
	if app.AdminComment.Valid {
		fmt.Fprintf(&b, "Reviewer: %s\n", mdSafe(app.AdminComment.String))
	}
	return b.String()
}

func renderRequest(req domain.PaymentRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s *#%d* %s, %d views\n", statusEmoji(req.Status), req.ID, req.ContentType, req.Views)
	fmt.Fprintf(&b, "%s\n", req.ContentLink)
	fmt.Fprintf(&b, "Requested: %.2f", req.RequestedAmount)
	if req.ApprovedAmount.Valid {
		fmt.Fprintf(&b, ", approved: %.2f", req.ApprovedAmount.Float64)
	}
	b.WriteString("\n")
	return b.String()
}

func renderChannel(ch domain.Channel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s *#%d* %s\n", statusEmoji(ch.Status), ch.ID, ch.Platform)
	fmt.Fprintf(&b, "%s\n", ch.Link)
	if ch.Platform == domain.PlatformTwitch {
		fmt.Fprintf(&b, "Avg viewers: %d, ", ch.TwitchViewers)
	}
	fmt.Fprintf(&b, "Typical views: %d\n", ch.ViewsCount)
	if ch.PromoCode.Valid {
		fmt.Fprintf(&b, "Promo: %s\n", ch.PromoCode.String)
	}
	if ch.Experience.Valid {
		fmt.Fprintf(&b, "Experience: %s\n", mdSafe(ch.Experience.String))
	}
	if ch.Frequency.Valid {
		fmt.Fprintf(&b, "Frequency: %s\n", mdSafe(ch.Frequency.String))
	}
	return b.String()
}

// navButtons builds prev/next paging buttons when the result set spans more
// than one page. Payload is the target offset behind an optional prefix;
// history views prefix the status so paging stays within the filtered set.
func navButtons(unique, prefix string, offset, pageSize, total int) []keyboard.InlineBtn {
	if pageSize <= 0 || total <= pageSize {
		return nil
	}
	var btns []keyboard.InlineBtn
	if offset > 0 {
		prev := offset - pageSize
		if prev < 0 {
			prev = 0
		}
		btns = append(btns, keyboard.InlineBtn{Text: "⬅️ Back", Unique: unique, Data: prefix + strconv.Itoa(prev)})
	}
	if offset+pageSize < total {
		btns = append(btns, keyboard.InlineBtn{Text: "Next ➡️", Unique: unique, Data: prefix + strconv.Itoa(offset+pageSize)})
	}
	return btns
}

// Channels never reach the paid state, so their switcher skips it.
var (
	channelStatuses = []domain.Status{domain.StatusPending, domain.StatusApproved, domain.StatusRejected}
	recordStatuses  = []domain.Status{domain.StatusPending, domain.StatusApproved, domain.StatusRejected, domain.StatusPaid}
)

// statusFilterRow builds the queue/history switcher, leaving out the view
// that is already on screen.
func statusFilterRow(unique string, current domain.Status, statuses []domain.Status) []keyboard.InlineBtn {
	btns := make([]keyboard.InlineBtn, 0, len(statuses)-1)
	for _, s := range statuses {
		if s == current {
			continue
		}
		btns = append(btns, keyboard.InlineBtn{
			Text:   statusEmoji(s) + " " + string(s),
			Unique: unique,
			Data:   string(s) + ":0",
		})
	}
	return btns
}

// parseFilterSpec decodes the "<status>:<offset>" payload of a history
// switcher or paging button. Anything malformed falls back to the pending
// queue's first page.
func parseFilterSpec(raw string) (domain.Status, int) {
	parts := strings.SplitN(raw, ":", 2)
	status, err := domain.ParseStatus(parts[0])
	if err != nil {
		return domain.StatusPending, 0
	}
	offset := 0
	if len(parts) == 2 {
		if n, convErr := strconv.Atoi(parts[1]); convErr == nil && n > 0 {
			offset = n
		}
	}
	return status, offset
}

// decisionRows renders one approve/reject row per listed record.
func decisionRows(approveUnique, rejectUnique string, ids []int64) [][]keyboard.InlineBtn {
	rows := make([][]keyboard.InlineBtn, 0, len(ids))
	for _, id := range ids {
		payload := strconv.FormatInt(id, 10)
		rows = append(rows, []keyboard.InlineBtn{
			{Text: fmt.Sprintf("✅ #%d", id), Unique: approveUnique, Data: payload},
			{Text: fmt.Sprintf("❌ #%d", id), Unique: rejectUnique, Data: payload},
		})
	}
	return rows
}

func listMarkup(rows [][]keyboard.InlineBtn, nav []keyboard.InlineBtn) *tele.ReplyMarkup {
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	if len(rows) == 0 {
		return nil
	}
	return keyboard.InlineButtonsRows(rows...)
}

func pageHeader(title string, offset, shown, total int) string {
	if total <= shown {
		return fmt.Sprintf("*%s* (%d)\n\n", title, total)
	}
	return fmt.Sprintf("*%s* (%d-%d of %d)\n\n", title, offset+1, offset+shown, total)
}
