// Package notify delivers best-effort status notices to record owners.
// Delivery rides the shared outbound dispatcher: failures and overflow are
// logged and dropped, they never reach the admin who made the decision.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/hardwaylabs/partnerbot/core/logger"
	"github.com/hardwaylabs/partnerbot/internal/domain"
)

// Sender is the outbound Telegram surface, satisfied by *tele.Bot.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Queue is the async dispatch surface, satisfied by *sender.Dispatcher.
type Queue interface {
	Enqueue(ctx context.Context, action, endpoint string, run func() error) error
}

// Notifier formats status-change notices and enqueues them for delivery.
// The sender may be attached after construction: the bot instance only
// exists once the Telegram runtime is up.
type Notifier struct {
	mu      sync.RWMutex
	bot     Sender
	queue   Queue
	timeout time.Duration
}

// New builds a Notifier. timeout bounds each delivery attempt.
func New(bot Sender, queue Queue, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{bot: bot, queue: queue, timeout: timeout}
}

// SetSender attaches the outbound Telegram surface.
func (n *Notifier) SetSender(bot Sender) {
	n.mu.Lock()
	n.bot = bot
	n.mu.Unlock()
}

func (n *Notifier) sender() Sender {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.bot
}

// StatusChanged notifies the record owner about an admin decision. It never
// returns an error: the decision already committed and delivery is optional.
func (n *Notifier) StatusChanged(recipientID int64, record any, comment string) {
	text := formatStatus(record, comment)
	bot := n.sender()
	if text == "" || bot == nil || n.queue == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	err := n.queue.Enqueue(ctx, "notify.status_changed", "sendMessage", func() error {
		defer cancel()
		_, sendErr := bot.Send(&tele.User{ID: recipientID}, text, tele.ModeMarkdown)
		return sendErr
	})
	if err != nil {
		cancel()
		logger.Event(context.Background(), "notify", slog.LevelWarn, "notify.dropped",
			slog.Int64("user_id", recipientID),
			slog.String("err", err.Error()))
	}
}

func formatStatus(record any, comment string) string {
	var text string
	switch r := record.(type) {
	case *domain.Channel:
		switch r.Status {
		case domain.StatusApproved:
			text = fmt.Sprintf("🎉 Your channel %s was approved! You are now a HARDWAY partner.", r.Link)
		case domain.StatusRejected:
			text = fmt.Sprintf("Your channel application for %s was declined.", r.Link)
		}
	case *domain.PaymentRequest:
		switch r.Status {
		case domain.StatusApproved:
			text = fmt.Sprintf("✅ Payment request #%d approved for %.2f.", r.ID, r.ApprovedAmount.Float64)
		case domain.StatusRejected:
			text = fmt.Sprintf("❌ Payment request #%d was rejected.", r.ID)
		case domain.StatusPaid:
			text = fmt.Sprintf("💸 Payment request #%d has been paid out.", r.ID)
		}
	case *domain.PaidContentApplication:
		switch r.Status {
		case domain.StatusApproved:
			text = fmt.Sprintf("✅ Your submission #%d was approved.", r.ID)
		case domain.StatusRejected:
			text = fmt.Sprintf("❌ Your submission #%d was rejected.", r.ID)
		case domain.StatusPaid:
			text = fmt.Sprintf("💸 Your submission #%d has been paid.", r.ID)
		}
	}
	if text == "" {
		return ""
	}
	if comment != "" {
		text += "\n\nReviewer comment: " + comment
	}
	return text
}
