// Package handlers is the Telegram-facing layer: commands, menu callbacks,
// and the admin review surface. It owns no business rules; everything is
// delegated to the conversation engine and the store.
package handlers

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/hardwaylabs/partnerbot/core/config"
	tg "github.com/hardwaylabs/partnerbot/core/telegram"
	"github.com/hardwaylabs/partnerbot/core/telegram/commands"
	tghelpers "github.com/hardwaylabs/partnerbot/core/telegram/helpers"
	"github.com/hardwaylabs/partnerbot/internal/conversation"
	"github.com/hardwaylabs/partnerbot/internal/domain"
	"github.com/hardwaylabs/partnerbot/internal/store"
)

// Store is the persistence surface the handler layer reads through.
type Store interface {
	GetOrCreateUser(ctx context.Context, telegramID int64, username string) (*domain.User, error)
	UserChannels(ctx context.Context, userID int64) ([]domain.Channel, error)
	UserPaidContent(ctx context.Context, userID int64, limit, offset int) ([]domain.PaidContentApplication, error)
	CountUserPaidContent(ctx context.Context, userID int64) (int, error)
	UserStats(ctx context.Context, userID int64) (*domain.UserStats, error)
	PendingChannels(ctx context.Context, limit, offset int) ([]domain.Channel, error)
	CountPendingChannels(ctx context.Context) (int, error)
	ChannelsByStatus(ctx context.Context, status domain.Status, limit, offset int) ([]domain.Channel, error)
	CountChannelsByStatus(ctx context.Context, status domain.Status) (int, error)
	PendingPaidContent(ctx context.Context, limit, offset int) ([]domain.PaidContentApplication, error)
	CountPendingPaidContent(ctx context.Context) (int, error)
	PaidContentByStatus(ctx context.Context, status domain.Status, limit, offset int) ([]domain.PaidContentApplication, error)
	CountPaidContentByStatus(ctx context.Context, status domain.Status) (int, error)
	PendingPaymentRequests(ctx context.Context, limit, offset int) ([]domain.PaymentRequest, error)
	CountPendingPaymentRequests(ctx context.Context) (int, error)
	PaymentRequestsByStatus(ctx context.Context, status domain.Status, limit, offset int) ([]domain.PaymentRequest, error)
	CountPaymentRequestsByStatus(ctx context.Context, status domain.Status) (int, error)
	UpdatePaymentRequestStatus(ctx context.Context, id int64, status domain.Status, approvedAmount float64, comment string) (*domain.PaymentRequest, error)
	ChannelOwnerTelegramID(ctx context.Context, channelID int64) (int64, error)
	AdminStats(ctx context.Context) (*domain.AdminStats, error)
}

var _ Store = (*store.Store)(nil)

// Handlers wires commands and callbacks into a registry. All dependencies
// are passed in; there are no package-level singletons.
type Handlers struct {
	store    Store
	engine   *conversation.Engine
	notifier conversation.Notifier
	cfg      *config.Config
}

// New builds the handler set.
func New(st Store, engine *conversation.Engine, notifier conversation.Notifier, cfg *config.Config) *Handlers {
	return &Handlers{store: st, engine: engine, notifier: notifier, cfg: cfg}
}

// Register attaches every command and callback to the registry.
func (h *Handlers) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.onStart,
		Description: "Register and open the main menu",
	})
	reg.RegisterCommand("/menu", commands.Command{
		Handler:     h.onMenu,
		Description: "Open the main menu",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     h.onCancel,
		Description: "Cancel the current application",
	})
	reg.RegisterCommand("/myapps", commands.Command{
		Handler:     h.onMyApps,
		Description: "Your paid content submissions",
	})
	reg.RegisterCommand("/mystats", commands.Command{
		Handler:     h.onMyStats,
		Description: "Your channels and earnings",
	})

	reg.RegisterCommand("/channels", commands.Command{
		Handler:     h.onPendingChannels,
		Description: "Pending channel applications",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/apps", commands.Command{
		Handler:     h.onPendingApps,
		Description: "Pending paid content submissions",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/requests", commands.Command{
		Handler:     h.onPendingRequests,
		Description: "Pending payment requests",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/pay", commands.Command{
		Handler:     h.onPay,
		Description: "Mark an approved request as paid",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     h.onAdminStats,
		Description: "Review workload overview",
		AdminOnly:   true,
		Hidden:      true,
	})

	for key, fn := range map[string]tele.HandlerFunc{
		cbMenuCollab:                  h.cbStartCollaboration,
		cbMenuPaid:                    h.cbStartPaidContent,
		cbMenuHelp:                    h.cbHelp,
		conversation.CBFlowCancel:     h.cbFlowCancel,
		conversation.CBFlowDiscard:    h.cbFlowDiscard,
		cbFlowKeep:                    h.cbFlowKeep,
		conversation.CBCollabPlatform: h.cbCollabPlatform,
		conversation.CBCollabConfirm:  h.cbCollabConfirm,
		conversation.CBPaidType:       h.cbPaidType,
		conversation.CBPaidConfirm:    h.cbPaidConfirm,
		conversation.CBReviewConfirm:  h.cbReviewConfirm,
		cbMyAppsPage:                  h.cbMyAppsPage,
		cbChannelsPage:                h.adminGate(h.cbChannelsPage),
		cbChannelsFilter:              h.adminGate(h.cbChannelsFilter),
		cbAppsPage:                    h.adminGate(h.cbAppsPage),
		cbAppsFilter:                  h.adminGate(h.cbAppsFilter),
		cbRequestsPage:                h.adminGate(h.cbRequestsPage),
		cbRequestsFilter:              h.adminGate(h.cbRequestsFilter),
		cbChannelApprove:              h.adminGate(h.cbChannelDecision(domain.StatusApproved)),
		cbChannelReject:               h.adminGate(h.cbChannelDecision(domain.StatusRejected)),
		cbAppApprove:                  h.adminGate(h.cbAppDecision(domain.StatusApproved)),
		cbAppReject:                   h.adminGate(h.cbAppDecision(domain.StatusRejected)),
		cbRequestApprove:              h.adminGate(h.cbRequestDecision(domain.StatusApproved)),
		cbRequestReject:               h.adminGate(h.cbRequestDecision(domain.StatusRejected)),
	} {
		_ = reg.RegisterCallback(key, fn)
	}
}

// adminGate guards review callbacks; command-level AdminOnly does not cover
// button presses.
func (h *Handlers) adminGate(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Sender() == nil || !h.cfg.IsAdmin(c.Sender().ID) {
			return tghelpers.SendText(c, "This action is for administrators.")
		}
		return next(c)
	}
}

func reply(c tele.Context, r conversation.Reply) error {
	if r.Text == "" {
		return nil
	}
	if r.Markup != nil {
		return tghelpers.SendMD(c, r.Text, r.Markup)
	}
	return tghelpers.SendMD(c, r.Text)
}
