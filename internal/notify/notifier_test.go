package notify

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/hardwaylabs/partnerbot/internal/domain"
)

type syncQueue struct {
	enqueued int
	err      error
}

func (q *syncQueue) Enqueue(_ context.Context, _, _ string, run func() error) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued++
	return run()
}

type recordingSender struct {
	to   []int64
	text []string
	err  error
}

func (s *recordingSender) Send(to tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	user, ok := to.(*tele.User)
	if ok {
		s.to = append(s.to, user.ID)
	}
	if text, ok := what.(string); ok {
		s.text = append(s.text, text)
	}
	return &tele.Message{}, nil
}

func TestStatusChangedDelivers(t *testing.T) {
	sender := &recordingSender{}
	q := &syncQueue{}
	n := New(sender, q, time.Second)

	n.StatusChanged(555, &domain.PaymentRequest{
		ID:             7,
		Status:         domain.StatusApproved,
		ApprovedAmount: sql.NullFloat64{Float64: 80, Valid: true},
	}, "Partial payout")

	require.Len(t, sender.to, 1)
	assert.Equal(t, int64(555), sender.to[0])
	assert.Contains(t, sender.text[0], "80.00")
	assert.Contains(t, sender.text[0], "Partial payout")
}

func TestStatusChangedSwallowsFailures(t *testing.T) {
	n := New(&recordingSender{err: errors.New("blocked by user")}, &syncQueue{}, time.Second)
	n.StatusChanged(555, &domain.Channel{Status: domain.StatusApproved, Link: "https://twitch.tv/x"}, "")
}

func TestStatusChangedQueueOverflow(t *testing.T) {
	sender := &recordingSender{}
	n := New(sender, &syncQueue{err: errors.New("queue full")}, time.Second)
	n.StatusChanged(555, &domain.Channel{Status: domain.StatusApproved, Link: "https://twitch.tv/x"}, "")
	assert.Empty(t, sender.to)
}

func TestFormatStatus(t *testing.T) {
	tests := []struct {
		name    string
		record  any
		comment string
		want    string
		empty   bool
	}{
		{
			name:   "approved channel",
			record: &domain.Channel{Status: domain.StatusApproved, Link: "https://twitch.tv/x"},
			want:   "approved",
		},
		{
			name:    "rejected application with comment",
			record:  &domain.PaidContentApplication{ID: 3, Status: domain.StatusRejected},
			comment: "Views do not match the screenshot",
			want:    "Views do not match",
		},
		{
			name:   "paid request",
			record: &domain.PaymentRequest{ID: 9, Status: domain.StatusPaid},
			want:   "paid out",
		},
		{
			name:   "pending produces nothing",
			record: &domain.Channel{Status: domain.StatusPending},
			empty:  true,
		},
		{
			name:   "unknown record produces nothing",
			record: "something else",
			empty:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatStatus(tt.record, tt.comment)
			if tt.empty {
				assert.Empty(t, got)
				return
			}
			assert.Contains(t, got, tt.want)
		})
	}
}
