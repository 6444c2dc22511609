package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardwaylabs/partnerbot/internal/domain"
)

func TestDeltaForCreate(t *testing.T) {
	d := deltaForCreate(150.50)
	assert.Equal(t, counterDelta{Total: 1, Pending: 1, PendingAmount: 150.50}, d)
}

func TestDeltaForTransition(t *testing.T) {
	tests := []struct {
		name      string
		from, to  domain.Status
		requested float64
		approved  float64
		want      counterDelta
		legal     bool
	}{
		{
			name: "full approval",
			from: domain.StatusPending, to: domain.StatusApproved,
			requested: 100, approved: 100,
			want:  counterDelta{Pending: -1, Approved: 1, PendingAmount: -100, TotalEarned: 100},
			legal: true,
		},
		{
			name: "partial approval removes full requested amount from pending",
			from: domain.StatusPending, to: domain.StatusApproved,
			requested: 100, approved: 80,
			want:  counterDelta{Pending: -1, Approved: 1, PendingAmount: -100, TotalEarned: 80},
			legal: true,
		},
		{
			name: "rejection",
			from: domain.StatusPending, to: domain.StatusRejected,
			requested: 250,
			want:      counterDelta{Pending: -1, Rejected: 1, PendingAmount: -250},
			legal:     true,
		},
		{
			name: "payout leaves counters untouched",
			from: domain.StatusApproved, to: domain.StatusPaid,
			requested: 100, approved: 100,
			legal: true,
		},
		{
			name: "approved cannot be rejected",
			from: domain.StatusApproved, to: domain.StatusRejected,
		},
		{
			name: "rejected is terminal",
			from: domain.StatusRejected, to: domain.StatusApproved,
		},
		{
			name: "pending cannot be paid directly",
			from: domain.StatusPending, to: domain.StatusPaid,
		},
		{
			name: "paid is terminal",
			from: domain.StatusPaid, to: domain.StatusApproved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := deltaForTransition(tt.from, tt.to, tt.requested, tt.approved)
			if !tt.legal {
				require.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
