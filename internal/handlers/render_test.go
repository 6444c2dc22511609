package handlers

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardwaylabs/partnerbot/internal/domain"
)

func TestNavButtons(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		offset   int
		pageSize int
		total    int
		labels   []string
		payloads []string
	}{
		{"single page has no nav", "", 0, 5, 3, nil, nil},
		{"first page has only next", "", 0, 5, 12, []string{"Next ➡️"}, []string{"5"}},
		{"middle page has both", "", 5, 5, 12, []string{"⬅️ Back", "Next ➡️"}, []string{"0", "10"}},
		{"last page has only back", "", 10, 5, 12, []string{"⬅️ Back"}, []string{"5"}},
		{"history paging keeps the status", "approved:", 5, 5, 12, []string{"⬅️ Back", "Next ➡️"}, []string{"approved:0", "approved:10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			btns := navButtons("x_page", tt.prefix, tt.offset, tt.pageSize, tt.total)
			require.Len(t, btns, len(tt.labels))
			for i, b := range btns {
				assert.Equal(t, tt.labels[i], b.Text)
				assert.Equal(t, tt.payloads[i], b.Data)
			}
		})
	}
}

func TestStatusFilterRow(t *testing.T) {
	btns := statusFilterRow("chans_filter", domain.StatusApproved, channelStatuses)
	require.Len(t, btns, 2)
	assert.Equal(t, "⏳ pending", btns[0].Text)
	assert.Equal(t, "pending:0", btns[0].Data)
	assert.Equal(t, "❌ rejected", btns[1].Text)
	assert.Equal(t, "rejected:0", btns[1].Data)
	for _, b := range btns {
		assert.Equal(t, "chans_filter", b.Unique)
	}

	assert.Len(t, statusFilterRow("reqs_filter", domain.StatusPending, recordStatuses), 3)
}

func TestParseFilterSpec(t *testing.T) {
	tests := []struct {
		raw    string
		status domain.Status
		offset int
	}{
		{"approved:5", domain.StatusApproved, 5},
		{"rejected:0", domain.StatusRejected, 0},
		{"paid", domain.StatusPaid, 0},
		{"approved:-3", domain.StatusApproved, 0},
		{"approved:junk", domain.StatusApproved, 0},
		{"bogus:5", domain.StatusPending, 0},
		{"", domain.StatusPending, 0},
	}
	for _, tt := range tests {
		status, offset := parseFilterSpec(tt.raw)
		assert.Equal(t, tt.status, status, tt.raw)
		assert.Equal(t, tt.offset, offset, tt.raw)
	}
}

func TestDecisionRows(t *testing.T) {
	rows := decisionRows("a_ok", "a_no", []int64{7, 9})
	require.Len(t, rows, 2)
	require.Len(t, rows[0], 2)
	assert.Equal(t, "a_ok", rows[0][0].Unique)
	assert.Equal(t, "7", rows[0][0].Data)
	assert.Equal(t, "a_no", rows[0][1].Unique)
	assert.Equal(t, "9", rows[1][0].Data)
}

func TestRenderApplication(t *testing.T) {
	app := domain.PaidContentApplication{
		ID:           7,
		ContentType:  domain.ContentStream,
		Link:         "https://www.twitch.tv/videos/123",
		PublishDate:  time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC),
		InitialViews: 45,
		Status:       domain.StatusPending,
		ScreenshotLink: sql.NullString{
			String: "https://i.postimg.cc/abc/stats.png", Valid: true,
		},
	}
	text := renderApplication(app)
	assert.Contains(t, text, "#7")
	assert.Contains(t, text, "25.01.2024")
	assert.Contains(t, text, "stats.png")
	assert.NotContains(t, text, "Payment:")
}

func TestRenderRequestShowsApprovedAmount(t *testing.T) {
	req := domain.PaymentRequest{
		ID:              7,
		ContentType:     domain.ContentVideo,
		ContentLink:     "https://youtu.be/abc",
		Views:           4500,
		RequestedAmount: 100,
		Status:          domain.StatusApproved,
		ApprovedAmount:  sql.NullFloat64{Float64: 80, Valid: true},
	}
	text := renderRequest(req)
	assert.Contains(t, text, "Requested: 100.00")
	assert.Contains(t, text, "approved: 80.00")
}

func TestPageHeader(t *testing.T) {
	assert.Equal(t, "*Queue* (3)\n\n", pageHeader("Queue", 0, 3, 3))
	assert.Equal(t, "*Queue* (6-10 of 12)\n\n", pageHeader("Queue", 5, 5, 12))
}
