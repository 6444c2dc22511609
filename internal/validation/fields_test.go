package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardwaylabs/partnerbot/core/config"
	"github.com/hardwaylabs/partnerbot/internal/domain"
)

func testLimits() config.LimitsConfig {
	return config.LimitsConfig{
		MinStreamViewers:  20,
		MinShortsViews:    1000,
		MinVideoViews:     3000,
		MaxNoteLen:        200,
		DateRetentionDays: 90,
	}
}

func TestViews(t *testing.T) {
	limits := testLimits()

	tests := []struct {
		name        string
		contentType domain.ContentType
		raw         string
		want        int
		ok          bool
	}{
		{"stream at minimum", domain.ContentStream, "20", 20, true},
		{"stream below minimum", domain.ContentStream, "15", 0, false},
		{"stream above minimum", domain.ContentStream, "25", 25, true},
		{"shorts with thousands separator", domain.ContentShorts, "1,500", 1500, true},
		{"shorts with spaces", domain.ContentShorts, "1 500", 1500, true},
		{"shorts below minimum", domain.ContentShorts, "999", 0, false},
		{"video at minimum", domain.ContentVideo, "3000", 3000, true},
		{"video below minimum", domain.ContentVideo, "2999", 0, false},
		{"not a number", domain.ContentVideo, "lots", 0, false},
		{"negative", domain.ContentVideo, "-5000", 0, false},
		{"empty", domain.ContentVideo, "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, verr := Views(tt.contentType, tt.raw, limits)
			if !tt.ok {
				require.NotNil(t, verr)
				return
			}
			require.Nil(t, verr)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPublishDate(t *testing.T) {
	now := time.Date(2024, 2, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"recent date", "25.01.2024", true},
		{"today", "28.02.2024", true},
		{"iso format rejected", "2024-02-25", false},
		{"future", "01.03.2024", false},
		{"older than window", "01.11.2023", false},
		{"impossible day", "32.01.2024", false},
		{"garbage", "yesterday", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, verr := PublishDate(tt.raw, now, 90)
			if !tt.ok {
				require.NotNil(t, verr)
				return
			}
			require.Nil(t, verr)
			assert.False(t, got.After(now))
		})
	}
}

func TestPromoCode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"lowercase normalized", "summer24", "SUMMER24", true},
		{"already upper", "GO10", "GO10", true},
		{"surrounding whitespace", "  PROMO  ", "PROMO", true},
		{"too short", "A", "", false},
		{"too long", "ABCDEFGHIJK", "", false},
		{"punctuation rejected", "GO-10", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, verr := PromoCode(tt.raw)
			if !tt.ok {
				require.NotNil(t, verr)
				return
			}
			require.Nil(t, verr)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNote(t *testing.T) {
	long := make([]byte, 0, 201)
	for i := 0; i < 201; i++ {
		long = append(long, 'a')
	}

	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"zero means no note", "0", "", true},
		{"latin note", "Posted during the evening stream.", "Posted during the evening stream.", true},
		{"cyrillic note", "Опубликовано вчера, статистика растет!", "Опубликовано вчера, статистика растет!", true},
		{"too long", string(long), "", false},
		{"emoji rejected", "great video \U0001F680", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, verr := Note(tt.raw, 200)
			if !tt.ok {
				require.NotNil(t, verr)
				return
			}
			require.Nil(t, verr)
			assert.Equal(t, tt.want, got)
		})
	}
}
