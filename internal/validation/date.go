package validation

import (
	"strings"
	"time"

	"github.com/hardwaylabs/partnerbot/internal/domain"
)

const dateLayout = "02.01.2006"

// PublishDate parses a strict dd.mm.yyyy date and checks it is neither in
// the future nor older than the retention window.
func PublishDate(raw string, now time.Time, retentionDays int) (time.Time, *domain.ValidationError) {
	s := strings.TrimSpace(raw)
	parsed, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, domain.Invalid("publish_date", "expected format dd.mm.yyyy")
	}
	// time.Parse normalizes overflow dates like 32.01.2024; require the
	// round trip to reproduce the input exactly.
	if parsed.Format(dateLayout) != s {
		return time.Time{}, domain.Invalid("publish_date", "not a real calendar date")
	}

	if parsed.After(now) {
		return time.Time{}, domain.Invalid("publish_date", "date is in the future")
	}
	oldest := now.AddDate(0, 0, -retentionDays)
	if parsed.Before(oldest) {
		return time.Time{}, domain.Invalid("publish_date", "content is older than the accepted window")
	}
	return parsed, nil
}
