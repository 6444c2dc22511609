package validation

import (
	"strconv"
	"strings"

	"github.com/hardwaylabs/partnerbot/core/config"
	"github.com/hardwaylabs/partnerbot/internal/domain"
)

// Views parses a raw view count, tolerating thousands separators, and
// enforces the per-content-type minimum from the configured limits.
// For streams the count means average concurrent viewers.
func Views(contentType domain.ContentType, raw string, limits config.LimitsConfig) (int, *domain.ValidationError) {
	clean := strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""), " ", "")
	if clean == "" {
		return 0, domain.Invalid("views", "value is empty")
	}
	for _, r := range clean {
		if r < '0' || r > '9' {
			return 0, domain.Invalid("views", "value must contain digits only")
		}
	}
	views, err := strconv.Atoi(clean)
	if err != nil {
		return 0, domain.Invalid("views", "value is not a number")
	}
	if views <= 0 {
		return 0, domain.Invalid("views", "value must be positive")
	}

	min := MinViews(contentType, limits)
	if views < min {
		return 0, domain.Invalid("views", "below the minimum of "+strconv.Itoa(min))
	}
	return views, nil
}

// PositiveInt parses a number with optional thousands separators and
// requires it to be positive. Used where no content-type minimum applies.
func PositiveInt(field, raw string) (int, *domain.ValidationError) {
	clean := strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""), " ", "")
	if clean == "" {
		return 0, domain.Invalid(field, "value is empty")
	}
	for _, r := range clean {
		if r < '0' || r > '9' {
			return 0, domain.Invalid(field, "value must contain digits only")
		}
	}
	n, err := strconv.Atoi(clean)
	if err != nil || n <= 0 {
		return 0, domain.Invalid(field, "value must be positive")
	}
	return n, nil
}

// MinViews returns the configured minimum for the given content type.
func MinViews(contentType domain.ContentType, limits config.LimitsConfig) int {
	switch contentType {
	case domain.ContentStream:
		return limits.MinStreamViewers
	case domain.ContentShorts:
		return limits.MinShortsViews
	default:
		return limits.MinVideoViews
	}
}
