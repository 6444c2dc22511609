package validation

import (
	"regexp"
	"strings"

	"github.com/hardwaylabs/partnerbot/internal/domain"
)

var promoCodePattern = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

// PromoCode uppercases and validates a promo code.
func PromoCode(raw string) (string, *domain.ValidationError) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if !promoCodePattern.MatchString(code) {
		return "", domain.Invalid("promo_code", "expected 2-10 uppercase letters or digits")
	}
	return code, nil
}

const noteAllowedPunct = " .,!?()-_"

// Note validates a free-text note. The literal "0" means "no note" and
// normalizes to the empty string. Otherwise the note is capped at maxLen
// characters from the allow-list of Cyrillic and Latin letters, digits, and
// basic punctuation.
func Note(raw string, maxLen int) (string, *domain.ValidationError) {
	note := strings.TrimSpace(raw)
	if note == "0" {
		return "", nil
	}
	if note == "" {
		return "", domain.Invalid("note", "send a note or 0 for none")
	}
	if len([]rune(note)) > maxLen {
		return "", domain.Invalid("note", "note is too long")
	}
	for _, r := range note {
		if !noteRuneAllowed(r) {
			return "", domain.Invalid("note", "note contains unsupported characters")
		}
	}
	return note, nil
}

func noteRuneAllowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r >= 'а' && r <= 'я', r >= 'А' && r <= 'Я', r == 'ё', r == 'Ё':
		return true
	}
	return strings.ContainsRune(noteAllowedPunct, r)
}
