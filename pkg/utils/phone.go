package utils

import "strings"

const (
	brazilCountryCode = "55"
	whatsAppBaseURL   = "https://wa.me/"
)

// DigitsOnly drops every character that is not an ASCII digit.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WhatsAppURLFromPhone builds a wa.me deep link for a Brazilian phone number.
// Numbers already carrying the 55 country code need at least 12 digits; local
// numbers (area code + subscriber, 10 or 11 digits) get the code prepended.
// Anything else is ambiguous and yields no link.
func WhatsAppURLFromPhone(phone string) (string, bool) {
	digits := DigitsOnly(phone)

	switch {
	case strings.HasPrefix(digits, brazilCountryCode) && len(digits) >= 12:
		return whatsAppBaseURL + digits, true
	case len(digits) == 10 || len(digits) == 11:
		return whatsAppBaseURL + brazilCountryCode + digits, true
	default:
		return "", false
	}
}
