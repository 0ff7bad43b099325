package utils

import (
	"regexp"
	"strings"
)

var (
	e164Pattern     = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	maskablePattern = regexp.MustCompile(`^(\+)(\d{1,2})(\d{2})(\d+)$`)
	phoneNoise      = regexp.MustCompile(`[^\d+]`)
)

// MaskPhoneNumber masks a phone number for logging
// Example: +46705152223 -> +4670•••2223
func MaskPhoneNumber(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	if m := maskablePattern.FindStringSubmatch(phone); len(m) == 5 && len(m[4]) >= 4 {
		rest := m[4]
		return "+" + m[2] + m[3] + strings.Repeat("•", len(rest)-4) + rest[len(rest)-4:]
	}

	if len(phone) > 4 {
		return strings.Repeat("•", len(phone)-4) + phone[len(phone)-4:]
	}
	return strings.Repeat("•", len(phone))
}

// ValidateE164 validates E.164 phone number format
func ValidateE164(phone string) bool {
	return e164Pattern.MatchString(phone)
}

// NormalizePhone rewrites a dialled or displayed number into E.164 using
// countryCode for national numbers. 0046... and 46... are both accepted.
func NormalizePhone(phone, countryCode string) string {
	cleaned := phoneNoise.ReplaceAllString(phone, "")
	if cleaned == "" {
		return ""
	}
	countryCode = strings.TrimPrefix(countryCode, "+")

	switch {
	case strings.HasPrefix(cleaned, "+"):
		return cleaned
	case strings.HasPrefix(cleaned, "00"):
		return "+" + cleaned[2:]
	case strings.HasPrefix(cleaned, "0"):
		return "+" + countryCode + cleaned[1:]
	case countryCode != "" && strings.HasPrefix(cleaned, countryCode):
		return "+" + cleaned
	default:
		return "+" + countryCode + cleaned
	}
}

// SamePhone reports whether two numbers address the same subscriber.
// Empty numbers never match.
func SamePhone(a, b, countryCode string) bool {
	na, nb := NormalizePhone(a, countryCode), NormalizePhone(b, countryCode)
	return na != "" && na == nb
}
