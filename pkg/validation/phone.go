package validation

import (
	"fmt"
	"strings"

	"github.com/troikatech/call-router/pkg/utils"
)

func ValidateE164(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return fmt.Errorf("phone number is required")
	}
	if !utils.ValidateE164(phone) {
		return fmt.Errorf("phone number must be in E.164 format (e.g., +46701234567)")
	}
	return nil
}

// NormalizeE164 normalizes a number for storage and rejects anything that is
// not a valid E.164 number afterwards.
func NormalizeE164(phone, countryCode string) (string, error) {
	normalized := utils.NormalizePhone(phone, countryCode)
	if err := ValidateE164(normalized); err != nil {
		return "", fmt.Errorf("cannot normalize phone number %q: %w", phone, err)
	}
	return normalized, nil
}
