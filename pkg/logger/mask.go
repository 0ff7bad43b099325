package logger

import (
	"go.uber.org/zap"

	"github.com/troikatech/call-router/pkg/utils"
)

// MaskPhone creates a zap field that masks phone numbers
func MaskPhone(key, phone string) zap.Field {
	return zap.String(key, utils.MaskPhoneNumber(phone))
}
