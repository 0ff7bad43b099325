package logger

import "go.uber.org/zap"

// CallFields identifies one call in log lines without exposing numbers.
func CallFields(callID, from, to string) []zap.Field {
	return []zap.Field{
		zap.String("call_id", callID),
		MaskPhone("from", from),
		MaskPhone("to", to),
	}
}

// TurnFields identifies one conversation turn.
func TurnFields(callID string, turn int) []zap.Field {
	return []zap.Field{
		zap.String("call_id", callID),
		zap.Int("turn", turn),
	}
}
