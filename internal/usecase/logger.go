package usecase

import (
	"log/slog"

	"DailyByte/internal/logging"
)

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return logging.Discard()
}
