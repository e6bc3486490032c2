package limits

import (
	"context"
	"log/slog"

	"limits-gateway/middleware/limits/domain"
)

// SlogTracer adapta um *slog.Logger para domain.Tracer.
// TraceVerbose vira Debug e TraceInfo vira Info. logger nil usa slog.Default().
func SlogTracer(logger *slog.Logger, attrs ...any) domain.Tracer {
	if logger == nil {
		logger = slog.Default()
	}
	if len(attrs) > 0 {
		logger = logger.With(attrs...)
	}
	return func(level domain.TraceLevel, msg string) {
		lvl := slog.LevelInfo
		if level == domain.TraceVerbose {
			lvl = slog.LevelDebug
		}
		logger.Log(context.Background(), lvl, msg)
	}
}
