package push

import (
	"context"

	"github.com/angelmondragon/paintref-backend/pkg/logger"
)

// LogSender logs deliveries instead of sending them. Used when push is disabled.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

func (s *LogSender) SendToTokens(ctx context.Context, tokens []string, msg Message) (Result, error) {
	valid, invalid := splitValid(tokens)
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"title":       msg.Title,
			"token_count": len(valid),
			"invalid":     len(invalid),
		}), "push delivery skipped (log sender)")
	}
	return Result{SuccessCount: len(valid), FailureCount: len(invalid), InvalidTokens: invalid}, nil
}
