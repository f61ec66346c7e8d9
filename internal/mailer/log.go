package mailer

import (
	"context"

	"go.uber.org/zap"

	"github.com/zhanserikAmangeldi/apex-be/auth-service/pkg/logger"
)

// LogNotifier prints verification links instead of mailing them. Used when no SMTP host
// is configured.
type LogNotifier struct {
	BaseURL string
}

func (n *LogNotifier) SendVerificationEmail(_ context.Context, to, token string) error {
	logger.WithModule("mailer").Info("verification link issued",
		zap.String("email", to),
		zap.String("verification", VerificationURL(n.BaseURL, token)),
	)
	return nil
}
