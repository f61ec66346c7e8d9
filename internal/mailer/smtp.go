package mailer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/zhanserikAmangeldi/apex-be/auth-service/pkg/email"
)

// Transport delivers a fully rendered message.
type Transport interface {
	Send(ctx context.Context, msg email.Message) error
}

type SMTPMailer struct {
	Transport Transport
	BaseURL   string
	TokenTTL  time.Duration
	Render    *TemplateRender
}

func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, to, token string) error {
	verifyURL := VerificationURL(m.BaseURL, token)

	data := map[string]interface{}{
		"VerifyURL":        verifyURL,
		"ExpiresInMinutes": int(m.TokenTTL / time.Minute),
	}

	body, err := m.Render.Render("verification", data)
	if err != nil {
		body = fmt.Sprintf(`
Hello,

Please verify your email by clicking the link below:
%s

This link will expire in %d minutes.

If you didn't create an account, please ignore this email.

Best regards,
The Apex Team
`, verifyURL, int(m.TokenTTL/time.Minute))
	}

	return m.Transport.Send(ctx, email.Message{
		To:      to,
		Subject: "Verify your email address",
		HTML:    body,
	})
}

func VerificationURL(baseURL, token string) string {
	return fmt.Sprintf("%s/verify-email?token=%s", strings.TrimRight(baseURL, "/"), url.QueryEscape(token))
}
