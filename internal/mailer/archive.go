package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zhanserikAmangeldi/apex-be/auth-service/pkg/email"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/pkg/logger"
)

type ObjectWriter interface {
	Put(ctx context.Context, objectName string, data []byte, contentType string) error
}

// ArchivingTransport keeps a copy of every delivered message in object storage.
// Archive failures are logged and never fail the delivery.
type ArchivingTransport struct {
	Next  Transport
	Store ObjectWriter
	From  string
	Now   func() time.Time
}

func (t *ArchivingTransport) Send(ctx context.Context, msg email.Message) error {
	if err := t.Next.Send(ctx, msg); err != nil {
		return err
	}

	now := time.Now
	if t.Now != nil {
		now = t.Now
	}

	name := ArchiveObjectName(msg.To, now())
	if err := t.Store.Put(ctx, name, email.Compose(t.From, msg), "message/rfc822"); err != nil {
		logger.WithModule("mailer").Warn("failed to archive verification email",
			zap.String("object", name),
			zap.Error(err),
		)
	}

	return nil
}

func ArchiveObjectName(to string, at time.Time) string {
	at = at.UTC()
	recipient := strings.NewReplacer("/", "_", "\\", "_").Replace(strings.ToLower(to))
	return fmt.Sprintf("%s/%s/%d.eml", at.Format("2006/01/02"), recipient, at.UnixNano())
}
