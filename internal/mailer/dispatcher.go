package mailer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zhanserikAmangeldi/apex-be/auth-service/pkg/logger"
)

type Notifier interface {
	SendVerificationEmail(ctx context.Context, to, token string) error
}

// Dispatcher sends notifications in the background. SendVerificationEmail returns at
// once; delivery errors are only logged.
type Dispatcher struct {
	next    Notifier
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(next Notifier, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{next: next, timeout: timeout}
}

func (d *Dispatcher) SendVerificationEmail(_ context.Context, to, token string) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		// Detached from the request: the caller may finish before delivery does.
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.next.SendVerificationEmail(ctx, to, token); err != nil {
			logger.WithModule("mailer").Error("failed to send verification email",
				zap.String("email", to),
				zap.Error(err),
			)
		}
	}()
	return nil
}

// Wait blocks until in-flight deliveries finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
