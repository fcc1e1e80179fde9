package email

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/kugather/signup-verification/internal/core/ports"
)

// ThrottledSender caps the outbound mail rate of this instance.
type ThrottledSender struct {
	next    ports.MailSender
	limiter *rate.Limiter
}

// NewThrottledSender allows perSecond messages with bursts up to burst.
func NewThrottledSender(next ports.MailSender, perSecond float64, burst int) *ThrottledSender {
	if burst < 1 {
		burst = 1
	}
	return &ThrottledSender{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

var _ ports.MailSender = (*ThrottledSender)(nil)

func (s *ThrottledSender) Send(ctx context.Context, msg *ports.MailMessage) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail throttle: %w", err)
	}
	return s.next.Send(ctx, msg)
}
