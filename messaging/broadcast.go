package messaging

import (
	"context"
	"time"

	"bitbucket.org/nusalink/ispbilling_backend/config"
)

// DefaultSendDelay paces sequential dispatch so the gateway does not flag
// the account for spam bursts.
const DefaultSendDelay = 500 * time.Millisecond

type SendOutcome struct {
	Phone string `json:"phone"`
	Sent  bool   `json:"sent"`
	Error string `json:"error,omitempty"`
}

type BroadcastReport struct {
	Provider string        `json:"provider"`
	Sent     int           `json:"sent"`
	Failed   int           `json:"failed"`
	Outcomes []SendOutcome `json:"outcomes"`
}

type Broadcaster struct {
	provider Provider
	delay    time.Duration
}

func NewBroadcaster(provider Provider) *Broadcaster {
	return &Broadcaster{provider: provider, delay: DefaultSendDelay}
}

// WithDelay overrides the pacing delay; zero disables pacing (tests).
func (b *Broadcaster) WithDelay(delay time.Duration) *Broadcaster {
	b.delay = delay
	return b
}

// SendBulk dispatches payloads sequentially in order, pacing between sends.
// Each recipient's failure is recorded and the rest of the batch continues.
func (b *Broadcaster) SendBulk(ctx context.Context, payloads []Payload) *BroadcastReport {
	logger := config.GetLogger()
	report := &BroadcastReport{Provider: b.provider.Name()}

	for i, payload := range payloads {
		if i > 0 && b.delay > 0 {
			select {
			case <-ctx.Done():
				for _, rest := range payloads[i:] {
					report.Failed++
					report.Outcomes = append(report.Outcomes, SendOutcome{
						Phone: rest.Phone,
						Error: ctx.Err().Error(),
					})
				}
				return report
			case <-time.After(b.delay):
			}
		}

		if err := b.provider.Send(ctx, payload); err != nil {
			config.LogError(logger, "broadcast.go", "SendBulk", b.provider.Name(), payload.Phone, err)
			report.Failed++
			report.Outcomes = append(report.Outcomes, SendOutcome{Phone: payload.Phone, Error: err.Error()})
			continue
		}
		report.Sent++
		report.Outcomes = append(report.Outcomes, SendOutcome{Phone: payload.Phone, Sent: true})
	}
	return report
}
