package notify

import "context"

// Notifier delivers one alert to one recipient.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Multi []Notifier

func (m Multi) Send(ctx context.Context, to, subject, body string) error {
	var firstErr error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, to, subject, body); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
