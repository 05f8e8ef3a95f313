package email

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// FailoverSender tries each sender in order and stops at the first success.
// Typical chain: primary SMTP, fallback SMTP, critical message log file.
type FailoverSender struct {
	senders []Sender
}

// NewFailoverSender builds a chain, skipping nil senders.
func NewFailoverSender(senders ...Sender) *FailoverSender {
	fs := &FailoverSender{}
	for _, s := range senders {
		if s != nil {
			fs.senders = append(fs.senders, s)
		}
	}
	return fs
}

// Len returns the number of transports in the chain.
func (fs *FailoverSender) Len() int {
	return len(fs.senders)
}

func (fs *FailoverSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if len(fs.senders) == 0 {
		return fmt.Errorf("no senders configured in FailoverSender")
	}
	var errs []error
	for i, s := range fs.senders {
		err := s.Send(ctx, to, subject, rawMessage)
		if err == nil {
			if i > 0 {
				log.Printf("Email to %v delivered by transport #%d after %d failure(s)", to, i+1, i)
			}
			return nil
		}
		errs = append(errs, err)
	}
	return fmt.Errorf("all email transports failed: %w", errors.Join(errs...))
}
