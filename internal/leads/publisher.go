package leads

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/imrishuroy/go-formflow/internal/forms"
)

// MessageSender is satisfied by *aws.Publisher.
type MessageSender interface {
	SendMessage(ctx context.Context, messageBody string, attributes map[string]string) error
}

// Publisher emits a lead event for every persisted submission.
type Publisher struct {
	sender MessageSender
}

// NewPublisher wraps an SQS publisher.
func NewPublisher(sender MessageSender) *Publisher {
	return &Publisher{sender: sender}
}

// Publish sends the submission as a JSON lead event.
func (p *Publisher) Publish(ctx context.Context, s forms.Submission) error {
	body, err := json.Marshal(EventFromSubmission(s))
	if err != nil {
		return fmt.Errorf("marshal lead event: %w", err)
	}
	attrs := map[string]string{
		"kind":          string(s.Kind),
		"submission_id": s.ID,
	}
	if err := p.sender.SendMessage(ctx, string(body), attrs); err != nil {
		return fmt.Errorf("publish lead %s: %w", s.ID, err)
	}
	return nil
}
