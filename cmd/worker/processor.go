package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"

	"github.com/imrishuroy/go-formflow/internal/leads"
)

// LeadWriter persists a lead event (leads.Store).
type LeadWriter interface {
	Create(ctx context.Context, ev leads.Event) error
}

// Processor mirrors lead events from SQS into the leads table.
type Processor struct {
	store  LeadWriter
	logger *log.Logger
}

// NewProcessor creates a new worker processor.
func NewProcessor(store LeadWriter, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.Default()
	}
	return &Processor{store: store, logger: logger}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	p.logger.Printf("[worker] received %d SQS messages", len(ev.Records))
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Lambda retries the batch; repeated failures land in the DLQ.
			p.logger.Printf("[worker] error on message %s: %v", rec.MessageId, err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var ev leads.Event
	if err := json.Unmarshal([]byte(rec.Body), &ev); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if ev.SubmissionID == "" {
		return errors.New("invalid message body: missing submission_id")
	}

	err := p.store.Create(ctx, ev)
	if errors.Is(err, leads.ErrDuplicate) {
		p.logger.Printf("[worker] duplicate delivery for submission=%s, skipped", ev.SubmissionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("store lead %s: %w", ev.SubmissionID, err)
	}

	p.logger.Printf("[worker] stored %s lead submission=%s email=%s", ev.Kind, ev.SubmissionID, ev.Email)
	return nil
}
