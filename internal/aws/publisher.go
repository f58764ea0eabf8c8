package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// Publisher puts lead events on the leads queue consumed by cmd/worker.
// It satisfies leads.MessageSender.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher for the leads queue at queueURL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{SQS: sqsClient, QueueURL: queueURL}
}

// SendMessage enqueues one JSON lead event. attributes (kind, submission_id)
// become String message attributes so queue subscribers can filter without
// parsing the body; empty values are dropped because SQS rejects them.
func (p *Publisher) SendMessage(ctx context.Context, messageBody string, attributes map[string]string) error {
	input := &sqs.SendMessageInput{
		QueueUrl:          &p.QueueURL,
		MessageBody:       &messageBody,
		MessageAttributes: stringAttributes(attributes),
	}
	if _, err := p.SQS.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("enqueue lead event: %w", err)
	}
	return nil
}

// stringAttributes returns nil when no attribute has a value.
func stringAttributes(attributes map[string]string) map[string]sqstypes.MessageAttributeValue {
	var out map[string]sqstypes.MessageAttributeValue
	for k, v := range attributes {
		if v == "" {
			continue
		}
		if out == nil {
			out = make(map[string]sqstypes.MessageAttributeValue, len(attributes))
		}
		out[k] = sqstypes.MessageAttributeValue{
			DataType:    awsString("String"),
			StringValue: awsString(v),
		}
	}
	return out
}

func awsString(s string) *string { return &s }
