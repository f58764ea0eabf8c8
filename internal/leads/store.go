package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/imrishuroy/go-formflow/internal/aws"
)

// ErrDuplicate is returned when the submission is already mirrored.
var ErrDuplicate = errors.New("lead already stored")

// Store encapsulates operations on the leads table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new leads Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Create writes the event as a lead. Redelivered events hit the
// attribute_not_exists condition and return ErrDuplicate.
func (s *Store) Create(ctx context.Context, ev Event) error {
	if ev.SubmissionID == "" {
		return errors.New("lead event has no submission_id")
	}
	lead := Lead{
		SubmissionID: ev.SubmissionID,
		Kind:         ev.Kind,
		Name:         ev.Name,
		Email:        ev.Email,
		Resource:     ev.Resource,
		Source:       ev.Source,
		FormName:     ev.FormName,
		IP:           ev.IP,
		UserAgent:    ev.UserAgent,
		SubmittedAt:  ev.SubmittedAt,
		Status:       StatusReceived,
		CreatedAt:    s.nowFunc(),
	}
	item, err := attributevalue.MarshalMap(lead)
	if err != nil {
		return fmt.Errorf("marshal lead: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(submission_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		var apiErr smithy.APIError
		if errors.As(err, &ccf) || (errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException") {
			return ErrDuplicate
		}
		return fmt.Errorf("put lead: %w", err)
	}
	return nil
}

// Get fetches a lead by submission_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, submissionID string) (*Lead, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"submission_id": &types.AttributeValueMemberS{Value: submissionID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var l Lead
	if err := attributevalue.UnmarshalMap(out.Item, &l); err != nil {
		return nil, fmt.Errorf("unmarshal lead: %w", err)
	}
	return &l, nil
}

func awsString(s string) *string { return &s }
