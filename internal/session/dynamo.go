package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/imrishuroy/go-formflow/internal/aws"
)

// createCondition allows the put when the session is new or its TTL has
// passed but DynamoDB has not reaped the item yet.
const createCondition = "attribute_not_exists(session_id) OR expires_at < :now"

// DynamoStore keeps sessions in a DynamoDB table keyed by session_id with
// expires_at as the TTL attribute.
type DynamoStore struct {
	client    aws.DynamoDBAPI
	tableName string
	ttl       time.Duration
	nowFunc   func() time.Time
}

// NewDynamoStore returns a DynamoStore.
// ttl: session lifetime written to expires_at (e.g. 24*time.Hour).
func NewDynamoStore(client aws.DynamoDBAPI, tableName string, ttl time.Duration) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
		nowFunc:   time.Now,
	}
}

// IssueToken returns the existing token or creates one with a conditional put.
// If another request wins the race the winner's token is returned, so a
// session never sees two different tokens.
func (s *DynamoStore) IssueToken(ctx context.Context, sessionID string) (string, error) {
	rec, err := s.get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if rec != nil {
		return rec.CSRF, nil
	}

	token, err := NewToken()
	if err != nil {
		return "", err
	}
	created, err := s.createIfNotExists(ctx, sessionID, token)
	if err != nil {
		return "", err
	}
	if created {
		return token, nil
	}

	rec, err = s.get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", fmt.Errorf("session %s: conditional put failed but no item found", sessionID)
	}
	return rec.CSRF, nil
}

// Token returns the session's token or "" when the session is unknown or expired.
func (s *DynamoStore) Token(ctx context.Context, sessionID string) (string, error) {
	rec, err := s.get(ctx, sessionID)
	if err != nil || rec == nil {
		return "", err
	}
	return rec.CSRF, nil
}

func (s *DynamoStore) createIfNotExists(ctx context.Context, sessionID, token string) (bool, error) {
	now := s.nowFunc()
	rec := Record{
		SessionID: sessionID,
		CSRF:      token,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl).Unix(),
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return false, fmt.Errorf("marshal session: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString(createCondition),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return false, nil
		}
		return false, fmt.Errorf("put session: %w", err)
	}
	return true, nil
}

// get returns (nil, nil) when the session is missing or expired.
func (s *DynamoStore) get(ctx context.Context, sessionID string) (*Record, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"session_id": &types.AttributeValueMemberS{Value: sessionID},
		},
		ConsistentRead: boolPtr(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if rec.expired(s.nowFunc()) {
		return nil, nil
	}
	return &rec, nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException"
}

func awsString(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
