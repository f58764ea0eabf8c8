package session

import "time"

// Record is the shape persisted in the sessions DynamoDB table.
type Record struct {
	SessionID string    `dynamodbav:"session_id"` // PK
	CSRF      string    `dynamodbav:"csrf"`
	CreatedAt time.Time `dynamodbav:"created_at"`
	ExpiresAt int64     `dynamodbav:"expires_at"` // TTL epoch seconds
}

func (r Record) expired(now time.Time) bool {
	return r.ExpiresAt > 0 && now.Unix() >= r.ExpiresAt
}
