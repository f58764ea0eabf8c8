package leads

import (
	"time"

	"github.com/imrishuroy/go-formflow/internal/forms"
)

// Lead statuses
const (
	StatusReceived = "RECEIVED"
)

// Event is the payload sent from the API -> SQS -> worker.
type Event struct {
	SubmissionID string `json:"submission_id"`
	Kind         string `json:"kind"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Resource     string `json:"resource,omitempty"`
	Source       string `json:"source,omitempty"`
	FormName     string `json:"form,omitempty"`
	IP           string `json:"ip,omitempty"`
	UserAgent    string `json:"ua,omitempty"`
	SubmittedAt  string `json:"submitted_at"`
}

// EventFromSubmission projects a submission into a lead event. The free-text
// message is deliberately left out.
func EventFromSubmission(s forms.Submission) Event {
	return Event{
		SubmissionID: s.ID,
		Kind:         string(s.Kind),
		Name:         s.Name,
		Email:        s.Email,
		Resource:     s.Resource,
		Source:       s.Source,
		FormName:     s.FormName,
		IP:           s.IP,
		UserAgent:    s.UserAgent,
		SubmittedAt:  s.SubmittedAt,
	}
}

// Lead represents the item stored in the leads DynamoDB table.
type Lead struct {
	SubmissionID string    `dynamodbav:"submission_id"` // PK
	Kind         string    `dynamodbav:"kind"`
	Name         string    `dynamodbav:"name"`
	Email        string    `dynamodbav:"email"`
	Resource     string    `dynamodbav:"resource,omitempty"`
	Source       string    `dynamodbav:"source,omitempty"`
	FormName     string    `dynamodbav:"form,omitempty"`
	IP           string    `dynamodbav:"ip,omitempty"`
	UserAgent    string    `dynamodbav:"ua,omitempty"`
	SubmittedAt  string    `dynamodbav:"submitted_at"`
	Status       string    `dynamodbav:"status"`
	CreatedAt    time.Time `dynamodbav:"created_at"`
}
