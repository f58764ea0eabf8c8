package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsDynamo "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-formflow/internal/leads"
)

// --- mock implementations ---

type mockDynamo struct {
	items map[string]map[string]types.AttributeValue
	err   error
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func (m *mockDynamo) PutItem(ctx context.Context, in *awsDynamo.PutItemInput, optFns ...func(*awsDynamo.Options)) (*awsDynamo.PutItemOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	k := in.Item["submission_id"].(*types.AttributeValueMemberS).Value
	if _, exists := m.items[k]; exists && in.ConditionExpression != nil {
		return nil, &types.ConditionalCheckFailedException{}
	}
	m.items[k] = in.Item
	return &awsDynamo.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, in *awsDynamo.GetItemInput, optFns ...func(*awsDynamo.Options)) (*awsDynamo.GetItemOutput, error) {
	k := in.Key["submission_id"].(*types.AttributeValueMemberS).Value
	item, ok := m.items[k]
	if !ok {
		return &awsDynamo.GetItemOutput{}, nil
	}
	return &awsDynamo.GetItemOutput{Item: item}, nil
}

func sqsEvent(t *testing.T, evs ...leads.Event) events.SQSEvent {
	t.Helper()
	out := events.SQSEvent{}
	for _, ev := range evs {
		body, err := json.Marshal(ev)
		if err != nil {
			t.Fatal(err)
		}
		out.Records = append(out.Records, events.SQSMessage{MessageId: ev.SubmissionID, Body: string(body)})
	}
	return out
}

// --- test cases ---

func TestWorkerProcess_Success(t *testing.T) {
	mock := newMockDynamo()
	p := NewProcessor(leads.NewStore(mock, "leads"), log.New(&bytes.Buffer{}, "", 0))

	ev := leads.Event{
		SubmissionID: "s1",
		Kind:         "download",
		Name:         "Jane",
		Email:        "jane@x.com",
		Resource:     "echoes_ch1_pdf",
		SubmittedAt:  "2026-03-04T05:06:07Z",
	}
	if err := p.Handle(context.Background(), sqsEvent(t, ev)); err != nil {
		t.Fatalf("unexpected worker error: %v", err)
	}

	var lead leads.Lead
	if err := attributevalue.UnmarshalMap(mock.items["s1"], &lead); err != nil {
		t.Fatal(err)
	}
	if lead.Email != "jane@x.com" || lead.Resource != "echoes_ch1_pdf" || lead.Status != leads.StatusReceived {
		t.Fatalf("unexpected lead: %+v", lead)
	}
}

func TestWorkerProcess_DuplicateIsSkipped(t *testing.T) {
	mock := newMockDynamo()
	var logs bytes.Buffer
	p := NewProcessor(leads.NewStore(mock, "leads"), log.New(&logs, "", 0))

	ev := leads.Event{SubmissionID: "s1", Kind: "contact", Email: "jane@x.com"}
	if err := p.Handle(context.Background(), sqsEvent(t, ev, ev)); err != nil {
		t.Fatalf("redelivery should not fail: %v", err)
	}
	if len(mock.items) != 1 {
		t.Fatalf("expected one stored lead, got %d", len(mock.items))
	}
	if !strings.Contains(logs.String(), "duplicate delivery for submission=s1") {
		t.Fatalf("duplicate not logged: %s", logs.String())
	}
}

func TestWorkerProcess_BadBody(t *testing.T) {
	p := NewProcessor(leads.NewStore(newMockDynamo(), "leads"), log.New(&bytes.Buffer{}, "", 0))

	for _, body := range []string{"{not json", `{"kind":"contact"}`} {
		ev := events.SQSEvent{Records: []events.SQSMessage{{Body: body}}}
		if err := p.Handle(context.Background(), ev); err == nil {
			t.Fatalf("expected error for body %q", body)
		}
	}
}

func TestWorkerProcess_StoreErrorPropagates(t *testing.T) {
	mock := newMockDynamo()
	mock.err = errors.New("throttled")
	p := NewProcessor(leads.NewStore(mock, "leads"), log.New(&bytes.Buffer{}, "", 0))

	err := p.Handle(context.Background(), sqsEvent(t, leads.Event{SubmissionID: "s1"}))
	if err == nil || !strings.Contains(err.Error(), "throttled") {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
