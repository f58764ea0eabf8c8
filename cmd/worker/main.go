package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/pflag"

	"github.com/imrishuroy/go-formflow/internal/aws"
	"github.com/imrishuroy/go-formflow/internal/config"
	"github.com/imrishuroy/go-formflow/internal/leads"
)

func main() {
	flags := pflag.NewFlagSet("formflow-worker", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to YAML config (default: $FORMFLOW_CONFIG)")
	table := flags.String("table", "", "DynamoDB leads table (overrides leads_table)")
	local := flags.Bool("local", os.Getenv("RUN_LOCAL") == "true", "process one event from --body and exit")
	body := flags.String("body", os.Getenv("LOCAL_SQS_BODY"), "SQS message body for --local")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.LoadWorker(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *table != "" {
		cfg.LeadsTable = *table
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("leads table not set; use leads_table, FORMFLOW_LEADS_TABLE or --table: %v", err)
	}

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}
	p := NewProcessor(leads.NewStore(clients.DynamoDB, cfg.LeadsTable), log.Default())

	// Local testing helper: simulate a single SQS event.
	if *local {
		testBody := *body
		if testBody == "" {
			testBody = `{"submission_id":"local-submission-1","kind":"newsletter","name":"Local","email":"local@example.com","submitted_at":"2026-01-01T00:00:00Z"}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{MessageId: "local-1", Body: testBody},
			},
		}
		if err := p.Handle(context.Background(), event); err != nil {
			log.Fatalf("local handler error: %v", err)
		}
		return
	}

	lambda.Start(p.Handle)
}
