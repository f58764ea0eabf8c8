package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"

	"github.com/imrishuroy/go-formflow/internal/aws"
	"github.com/imrishuroy/go-formflow/internal/config"
	"github.com/imrishuroy/go-formflow/internal/forms"
	"github.com/imrishuroy/go-formflow/internal/guard"
	"github.com/imrishuroy/go-formflow/internal/handlers"
	"github.com/imrishuroy/go-formflow/internal/intake"
	"github.com/imrishuroy/go-formflow/internal/leads"
	"github.com/imrishuroy/go-formflow/internal/notify"
	"github.com/imrishuroy/go-formflow/internal/records"
	"github.com/imrishuroy/go-formflow/internal/session"
)

// setupRouter builds the engine. Forwarded-for headers are only honoured from
// trustedProxies; with none the client IP is the socket peer.
func setupRouter(cfg handlers.HandlerConfig, trustedProxies []string) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	if err := r.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterFormRoutes(r, cfg)

	return r, nil
}

func newLogger(path string) (*log.Logger, error) {
	var out io.Writer = os.Stderr
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
	}
	return log.New(out, "", log.LstdFlags), nil
}

// storeSchemas derives one record file per form kind from the definitions.
func storeSchemas(defs map[forms.Kind]forms.Definition) map[string]records.Schema {
	out := make(map[string]records.Schema, len(defs))
	for kind, def := range defs {
		out[string(kind)] = records.Schema{File: def.StoreFile, Header: def.Header}
	}
	return out
}

func buildHandlerConfig(ctx context.Context, cfg *config.Config, logger *log.Logger) (handlers.HandlerConfig, error) {
	defs := forms.Definitions()

	cat, err := cfg.Catalog()
	if err != nil {
		return handlers.HandlerConfig{}, err
	}

	dispatcher, err := notify.NewDispatcher(cfg.MailSender(logger), notify.Config{
		AdminTo:  cfg.AdminTo,
		Bcc:      cfg.Bcc,
		From:     cfg.From,
		SiteName: cfg.SiteName,
		BaseURL:  cfg.BaseURL,
	}, defs, logger)
	if err != nil {
		return handlers.HandlerConfig{}, err
	}

	deps := intake.Deps{
		Definitions: defs,
		Catalog:     cat,
		Store:       records.NewStore(cfg.StorageDir, storeSchemas(defs)),
		Notifier:    dispatcher,
		Logger:      logger,
		BaseURL:     cfg.BaseURL,
		DocRoot:     cfg.DocRoot,
	}

	// AWS clients are only needed when a table, queue or namespace is configured.
	var sessions session.TokenStore = session.NewMemoryStore(cfg.SessionTTL)
	if cfg.SessionsTable != "" || cfg.LeadsQueueURL != "" || cfg.MetricsNamespace != "" {
		clients, err := aws.NewAWSClients(ctx)
		if err != nil {
			return handlers.HandlerConfig{}, fmt.Errorf("init aws clients: %w", err)
		}
		if cfg.SessionsTable != "" {
			sessions = session.NewDynamoStore(clients.DynamoDB, cfg.SessionsTable, cfg.SessionTTL)
		}
		if cfg.LeadsQueueURL != "" {
			deps.Events = leads.NewPublisher(aws.NewPublisher(clients.SQS, cfg.LeadsQueueURL))
		}
		if cfg.MetricsNamespace != "" {
			deps.Metrics = aws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace)
		}
	}
	deps.Guard = guard.New(sessions, cfg.TimeTrap, logger)

	return handlers.HandlerConfig{
		Pipeline:     intake.New(deps),
		Sessions:     sessions,
		CookieSecure: cfg.CookieSecure,
		SessionTTL:   cfg.SessionTTL,
		Logger:       logger,
	}, nil
}

func main() {
	flags := pflag.NewFlagSet("formflow-api", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to YAML config (default: $FORMFLOW_CONFIG)")
	local := flags.Bool("local", os.Getenv("RUN_LOCAL") == "true", "run a local HTTP server instead of the Lambda handler")
	addr := flags.String("addr", ":8080", "listen address for --local")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	hcfg, err := buildHandlerConfig(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatalf("failed to build handlers: %v", err)
	}

	r, err := setupRouter(hcfg, cfg.TrustedProxies)
	if err != nil {
		logger.Fatalf("failed to build router: %v", err)
	}

	if *local {
		logger.Printf("running local server on %s", *addr)
		if err := r.Run(*addr); err != nil {
			logger.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
