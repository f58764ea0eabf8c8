package aws

import (
	"context"
	"fmt"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

const defaultRegion = "us-east-1"

// LoadAWSConfig loads the SDK config shared by the session table, the leads
// queue and table, and the metrics namespace. AWS_ENDPOINT_OVERRIDE points
// every client at one endpoint (localstack during local runs).
func LoadAWSConfig(ctx context.Context) (sdkaws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(resolveRegion(os.LookupEnv)))
	if err != nil {
		return cfg, fmt.Errorf("load aws config: %w", err)
	}
	if endpoint := os.Getenv("AWS_ENDPOINT_OVERRIDE"); endpoint != "" {
		cfg.BaseEndpoint = sdkaws.String(endpoint)
	}
	return cfg, nil
}

// resolveRegion prefers AWS_REGION (set by the Lambda runtime), then
// AWS_DEFAULT_REGION (CLI convention for local runs), then us-east-1.
func resolveRegion(lookup func(string) (string, bool)) string {
	for _, name := range []string{"AWS_REGION", "AWS_DEFAULT_REGION"} {
		if v, ok := lookup(name); ok && v != "" {
			return v
		}
	}
	return defaultRegion
}
