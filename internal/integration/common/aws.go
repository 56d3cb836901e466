package common

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/futig/fundqa-bot/internal/integration/secrets"
	pkgHTTP "github.com/futig/fundqa-bot/pkg/http"
	"go.uber.org/zap"
)

// NewAWSConfig loads the default AWS configuration for region. SDK retries are
// disabled; callers that need retries wrap calls themselves. readTimeout bounds
// the wait for response headers and the whole request.
func NewAWSConfig(ctx context.Context, region string, readTimeout time.Duration) (aws.Config, error) {
	httpClient := pkgHTTP.NewClient(
		pkgHTTP.WithRequestTimeout(readTimeout),
		pkgHTTP.WithResponseHeaderTimeout(readTimeout),
		pkgHTTP.WithRequestLogging(),
	)

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithHTTPClient(httpClient),
		awsconfig.WithRetryMaxAttempts(1),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}

	return cfg, nil
}

// NewBedrockAWSConfig is NewAWSConfig with static keys taken from Secrets
// Manager when secretID is set.
func NewBedrockAWSConfig(
	ctx context.Context,
	region, secretID string,
	readTimeout time.Duration,
	logger *zap.Logger,
) (aws.Config, error) {
	cfg, err := NewAWSConfig(ctx, region, readTimeout)
	if err != nil {
		return aws.Config{}, err
	}

	if secretID == "" {
		return cfg, nil
	}

	keys, err := secrets.NewLoader(cfg, logger).AccessKeys(ctx, secretID)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load bedrock credentials: %w", err)
	}

	cfg.Credentials = aws.NewCredentialsCache(
		credentials.NewStaticCredentialsProvider(keys.AccessKeyID, keys.SecretAccessKey, ""),
	)

	logger.Info("using bedrock credentials from secrets manager", zap.String("secret_id", secretID))

	return cfg, nil
}
