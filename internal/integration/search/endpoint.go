package search

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsopensearch "github.com/aws/aws-sdk-go-v2/service/opensearch"
	"github.com/futig/fundqa-bot/internal/config"
	"go.uber.org/zap"
)

type domainAPI interface {
	DescribeDomain(ctx context.Context, params *awsopensearch.DescribeDomainInput,
		optFns ...func(*awsopensearch.Options)) (*awsopensearch.DescribeDomainOutput, error)
}

// ResolveHost returns the configured host, or looks the domain endpoint up
// through the OpenSearch service API when no host is configured.
func ResolveHost(ctx context.Context, cfg config.OpenSearchConfig, awsCfg aws.Config, logger *zap.Logger) (string, error) {
	if cfg.Host != "" {
		return cfg.Host, nil
	}
	return resolveHost(ctx, awsopensearch.NewFromConfig(awsCfg), cfg.Domain, logger)
}

func resolveHost(ctx context.Context, client domainAPI, domain string, logger *zap.Logger) (string, error) {
	if domain == "" {
		return "", fmt.Errorf("opensearch host and domain are both empty")
	}

	out, err := client.DescribeDomain(ctx, &awsopensearch.DescribeDomainInput{DomainName: aws.String(domain)})
	if err != nil {
		return "", fmt.Errorf("describe opensearch domain %s: %w", domain, err)
	}

	status := out.DomainStatus
	if status == nil {
		return "", fmt.Errorf("describe opensearch domain %s: empty status", domain)
	}

	host := aws.ToString(status.Endpoint)
	if host == "" {
		// VPC domains publish their endpoint under "vpc"
		host = status.Endpoints["vpc"]
	}
	if host == "" {
		return "", fmt.Errorf("opensearch domain %s has no endpoint yet", domain)
	}

	logger.Info("resolved opensearch endpoint", zap.String("domain", domain), zap.String("host", host))

	return host, nil
}
