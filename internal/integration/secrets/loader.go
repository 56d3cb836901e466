package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/futig/fundqa-bot/internal/entity"
	"go.uber.org/zap"
)

type secretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AccessKeys is the JSON shape of the access key secret.
type AccessKeys struct {
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
}

type Loader struct {
	client secretsAPI
	logger *zap.Logger
}

func NewLoader(cfg aws.Config, logger *zap.Logger) *Loader {
	return &Loader{
		client: secretsmanager.NewFromConfig(cfg),
		logger: logger,
	}
}

// AccessKeys reads and decodes an access key pair.
func (l *Loader) AccessKeys(ctx context.Context, secretID string) (*AccessKeys, error) {
	out, err := l.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return nil, fmt.Errorf("get secret value: %w", err)
	}

	raw := aws.ToString(out.SecretString)
	if raw == "" && len(out.SecretBinary) > 0 {
		raw = string(out.SecretBinary)
	}

	var keys AccessKeys
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, fmt.Errorf("%w: secret %s is not a JSON key pair", entity.ErrInvalidFormat, secretID)
	}

	if keys.AccessKeyID == "" || keys.SecretAccessKey == "" {
		return nil, fmt.Errorf("%w: secret %s lacks access_key_id or secret_access_key", entity.ErrMissingField, secretID)
	}

	l.logger.Debug("access keys loaded", zap.String("secret_id", secretID))

	return &keys, nil
}
