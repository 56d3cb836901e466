package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSecrets struct {
	value string
	err   error
	asked string
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, params *secretsmanager.GetSecretValueInput,
	_ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.asked = aws.ToString(params.SecretId)
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(f.value)}, nil
}

func TestAccessKeys(t *testing.T) {
	fake := &fakeSecrets{value: `{"access_key_id":"AKIA","secret_access_key":"shh"}`}
	loader := &Loader{client: fake, logger: zap.NewNop()}

	keys, err := loader.AccessKeys(context.Background(), "bedrock/aksk")
	require.NoError(t, err)
	assert.Equal(t, "bedrock/aksk", fake.asked)
	assert.Equal(t, "AKIA", keys.AccessKeyID)
	assert.Equal(t, "shh", keys.SecretAccessKey)
}

func TestAccessKeys_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := (&Loader{client: &fakeSecrets{value: "not json"}, logger: zap.NewNop()}).AccessKeys(ctx, "id")
	assert.ErrorIs(t, err, entity.ErrInvalidFormat)

	_, err = (&Loader{client: &fakeSecrets{value: `{"access_key_id":"AKIA"}`}, logger: zap.NewNop()}).AccessKeys(ctx, "id")
	assert.ErrorIs(t, err, entity.ErrMissingField)

	boom := errors.New("access denied")
	_, err = (&Loader{client: &fakeSecrets{err: boom}, logger: zap.NewNop()}).AccessKeys(ctx, "id")
	assert.ErrorIs(t, err, boom)
}
