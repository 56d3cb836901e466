package auth

import (
	"context"
	"testing"
	"time"

	"github.com/futig/fundqa-bot/internal/config"
	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestUsecase(t *testing.T) *AuthUsecase {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	creds := &config.Credentials{}
	creds.Credentials.Usernames = map[string]config.UserCredentials{
		"jsmith": {Name: "John Smith", Email: "jsmith@example.com", Password: string(hash)},
	}
	creds.Cookie = config.CookieConfig{Name: "fundqa_auth", Key: "signing-key", ExpiryDays: 1}

	return NewUsecase(creds, zap.NewNop())
}

func TestLogin(t *testing.T) {
	uc := newTestUsecase(t)
	ctx := context.Background()

	session, err := uc.Login(ctx, "JSmith", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "jsmith", session.Username)
	assert.Equal(t, "John Smith", session.Name)
	assert.NotEmpty(t, session.Token)

	_, err = uc.Login(ctx, "jsmith", "wrong")
	assert.ErrorIs(t, err, entity.ErrInvalidCredentials)

	_, err = uc.Login(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, entity.ErrInvalidCredentials)
}

func TestAuthenticate_CookieRoundTrip(t *testing.T) {
	uc := newTestUsecase(t)
	ctx := context.Background()

	session, err := uc.Login(ctx, "jsmith", "s3cret")
	require.NoError(t, err)

	cookie := uc.CookieValue(session)
	got, err := uc.Authenticate(ctx, cookie)
	require.NoError(t, err)
	assert.Equal(t, session.Token, got.Token)

	uc.Logout(ctx, cookie)
	_, err = uc.Authenticate(ctx, cookie)
	assert.ErrorIs(t, err, entity.ErrSessionExpired)
}

func TestAuthenticate_RejectsTamperedCookie(t *testing.T) {
	uc := newTestUsecase(t)
	ctx := context.Background()

	session, err := uc.Login(ctx, "jsmith", "s3cret")
	require.NoError(t, err)
	cookie := uc.CookieValue(session)

	for _, bad := range []string{
		"",
		session.Token,
		session.Token + ".",
		"other-token" + cookie[len(session.Token):],
		cookie + "00",
	} {
		_, err := uc.Authenticate(ctx, bad)
		assert.ErrorIs(t, err, entity.ErrUnauthorized, bad)
	}
}

func TestAuthenticate_Expired(t *testing.T) {
	uc := newTestUsecase(t)
	ctx := context.Background()

	session, err := uc.Login(ctx, "jsmith", "s3cret")
	require.NoError(t, err)

	uc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	_, err = uc.Authenticate(ctx, uc.CookieValue(session))
	assert.ErrorIs(t, err, entity.ErrSessionExpired)
}
