package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/futig/fundqa-bot/internal/config"
	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash keeps the cost of a login attempt for an unknown user equal to a
// wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("unknown-user"), bcrypt.DefaultCost)

// AuthUsecase checks web logins against the credentials file and tracks
// browser sessions in memory.
type AuthUsecase struct {
	users    map[string]entity.UserAccount
	cookie   config.CookieConfig
	sessions *cache.Cache
	now      func() time.Time
	logger   *zap.Logger
}

func NewUsecase(creds *config.Credentials, logger *zap.Logger) *AuthUsecase {
	users := make(map[string]entity.UserAccount, len(creds.Credentials.Usernames))
	for username, u := range creds.Credentials.Usernames {
		users[strings.ToLower(username)] = entity.UserAccount{
			Username:     username,
			Name:         u.Name,
			Email:        u.Email,
			PasswordHash: u.Password,
		}
	}

	return &AuthUsecase{
		users:    users,
		cookie:   creds.Cookie,
		sessions: cache.New(creds.Cookie.Expiry(), 10*time.Minute),
		now:      time.Now,
		logger:   logger,
	}
}

func (uc *AuthUsecase) CookieName() string {
	return uc.cookie.Name
}

func (uc *AuthUsecase) SessionTTL() time.Duration {
	return uc.cookie.Expiry()
}

// Login verifies the password and opens a session.
func (uc *AuthUsecase) Login(ctx context.Context, username, password string) (*entity.AuthSession, error) {
	user, ok := uc.users[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		ctxzap.Info(ctx, "login rejected", zap.String("username", username), zap.String("reason", "unknown user"))
		return nil, entity.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		ctxzap.Info(ctx, "login rejected", zap.String("username", username), zap.String("reason", "wrong password"))
		return nil, entity.ErrInvalidCredentials
	}

	session := &entity.AuthSession{
		Token:     uuid.NewString(),
		Username:  user.Username,
		Name:      user.Name,
		ExpiresAt: uc.now().Add(uc.cookie.Expiry()),
	}
	uc.sessions.SetDefault(session.Token, session)

	ctxzap.Info(ctx, "user logged in", zap.String("username", user.Username))

	return session, nil
}

// Authenticate resolves a cookie value to a live session.
func (uc *AuthUsecase) Authenticate(_ context.Context, cookieValue string) (*entity.AuthSession, error) {
	token, err := uc.ParseCookie(cookieValue)
	if err != nil {
		return nil, err
	}

	v, ok := uc.sessions.Get(token)
	if !ok {
		return nil, entity.ErrSessionExpired
	}

	session := v.(*entity.AuthSession)
	if !uc.now().Before(session.ExpiresAt) {
		uc.sessions.Delete(token)
		return nil, entity.ErrSessionExpired
	}

	return session, nil
}

func (uc *AuthUsecase) Logout(ctx context.Context, cookieValue string) {
	token, err := uc.ParseCookie(cookieValue)
	if err != nil {
		return
	}
	uc.sessions.Delete(token)

	ctxzap.Info(ctx, "user logged out")
}

// CookieValue signs the session token: "<token>.<hex hmac-sha256>".
func (uc *AuthUsecase) CookieValue(session *entity.AuthSession) string {
	return session.Token + "." + uc.sign(session.Token)
}

func (uc *AuthUsecase) ParseCookie(value string) (string, error) {
	token, sig, ok := strings.Cut(value, ".")
	if !ok || token == "" || sig == "" {
		return "", fmt.Errorf("%w: malformed cookie", entity.ErrUnauthorized)
	}
	if !hmac.Equal([]byte(sig), []byte(uc.sign(token))) {
		return "", fmt.Errorf("%w: bad cookie signature", entity.ErrUnauthorized)
	}
	return token, nil
}

func (uc *AuthUsecase) sign(token string) string {
	mac := hmac.New(sha256.New, []byte(uc.cookie.Key))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
