package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/futig/fundqa-bot/internal/config"
	"github.com/futig/fundqa-bot/internal/entity"
)

// Validator checks user input arriving through the HTTP and Telegram surfaces.
type Validator struct {
	cfg config.ChatConfig
}

func NewValidator(cfg config.ChatConfig) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateMessage trims the message and enforces the configured length limit,
// counted in characters.
func (v *Validator) ValidateMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: message", entity.ErrMissingField)
	}
	if v.cfg.MaxMessageLength > 0 && utf8.RuneCountInString(message) > v.cfg.MaxMessageLength {
		return "", fmt.Errorf("%w: %d characters (max %d)",
			entity.ErrMessageTooLong, utf8.RuneCountInString(message), v.cfg.MaxMessageLength)
	}
	return message, nil
}

func (v *Validator) ValidateLogin(req *entity.LoginRequest) error {
	if strings.TrimSpace(req.Username) == "" {
		return fmt.Errorf("%w: username", entity.ErrMissingField)
	}
	if req.Password == "" {
		return fmt.Errorf("%w: password", entity.ErrMissingField)
	}
	return nil
}

func (v *Validator) ValidateStream(req *entity.StreamRequest) error {
	if _, err := v.ValidateMessage(req.Prompt); err != nil {
		return err
	}
	return nil
}

// ParseFormat maps the export query parameter to a format; empty means markdown.
func ParseFormat(raw string) (entity.ResultFormat, error) {
	if raw == "" {
		return entity.FormatMarkdown, nil
	}
	format := entity.ResultFormat(strings.ToLower(raw))
	if err := format.Validate(); err != nil {
		return "", err
	}
	return format, nil
}
