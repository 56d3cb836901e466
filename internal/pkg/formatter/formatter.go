package formatter

import (
	"fmt"

	"github.com/futig/fundqa-bot/internal/entity"
)

const (
	baseTitle  = "Fund Q&A conversation"
	timeLayout = "2006-01-02 15:04"
)

// Formatter renders a conversation transcript into a downloadable document.
type Formatter interface {
	Format(messages []*entity.ChatMessage) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatDOCX:
		return NewDOCXFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("%w: %s", entity.ErrUnsupportedFormat, format)
	}
}

func speaker(role entity.MessageRole) string {
	if role == entity.RoleAssistant {
		return "Assistant"
	}
	return "You"
}

func heading(m *entity.ChatMessage) string {
	if m.CreatedAt.IsZero() {
		return speaker(m.Role)
	}
	return fmt.Sprintf("%s (%s)", speaker(m.Role), m.CreatedAt.UTC().Format(timeLayout))
}
