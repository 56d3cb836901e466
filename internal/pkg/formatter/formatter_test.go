package formatter

import (
	"bytes"
	"testing"
	"time"

	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transcript() []*entity.ChatMessage {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	return []*entity.ChatMessage{
		{Role: entity.RoleUser, Content: "Who is Zhang Kun?", CreatedAt: at},
		{Role: entity.RoleAssistant, Content: "Zhang Kun manages three funds.", CreatedAt: at.Add(time.Minute)},
	}
}

func TestFactory_Create(t *testing.T) {
	f := NewFactory()

	for format, ext := range map[entity.ResultFormat]string{
		entity.FormatMarkdown: ".md",
		entity.FormatPDF:      ".pdf",
		entity.FormatDOCX:     ".docx",
	} {
		got, err := f.Create(format)
		require.NoError(t, err)
		assert.Equal(t, ext, got.FileExtension())
	}

	_, err := f.Create("html")
	assert.ErrorIs(t, err, entity.ErrUnsupportedFormat)
}

func TestMarkdownFormatter(t *testing.T) {
	out, err := NewMarkdownFormatter().Format(transcript())
	require.NoError(t, err)

	want := "# Fund Q&A conversation\n" +
		"\n### You (2024-05-01 09:30)\n\nWho is Zhang Kun?\n" +
		"\n### Assistant (2024-05-01 09:31)\n\nZhang Kun manages three funds.\n"
	assert.Equal(t, want, string(out))
}

func TestPDFFormatter(t *testing.T) {
	pf := &PDFFormatter{}
	out, err := pf.Format(transcript())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, "application/pdf", pf.ContentType())
}
