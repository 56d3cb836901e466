package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/futig/fundqa-bot/internal/integration/embedding"
	"github.com/futig/fundqa-bot/internal/integration/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAsker struct {
	trace *entity.ChatTrace
	err   error
}

func (s stubAsker) AnswerDetailed(context.Context, string) (*entity.ChatTrace, error) {
	return s.trace, s.err
}

type harness struct {
	store  *search.MemoryStore
	asker  stubAsker
	loads  int
	closed int
}

func newHarness() *harness {
	return &harness{store: search.NewMemoryStore(embedding.NewMockConnector(), 256, zap.NewNop())}
}

func (h *harness) load(context.Context, string, string) (*Runtime, error) {
	h.loads++
	return &Runtime{
		Store:   h.store,
		Chat:    h.asker,
		Index:   "text_neptune",
		Profile: "profile1",
		TopK:    1,
		Close:   func() { h.closed++ },
	}, nil
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root, a := newRootCommand(h.load)
	defer a.close()

	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSamplesLifecycle(t *testing.T) {
	h := newHarness()

	out, err := h.run(t, "init")
	require.NoError(t, err)
	assert.Equal(t, "index text_neptune ready\n", out)

	out, err = h.run(t, "add-sample", "--text", "Who is Zhang Kun?", "--answer", "Zhang Kun manages three funds.", "-o", "json")
	require.NoError(t, err)
	var added map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &added))
	require.NotEmpty(t, added["id"])

	out, err = h.run(t, "list-samples", "--output", "json")
	require.NoError(t, err)
	var listed []entity.SearchMatch
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, added["id"], listed[0].ID)
	assert.Equal(t, "profile1", listed[0].Source.Profile)

	out, err = h.run(t, "list-samples", "--profile", "profile2")
	require.NoError(t, err)
	assert.Equal(t, "no samples found\n", out)

	out, err = h.run(t, "search", "Who is Zhang Kun?")
	require.NoError(t, err)
	assert.Contains(t, out, "SCORE")
	assert.Contains(t, out, "Zhang Kun manages three funds.")

	out, err = h.run(t, "delete-sample", "--id", added["id"])
	require.NoError(t, err)
	assert.Equal(t, "sample "+added["id"]+" deleted\n", out)

	_, err = h.run(t, "delete-sample", "--id", added["id"])
	assert.ErrorIs(t, err, entity.ErrSampleNotFound)

	assert.Equal(t, h.loads, h.closed)
}

func TestPutMapping(t *testing.T) {
	h := newHarness()

	_, err := h.run(t, "put-mapping")
	assert.ErrorIs(t, err, entity.ErrIndexNotFound)

	_, err = h.run(t, "init")
	require.NoError(t, err)

	out, err := h.run(t, "put-mapping", "--index", "text_neptune")
	require.NoError(t, err)
	assert.Equal(t, "mapping applied to index text_neptune\n", out)
}

func TestAddSample_RequiresFlags(t *testing.T) {
	h := newHarness()

	_, err := h.run(t, "add-sample", "--text", "only a question")
	assert.Error(t, err)
}

func TestDelete_NeedsConfirmation(t *testing.T) {
	h := newHarness()
	_, err := h.run(t, "init")
	require.NoError(t, err)

	_, err = h.run(t, "delete")
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)

	out, err := h.run(t, "delete", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "index text_neptune deleted\n", out)
}

func TestAsk_PrintsTrace(t *testing.T) {
	h := newHarness()
	h.asker = stubAsker{trace: &entity.ChatTrace{
		Question:       "Who is Zhang Kun?",
		GeneratedQuery: "MATCH (m:FundManager) RETURN m",
		GraphResult:    "{}",
		Evidence:       "No related samples found.",
		Answer:         "Zhang Kun is a fund manager.",
	}}

	out, err := h.run(t, "ask", "Who is Zhang Kun?")
	require.NoError(t, err)
	assert.Contains(t, out, "== Generated query ==\nMATCH (m:FundManager) RETURN m\n")
	assert.Contains(t, out, "== Answer ==\nZhang Kun is a fund manager.\n")
}

func TestAsk_ReportsPartialTraceOnError(t *testing.T) {
	h := newHarness()
	h.asker = stubAsker{
		trace: &entity.ChatTrace{Question: "q", GeneratedQuery: "DELETE n"},
		err:   entity.ErrUnsafeQuery,
	}

	out, err := h.run(t, "ask", "q")
	assert.ErrorIs(t, err, entity.ErrUnsafeQuery)
	assert.Contains(t, out, "DELETE n")
	assert.NotContains(t, out, "== Answer ==")
}

func TestInvalidOutputSkipsLoading(t *testing.T) {
	h := newHarness()

	_, err := h.run(t, "list-samples", "-o", "yaml")
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)
	assert.Zero(t, h.loads)
}

func TestLoaderError(t *testing.T) {
	root, _ := newRootCommand(func(context.Context, string, string) (*Runtime, error) {
		return nil, errors.New("no config")
	})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"init"})

	assert.ErrorContains(t, root.ExecuteContext(context.Background()), "no config")
}
