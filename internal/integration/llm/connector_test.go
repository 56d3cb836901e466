package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/futig/fundqa-bot/internal/config"
	"github.com/futig/fundqa-bot/internal/entity"
	pkgRetry "github.com/futig/fundqa-bot/internal/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fastRetry = pkgRetry.RetryConfig{Attempts: 10, Delay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

type fakeBedrock struct {
	errs   []error
	body   string
	calls  int
	inputs []*bedrockruntime.InvokeModelInput
}

func (f *fakeBedrock) InvokeModel(_ context.Context, params *bedrockruntime.InvokeModelInput,
	_ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.calls++
	f.inputs = append(f.inputs, params)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

type fakeStream struct {
	events chan types.ResponseStream
	err    error
	closed bool
}

func newFakeStream(err error, parts ...string) *fakeStream {
	events := make(chan types.ResponseStream, len(parts))
	for _, p := range parts {
		events <- &types.ResponseStreamMemberChunk{Value: types.PayloadPart{Bytes: []byte(p)}}
	}
	close(events)
	return &fakeStream{events: events, err: err}
}

func (f *fakeStream) Events() <-chan types.ResponseStream { return f.events }
func (f *fakeStream) Close() error { f.closed = true; return nil }
func (f *fakeStream) Err() error { return f.err }

func newTestConnector(client bedrockAPI) *Connector {
	return &Connector{
		client: client,
		config: config.LLMConfig{ModelID: "meta.llama3-70b-instruct-v1:0", Temperature: 0.01, TopP: 0.9},
		retry:  fastRetry,
		logger: zap.NewNop(),
	}
}

func TestFormatLlama3(t *testing.T) {
	got := FormatLlama3("You are a helpful chatbot.", "who are you")
	assert.Equal(t,
		"<|begin_of_text|><|start_header_id|>system<|end_header_id|>\n\nYou are a helpful chatbot.<|eot_id|>"+
			"<|start_header_id|>user<|end_header_id|>\n\nwho are you<|eot_id|>"+
			"<|start_header_id|>assistant<|end_header_id|>\n\n",
		got)
}

func TestGenerate_SendsLlamaBody(t *testing.T) {
	fake := &fakeBedrock{body: `{"generation":"Hello there","generation_token_count":2,"stop_reason":"stop"}`}
	c := newTestConnector(fake)

	text, err := c.Generate(context.Background(), &entity.LLMGenerateRequest{
		SystemPrompt: "sys",
		UserPrompt:   "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", text)

	require.Len(t, fake.inputs, 1)
	in := fake.inputs[0]
	assert.Equal(t, "meta.llama3-70b-instruct-v1:0", aws.ToString(in.ModelId))
	assert.Equal(t, "application/json", aws.ToString(in.ContentType))

	var body entity.LlamaInvokeBody
	require.NoError(t, json.Unmarshal(in.Body, &body))
	assert.Equal(t, 2048, body.MaxGenLen)
	assert.Equal(t, 0.01, body.Temperature)
	assert.Equal(t, 0.9, body.TopP)
	assert.True(t, strings.HasPrefix(body.Prompt, "<|begin_of_text|>"))
	assert.Contains(t, body.Prompt, "sys<|eot_id|>")
}

func TestGenerate_RetriesTransientErrors(t *testing.T) {
	throttled := &types.ThrottlingException{Message: aws.String("slow down")}
	fake := &fakeBedrock{
		errs: []error{throttled, throttled, nil},
		body: `{"generation":"ok"}`,
	}

	text, err := newTestConnector(fake).Generate(context.Background(), &entity.LLMGenerateRequest{UserPrompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 3, fake.calls)
}

func TestGenerate_GivesUpAfterTenAttempts(t *testing.T) {
	errs := make([]error, 20)
	for i := range errs {
		errs[i] = &types.ModelTimeoutException{Message: aws.String("timeout")}
	}
	fake := &fakeBedrock{errs: errs}

	_, err := newTestConnector(fake).Generate(context.Background(), &entity.LLMGenerateRequest{UserPrompt: "q"})
	require.Error(t, err)
	assert.Equal(t, 10, fake.calls)

	var timeout *types.ModelTimeoutException
	assert.True(t, errors.As(err, &timeout))
}

func TestGenerate_DoesNotRetryValidationErrors(t *testing.T) {
	fake := &fakeBedrock{errs: []error{&types.ValidationException{Message: aws.String("bad model")}}}

	_, err := newTestConnector(fake).Generate(context.Background(), &entity.LLMGenerateRequest{UserPrompt: "q"})
	require.Error(t, err)
	assert.Equal(t, 1, fake.calls)
}

func TestGenerate_EmptyGeneration(t *testing.T) {
	fake := &fakeBedrock{body: `{"generation":"  "}`}

	_, err := newTestConnector(fake).Generate(context.Background(), &entity.LLMGenerateRequest{UserPrompt: "q"})
	assert.ErrorIs(t, err, entity.ErrEmptyGeneration)
}

func TestGenerateStream_ForwardsChunks(t *testing.T) {
	stream := newFakeStream(nil, `{"generation":"Zhang "}`, `{"generation":""}`, `{"generation":"Kun"}`)
	c := newTestConnector(&fakeBedrock{})
	c.openStream = func(context.Context, *bedrockruntime.InvokeModelWithResponseStreamInput) (responseStream, error) {
		return stream, nil
	}

	chunks, err := c.GenerateStream(context.Background(), &entity.LLMGenerateRequest{UserPrompt: "q"})
	require.NoError(t, err)

	var text strings.Builder
	for chunk := range chunks {
		require.NoError(t, chunk.Err)
		text.WriteString(chunk.Text)
	}
	assert.Equal(t, "Zhang Kun", text.String())
	assert.True(t, stream.closed)
}

func TestGenerateStream_ReportsBrokenStream(t *testing.T) {
	broken := errors.New("connection reset")
	c := newTestConnector(&fakeBedrock{})
	c.openStream = func(context.Context, *bedrockruntime.InvokeModelWithResponseStreamInput) (responseStream, error) {
		return newFakeStream(broken, `{"generation":"partial"}`), nil
	}

	chunks, err := c.GenerateStream(context.Background(), &entity.LLMGenerateRequest{UserPrompt: "q"})
	require.NoError(t, err)

	var got []entity.StreamChunk
	for chunk := range chunks {
		got = append(got, chunk)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "partial", got[0].Text)
	assert.ErrorIs(t, got[1].Err, broken)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&types.ThrottlingException{}))
	assert.True(t, IsTransient(&types.InternalServerException{}))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.False(t, IsTransient(context.Canceled))
	assert.False(t, IsTransient(&types.AccessDeniedException{}))
	assert.False(t, IsTransient(errors.New("plain")))
	assert.False(t, IsTransient(nil))
}

func TestMockConnector(t *testing.T) {
	m := NewMockConnector(zap.NewNop())
	ctx := context.Background()

	query, err := m.Generate(ctx, &entity.LLMGenerateRequest{UserPrompt: "Create a Amazon Neptune Cypher query for: who?"})
	require.NoError(t, err)
	assert.Contains(t, query, "MATCH")

	chunks, err := m.GenerateStream(ctx, &entity.LLMGenerateRequest{UserPrompt: "hello world"})
	require.NoError(t, err)
	var text strings.Builder
	for chunk := range chunks {
		text.WriteString(chunk.Text)
	}
	assert.Equal(t, "[MOCK] hello world", text.String())
}
