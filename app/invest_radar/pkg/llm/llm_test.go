package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/capability"
)

type fakeChatModel struct {
	reply    string
	err      error
	received []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.received = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestOpenAIComplete(t *testing.T) {
	cm := &fakeChatModel{reply: "hello"}
	o := NewOpenAIWithModel(cm, 100, 0.2)

	out, err := o.Complete(context.Background(), Prompt{System: "sys", User: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	require.Len(t, cm.received, 2)
	assert.Equal(t, schema.System, cm.received[0].Role)
	assert.Equal(t, "hi", cm.received[1].Content)
}

func TestOpenAIEmptyReplyIsTransient(t *testing.T) {
	o := NewOpenAIWithModel(&fakeChatModel{}, 0, 0)
	_, err := o.Complete(context.Background(), Prompt{User: "hi"})
	assert.Equal(t, capability.KindTransient, capability.KindOf(err))
}

func TestClaudeComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"{\"label\":\"neutral\"}"}],
			"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":5}}`))
	}))
	defer srv.Close()

	c := NewClaude("key", "claude-test", 256, 0, option.WithBaseURL(srv.URL))
	out, err := c.Complete(context.Background(), Prompt{System: "s", User: "u"})
	require.NoError(t, err)
	assert.Equal(t, `{"label":"neutral"}`, out)
}

func TestClaudeStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   capability.Kind
	}{
		{status: http.StatusTooManyRequests, want: capability.KindTransient},
		{status: http.StatusInternalServerError, want: capability.KindTransient},
		{status: http.StatusUnauthorized, want: capability.KindPermanent},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"nope"}}`))
		}))

		c := NewClaude("key", "claude-test", 256, 0, option.WithBaseURL(srv.URL))
		_, err := c.Complete(context.Background(), Prompt{User: "u"})
		assert.Equal(t, tt.want, capability.KindOf(err), "status %d", tt.status)
		srv.Close()
	}
}

type fakeGenerateAPI struct {
	resp   *genai.GenerateContentResponse
	err    error
	model  string
	config *genai.GenerateContentConfig
}

func (f *fakeGenerateAPI) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func TestGeminiComplete(t *testing.T) {
	api := &fakeGenerateAPI{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(`{"label":"positive"}`, genai.RoleModel)}},
	}}
	g := &Gemini{api: api, model: "gemini-test", maxTokens: 128, temperature: 0.3}

	out, err := g.Complete(context.Background(), Prompt{System: "s", User: "u"})
	require.NoError(t, err)
	assert.Equal(t, `{"label":"positive"}`, out)
	assert.Equal(t, "gemini-test", api.model)
	assert.Equal(t, int32(128), api.config.MaxOutputTokens)
	require.NotNil(t, api.config.SystemInstruction)

	_, err = (&Gemini{api: &fakeGenerateAPI{resp: &genai.GenerateContentResponse{}}}).Complete(context.Background(), Prompt{User: "u"})
	assert.Equal(t, capability.KindTransient, capability.KindOf(err))
}

func TestGeminiStatusClassification(t *testing.T) {
	tests := []struct {
		code int
		want capability.Kind
	}{
		{code: http.StatusTooManyRequests, want: capability.KindTransient},
		{code: http.StatusInternalServerError, want: capability.KindTransient},
		{code: http.StatusServiceUnavailable, want: capability.KindTransient},
		{code: http.StatusBadRequest, want: capability.KindPermanent},
		{code: http.StatusUnauthorized, want: capability.KindPermanent},
	}
	for _, tt := range tests {
		g := &Gemini{api: &fakeGenerateAPI{err: genai.APIError{Code: tt.code, Message: "nope"}}}
		_, err := g.Complete(context.Background(), Prompt{User: "u"})
		assert.Equal(t, tt.want, capability.KindOf(err), "code %d", tt.code)
	}
}

func TestLimitedPassesThrough(t *testing.T) {
	l := NewLimited(NewOpenAIWithModel(&fakeChatModel{reply: "x"}, 0, 0), 600, 5)
	out, err := l.Complete(context.Background(), Prompt{User: "q"})
	require.NoError(t, err)
	assert.Equal(t, "x", out)
	assert.Equal(t, "openai", l.Provider())
}

func TestCleanJSON(t *testing.T) {
	tests := []struct{ in, want string }{
		{in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{in: "Here you go: {\"a\":1} thanks", want: `{"a":1}`},
		{in: "[1,2]", want: `[1,2]`},
		{in: "  {\"nested\":{\"b\":2}}  ", want: `{"nested":{"b":2}}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanJSON(tt.in))
	}

	var v map[string]any
	err := DecodeJSON("not json", &v)
	assert.Equal(t, capability.KindPermanent, capability.KindOf(err))
}
