package refine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"go-moviematch/internal/config"
)

func TestClean(t *testing.T) {
	cases := map[string]string{
		"space heist":          "space heist",
		"  space heist \n":     "space heist",
		`"space heist"`:        "space heist",
		`'space heist'`:        "space heist",
		` "'space heist'" `:    "space heist",
		`""doubled""`:          "doubled",
		`'"mixed order"'`:      `"mixed order"`,
		`it's "quoted" inside`: `it's "quoted" inside`,
		"":                     "",
		`""`:                   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Clean(in), "Clean(%q)", in)
	}
}

func TestPrompt_EmbedsQueryVerbatim(t *testing.T) {
	p := Prompt(`a robot who "loves" plants`)
	assert.True(t, strings.HasPrefix(p, "Refine the query.\n"))
	assert.Contains(t, p, "Do not add ideas.")
	assert.Contains(t, p, "Do not guess.")
	assert.Contains(t, p, "Output only refined text.")
	assert.Contains(t, p, "Input:\n\"a robot who \"loves\" plants\"\n")
	assert.True(t, strings.HasSuffix(p, "Refined:"))
}

func TestPassthrough(t *testing.T) {
	got, err := Passthrough{}.Refine(context.Background(), `  "time travel"  `)
	require.NoError(t, err)
	assert.Equal(t, "time travel", got)
}

func TestNew_SelectsProvider(t *testing.T) {
	base := config.Default().Refiner
	base.APIKey = "gsk-test"

	r, err := New(base)
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, r)

	lc := base
	lc.Provider = "langchain"
	r, err = New(lc)
	require.NoError(t, err)
	assert.IsType(t, &Langchain{}, r)

	pt := base
	pt.Provider = "passthrough"
	r, err = New(pt)
	require.NoError(t, err)
	assert.IsType(t, Passthrough{}, r)

	bad := base
	bad.Provider = "carrier-pigeon"
	_, err = New(bad)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestNew_MissingKey(t *testing.T) {
	cfg := config.Default().Refiner
	_, err := New(cfg)
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	cfg.Provider = "langchain"
	_, err = New(cfg)
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	// local endpoints do not need a key
	cfg.Provider = "openai"
	cfg.BaseURL = "http://localhost:8080/v1"
	_, err = New(cfg)
	assert.NoError(t, err)
}

// completionServer speaks just enough of the OpenAI chat completion API.
type completionServer struct {
	*httptest.Server
	mu     sync.Mutex
	bodies []map[string]any
	reply  string
	status int
}

func newCompletionServer(t *testing.T, reply string) *completionServer {
	t.Helper()
	cs := &completionServer{reply: reply, status: http.StatusOK}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		cs.mu.Lock()
		cs.bodies = append(cs.bodies, body)
		status := cs.status
		cs.mu.Unlock()

		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"error":{"message":"upstream exploded","type":"server_error"}}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   body["model"],
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": cs.reply},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	}))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *completionServer) lastBody() map[string]any {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if len(cs.bodies) == 0 {
		return nil
	}
	return cs.bodies[len(cs.bodies)-1]
}

func TestOpenAI_RefineAgainstServer(t *testing.T) {
	srv := newCompletionServer(t, "  \"robot space heist\"\n")
	cfg := config.Default().Refiner
	cfg.BaseURL = srv.URL + "/v1"
	cfg.APIKey = "gsk-test"

	got, err := NewOpenAI(cfg).Refine(context.Background(), "robots robbing a space station")
	require.NoError(t, err)
	assert.Equal(t, "robot space heist", got)

	body := srv.lastBody()
	require.NotNil(t, body)
	assert.Equal(t, config.DefaultModel, body["model"])
	assert.InDelta(t, 0.2, body["temperature"], 1e-6)
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	msg := msgs[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, Prompt("robots robbing a space station"), msg["content"])
}

func TestOpenAI_UpstreamErrorPropagates(t *testing.T) {
	srv := newCompletionServer(t, "")
	srv.status = http.StatusInternalServerError
	cfg := config.Default().Refiner
	cfg.BaseURL = srv.URL + "/v1"
	cfg.APIKey = "gsk-test"

	_, err := NewOpenAI(cfg).Refine(context.Background(), "anything")
	assert.Error(t, err)
}

type fakeChat struct {
	resp openai.ChatCompletionResponse
	err  error
	req  openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestOpenAI_NoChoices(t *testing.T) {
	fc := &fakeChat{}
	_, err := NewOpenAIWithClient(fc, "m", 0.2).Refine(context.Background(), "q")
	assert.ErrorIs(t, err, ErrEmptyReply)
	assert.Equal(t, "m", fc.req.Model)
}

func TestOpenAI_ClientError(t *testing.T) {
	boom := errors.New("connection refused")
	fc := &fakeChat{err: boom}
	_, err := NewOpenAIWithClient(fc, "m", 0.2).Refine(context.Background(), "q")
	assert.ErrorIs(t, err, boom)
}

func TestOpenAI_ZeroTemperatureIsSent(t *testing.T) {
	fc := &fakeChat{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "x"}}},
	}}
	_, err := NewOpenAIWithClient(fc, "m", 0).Refine(context.Background(), "q")
	require.NoError(t, err)
	assert.NotZero(t, fc.req.Temperature)

	raw, err := json.Marshal(fc.req)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"temperature"`)
}

type fakeModel struct {
	reply    string
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestLangchain_Refine(t *testing.T) {
	fm := &fakeModel{reply: "'haunted lighthouse'"}
	got, err := NewLangchainWithModel(fm, 0.2).Refine(context.Background(), "spooky lighthouse keeper")
	require.NoError(t, err)
	assert.Equal(t, "haunted lighthouse", got)
	assert.InDelta(t, 0.2, fm.opts.Temperature, 1e-9)

	require.Len(t, fm.messages, 1)
	assert.Equal(t, llms.ChatMessageTypeHuman, fm.messages[0].Role)
	require.Len(t, fm.messages[0].Parts, 1)
	assert.Equal(t, llms.TextContent{Text: Prompt("spooky lighthouse keeper")}, fm.messages[0].Parts[0])
}

func TestLangchain_ErrorPropagates(t *testing.T) {
	boom := errors.New("rate limited")
	_, err := NewLangchainWithModel(&fakeModel{err: boom}, 0.2).Refine(context.Background(), "q")
	assert.ErrorIs(t, err, boom)
}

func TestFunc(t *testing.T) {
	var r Refiner = Func(func(_ context.Context, q string) (string, error) {
		return strings.ToUpper(q), nil
	})
	got, err := r.Refine(context.Background(), "up")
	require.NoError(t, err)
	assert.Equal(t, "UP", got)
}
