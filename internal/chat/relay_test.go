package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindbloom/internal/models"
)

func TestRelayClientSendsContract(t *testing.T) {
	var got RelayRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(RelayResponse{Response: "from relay", Model: "openai"})
	}))
	defer srv.Close()

	c := NewRelayClient(RelayConfig{URL: srv.URL, Key: "anon-key", Model: "openai", HTTPClient: srv.Client()})
	reply, err := c.Complete(context.Background(), Request{
		Message: "hello",
		History: []Turn{{Role: models.RoleUser, Content: "hi"}, {Role: models.RoleAssistant, Content: "hey"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "from relay", reply)
	assert.Equal(t, "hello", got.Message)
	assert.Equal(t, "openai", got.Model)
	assert.Len(t, got.ConversationHistory, 2)
	assert.Equal(t, models.RoleAssistant, got.ConversationHistory[1].Role)
}

func TestRelayClientEmptyHistoryIsArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.Equal(t, []any{}, raw["conversationHistory"])
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	c := NewRelayClient(RelayConfig{URL: srv.URL, Key: "k", HTTPClient: srv.Client()})
	_, err := c.Complete(context.Background(), Request{Message: "x"})
	require.NoError(t, err)
}

func TestRelayClientFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "non-2xx",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "upstream down", http.StatusBadGateway)
			},
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, http.StatusBadGateway, se.StatusCode)
			},
		},
		{
			name: "missing response field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"model":"x"}`))
			},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrEmptyResponse) },
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			},
			check: func(t *testing.T, err error) { assert.Error(t, err) },
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			c := NewRelayClient(RelayConfig{URL: srv.URL, Key: "k", HTTPClient: srv.Client()})
			_, err := c.Complete(context.Background(), Request{Message: "x"})
			tc.check(t, err)
		})
	}
}

func TestRelayClientWithoutCredential(t *testing.T) {
	_, err := NewRelayClient(RelayConfig{URL: "http://example.invalid"}).Complete(context.Background(), Request{Message: "x"})
	assert.ErrorIs(t, err, ErrNoCredential)
	_, err = NewRelayClient(RelayConfig{Key: "k"}).Complete(context.Background(), Request{Message: "x"})
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestOpenAICompleter(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"deepseek-chat",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"plain reply"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAICompleter(OpenAIConfig{BaseURL: srv.URL, APIKey: "sk-test", Model: "deepseek-chat", HTTPClient: srv.Client()})
	reply, err := c.Complete(context.Background(), Request{
		Message: "hello",
		History: []Turn{{Role: models.RoleAssistant, Content: "welcome"}},
		Persona: Persona,
	})
	require.NoError(t, err)
	assert.Equal(t, "plain reply", reply)

	assert.Equal(t, "deepseek-chat", body["model"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 3)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "assistant", msgs[1].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[2].(map[string]any)["role"])
	assert.InDelta(t, DefaultTemperature, body["temperature"], 1e-9)
}

func TestOpenAICompleterEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	}))
	defer srv.Close()

	c := NewOpenAICompleter(OpenAIConfig{BaseURL: srv.URL, APIKey: "k", HTTPClient: srv.Client()})
	_, err := c.Complete(context.Background(), Request{Message: "x"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAICompleterWithoutKey(t *testing.T) {
	c := NewOpenAICompleter(OpenAIConfig{})
	assert.Equal(t, DefaultModel, c.Model())
	_, err := c.Complete(context.Background(), Request{Message: "x"})
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestOpenAICompleterReturnsContentVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  Breathe.\n"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAICompleter(OpenAIConfig{BaseURL: srv.URL, APIKey: "k", HTTPClient: srv.Client()})
	reply, err := c.Complete(context.Background(), Request{Message: "x"})
	require.NoError(t, err)
	assert.Equal(t, "  Breathe.\n", reply)
}

func TestRelayClientBoundedByContext(t *testing.T) {
	c := NewRelayClient(RelayConfig{URL: "http://example.invalid", Key: "k"})
	assert.Zero(t, c.httpClient.Timeout)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	c = NewRelayClient(RelayConfig{URL: srv.URL, Key: "k", HTTPClient: srv.Client()})
	_, err := c.Complete(ctx, Request{Message: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
