package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// RelayRequest is the body accepted by the chat relay function.
type RelayRequest struct {
	Message             string `json:"message"`
	Model               string `json:"model,omitempty"`
	ConversationHistory []Turn `json:"conversationHistory"`
}

// RelayResponse is the body returned by the chat relay function.
type RelayResponse struct {
	Response string `json:"response"`
	Model    string `json:"model,omitempty"`
}

// RelayClient calls the backend chat relay function.
type RelayClient struct {
	url        string
	key        string
	model      string
	httpClient *http.Client
}

type RelayConfig struct {
	URL        string
	Key        string
	Model      string
	HTTPClient *http.Client
}

func NewRelayClient(cfg RelayConfig) *RelayClient {
	// No client timeout; ctx bounds the call.
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &RelayClient{
		url:        strings.TrimSpace(cfg.URL),
		key:        strings.TrimSpace(cfg.Key),
		model:      cfg.Model,
		httpClient: hc,
	}
}

// Complete posts the message and windowed history. The persona is applied by
// the relay itself and is not forwarded.
func (c *RelayClient) Complete(ctx context.Context, req Request) (string, error) {
	if c.url == "" || c.key == "" {
		return "", ErrNoCredential
	}
	history := Window(req.History, HistoryWindow)
	if history == nil {
		history = []Turn{}
	}
	body, err := json.Marshal(RelayRequest{Message: req.Message, Model: c.model, ConversationHistory: history})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build relay request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.key)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("relay request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var out RelayResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode relay response: %w", err)
	}
	if strings.TrimSpace(out.Response) == "" {
		return "", ErrEmptyResponse
	}
	return out.Response, nil
}
