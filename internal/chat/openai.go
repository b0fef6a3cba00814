package chat

import (
	"context"
	"net/http"
	"strings"

	openaigo "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"mindbloom/internal/models"
)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
)

// OpenAICompleter talks to any OpenAI-compatible chat completions endpoint.
type OpenAICompleter struct {
	client  openaigo.Client
	model   string
	enabled bool
}

type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

func NewOpenAICompleter(cfg OpenAIConfig) *OpenAICompleter {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	apiKey := strings.TrimSpace(cfg.APIKey)

	client := openaigo.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(hc),
		option.WithMaxRetries(0),
	)
	return &OpenAICompleter{client: client, model: model, enabled: apiKey != ""}
}

func (c *OpenAICompleter) Model() string { return c.model }

func (c *OpenAICompleter) Complete(ctx context.Context, req Request) (string, error) {
	if !c.enabled {
		return "", ErrNoCredential
	}
	history := Window(req.History, HistoryWindow)
	messages := make([]openaigo.ChatCompletionMessageParamUnion, 0, len(history)+2)
	if p := strings.TrimSpace(req.Persona); p != "" {
		messages = append(messages, openaigo.SystemMessage(p))
	}
	for _, t := range history {
		if t.Role == models.RoleAssistant {
			messages = append(messages, openaigo.AssistantMessage(t.Content))
		} else {
			messages = append(messages, openaigo.UserMessage(t.Content))
		}
	}
	messages = append(messages, openaigo.UserMessage(req.Message))

	resp, err := c.client.Chat.Completions.New(ctx, openaigo.ChatCompletionNewParams{
		Model:       openaigo.ChatModel(c.model),
		Messages:    messages,
		Temperature: openaigo.Float(DefaultTemperature),
		MaxTokens:   openaigo.Int(DefaultMaxTokens),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
