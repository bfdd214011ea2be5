package completion

import (
	"context"
	"errors"

	"github.com/iksnae/duckchat/internal"
	openai "github.com/sashabaranov/go-openai"
)

// ErrMissingAPIKey is returned when no API key is configured
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")

// chatClient is the subset of the go-openai client used here
type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient sends chat completion requests to an OpenAI-compatible API
type OpenAIClient struct {
	client chatClient
	model  string
}

// NewOpenAIClient creates a client for model. An empty baseURL uses the
// public OpenAI endpoint.
func NewOpenAIClient(apiKey, baseURL, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

// Model returns the model requests are sent to
func (c *OpenAIClient) Model() string {
	return c.model
}

// Complete sends messages and converts the reply. Failures are wrapped in
// *internal.CompletionError.
func (c *OpenAIClient) Complete(ctx context.Context, messages []internal.ChatMessage) (*internal.CompletionResponse, error) {
	request := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toOpenAIMessages(messages),
	}

	internal.LogDebug("Sending %d messages to %s", len(messages), c.model)
	resp, err := c.client.CreateChatCompletion(ctx, request)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &internal.CompletionError{Model: c.model, Err: err}
	}
	return fromOpenAIResponse(resp), nil
}

func toOpenAIMessages(messages []internal.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}

func fromOpenAIResponse(resp openai.ChatCompletionResponse) *internal.CompletionResponse {
	out := &internal.CompletionResponse{
		ID:      resp.ID,
		Object:  resp.Object,
		Created: resp.Created,
		Model:   resp.Model,
		Choices: make([]internal.Choice, 0, len(resp.Choices)),
		Usage: &internal.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	for _, choice := range resp.Choices {
		out.Choices = append(out.Choices, internal.Choice{
			Index: choice.Index,
			Message: internal.ChatMessage{
				Role:    internal.Role(choice.Message.Role),
				Content: choice.Message.Content,
			},
			FinishReason: string(choice.FinishReason),
		})
	}
	return out
}
