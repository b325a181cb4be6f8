package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	client *openai.Client
	model  string
}

type headerTransport struct {
	rt      http.RoundTripper
	headers http.Header
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone request to avoid mutating the original
	cl := req.Clone(req.Context())
	for k, vs := range t.headers {
		for _, v := range vs {
			cl.Header.Add(k, v)
		}
	}
	return t.rt.RoundTrip(cl)
}

func NewOpenAI(apiKey, baseURL, model, referrer, title string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, &ConfigurationError{Provider: ProviderOpenAI, Reason: "OPENAI_API_KEY is not set"}
	}
	if model == "" {
		return nil, &ConfigurationError{Provider: ProviderOpenAI, Reason: "model is not set"}
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	// Inject optional headers (useful for OpenRouter)
	if referrer != "" || title != "" {
		h := http.Header{}
		if referrer != "" {
			h.Set("HTTP-Referer", referrer)
		}
		if title != "" {
			h.Set("X-Title", title)
		}
		base := http.DefaultTransport
		config.HTTPClient = &http.Client{Transport: headerTransport{rt: base, headers: h}}
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

func (c *OpenAIClient) Generate(ctx context.Context, messages []Message, opts Options) (Response, error) {
	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    oaMsgs,
		Temperature: float32(opts.Temperature),
		MaxTokens:   opts.MaxOutputTokens,
	}
	ctx, cancel := applyOpenAIExtra(ctx, &req, opts.Extra)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Response{}, &ProviderError{Provider: ProviderOpenAI, Err: err}
	}
	if len(resp.Choices) == 0 {
		return Response{}, &ProviderError{Provider: ProviderOpenAI, Err: errors.New("completion has no choices")}
	}

	meta := map[string]any{
		"response_id": resp.ID,
		"model":       c.model,
		"usage": map[string]any{
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"total_tokens":      resp.Usage.TotalTokens,
		},
	}
	return Response{Text: resp.Choices[0].Message.Content, Meta: meta}, nil
}

// applyOpenAIExtra переносит поддерживаемые ключи extra в запрос.
// "timeout" задаётся в секундах и ограничивает только этот вызов.
func applyOpenAIExtra(ctx context.Context, req *openai.ChatCompletionRequest, extra map[string]any) (context.Context, context.CancelFunc) {
	cancel := context.CancelFunc(func() {})
	for k, v := range extra {
		switch k {
		case "timeout":
			if secs, ok := asFloat(v); ok && secs > 0 {
				ctx, cancel = context.WithTimeout(ctx, time.Duration(secs*float64(time.Second)))
			}
		case "user":
			if s, ok := v.(string); ok {
				req.User = s
			}
		case "top_p":
			if f, ok := asFloat(v); ok {
				req.TopP = float32(f)
			}
		case "seed":
			if f, ok := asFloat(v); ok {
				seed := int(f)
				req.Seed = &seed
			}
		case "stop":
			switch s := v.(type) {
			case string:
				req.Stop = []string{s}
			case []string:
				req.Stop = s
			}
		}
	}
	return ctx, cancel
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
