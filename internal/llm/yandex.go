package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/Morwran/yagpt"
)

// YandexClient talks to YandexGPT Lite. The yagpt completion call has no
// sampling knobs, so Options.Temperature and MaxOutputTokens are not sent.
type YandexClient struct {
	ya       yagpt.YaGPTFace
	iamToken string
}

func NewYandex(oauthToken, folderID string) (*YandexClient, error) {
	if oauthToken == "" {
		return nil, &ConfigurationError{Provider: ProviderYandex, Reason: "YANDEX_OAUTH_TOKEN is not set"}
	}
	if folderID == "" {
		return nil, &ConfigurationError{Provider: ProviderYandex, Reason: "YANDEX_FOLDER_ID is not set"}
	}
	// Create IAM token from OAuth token
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, &ConfigurationError{Provider: ProviderYandex, Reason: "failed to init yandex iam", Err: err}
	}
	resp, err := iam.Create()
	if err != nil {
		return nil, &ConfigurationError{Provider: ProviderYandex, Reason: "failed to create iam token", Err: err}
	}

	// Create YaGPT client for a folder
	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, &ConfigurationError{Provider: ProviderYandex, Reason: "failed to init yagpt", Err: err}
	}

	return &YandexClient{
		ya:       ya,
		iamToken: resp.IamToken,
	}, nil
}

func (c *YandexClient) Generate(ctx context.Context, messages []Message, opts Options) (Response, error) {
	yaMsgs := make([]yagpt.Message, 0, len(messages))
	for _, m := range messages {
		yaMsgs = append(yaMsgs, yagpt.Message{Role: m.Role, Content: m.Content})
	}

	resp, err := c.ya.CompletionWithCtx(ctx, c.iamToken, yaMsgs)
	if err != nil {
		return Response{}, &ProviderError{Provider: ProviderYandex, Err: fmt.Errorf("yagpt completion failed: %w", err)}
	}
	if resp == nil || len(resp.Alternatives) == 0 {
		return Response{}, &ProviderError{Provider: ProviderYandex, Err: errors.New("yagpt returned empty response")}
	}
	meta := map[string]any{
		"model": yagpt.YaModelLite,
		"usage": map[string]any{
			"prompt_tokens":     int(resp.Usage.InputTextTokens),
			"completion_tokens": int(resp.Usage.CompletionTokens),
			"total_tokens":      int(resp.Usage.TotalTokens),
		},
	}
	return Response{Text: resp.Alternatives[0].Message.Content, Meta: meta}, nil
}
