package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
)

// MockClient is an offline backend for demos and local runs. It echoes the
// last user message and answers ExtraJSONOnly calls with a fixed evaluation.
type MockClient struct {
	seq atomic.Int64
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) Generate(ctx context.Context, messages []Message, opts Options) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, &ProviderError{Provider: ProviderMock, Err: err}
	}
	n := m.seq.Add(1)
	meta := map[string]any{
		"response_id": fmt.Sprintf("mock-%d", n),
		"model":       "mock",
	}

	if jsonOnly, _ := opts.Extra[ExtraJSONOnly].(bool); jsonOnly {
		out, _ := json.Marshal(map[string]any{
			"score":           7,
			"feedback":        "[MOCK] Ответ по делу, но не хватает примера.",
			"improved_answer": "[MOCK] Определи суть, приведи шаги и пример, назови ограничения.",
		})
		return Response{Text: string(out), Meta: meta}, nil
	}

	var lastUser string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			lastUser = messages[i].Content
			break
		}
	}
	if lastUser == "" {
		return Response{Text: "[MOCK] Привет! Напиши «старт», и я задам первый вопрос.", Meta: meta}, nil
	}
	return Response{Text: fmt.Sprintf("[MOCK] Получил: %q", truncate(lastUser, 100)), Meta: meta}, nil
}

func truncate(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "..."
}
