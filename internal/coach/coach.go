package coach

import (
	"context"
	"log"

	"interview-coach/internal/llm"
)

// Coach talks to the generation provider. It keeps no state of its own.
type Coach struct {
	llm          llm.Client
	systemPrompt string
}

// New returns a Coach using systemPrompt, or SystemPrompt when it is empty.
func New(client llm.Client, systemPrompt string) *Coach {
	if systemPrompt == "" {
		systemPrompt = SystemPrompt
	}
	return &Coach{llm: client, systemPrompt: systemPrompt}
}

func (c *Coach) SystemPrompt() string { return c.systemPrompt }

// Chat prepends the system instruction to messages and asks the provider
// for the next assistant turn. Provider meta overrides caller meta on key
// collisions. Provider errors are returned unchanged.
func (c *Coach) Chat(ctx context.Context, messages []llm.Message, meta map[string]any) (string, map[string]any, error) {
	full := make([]llm.Message, 0, len(messages)+1)
	full = append(full, llm.Message{Role: llm.RoleSystem, Content: c.systemPrompt})
	full = append(full, messages...)

	resp, err := c.llm.Generate(ctx, full, llm.Options{
		Temperature:     chatTemperature,
		MaxOutputTokens: chatMaxTokens,
	})
	if err != nil {
		return "", nil, err
	}
	log.Printf("🧠 chat reply: %d messages in, %d chars out, model=%v", len(full), len(resp.Text), resp.Meta["model"])

	return resp.Text, mergeMeta(meta, resp.Meta), nil
}

func mergeMeta(caller, provider map[string]any) map[string]any {
	out := make(map[string]any, len(caller)+len(provider))
	for k, v := range caller {
		out[k] = v
	}
	for k, v := range provider {
		out[k] = v
	}
	return out
}
