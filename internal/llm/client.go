package llm

import (
	"context"
	"fmt"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ValidRole reports whether role is one of system, user or assistant.
func ValidRole(role string) bool {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

func (m Message) Validate() error {
	if !ValidRole(m.Role) {
		return fmt.Errorf("invalid message role %q", m.Role)
	}
	return nil
}

// ExtraJSONOnly marks a call whose answer must be a bare JSON object.
const ExtraJSONOnly = "json_only"

// Options are the sampling parameters of a single generation call.
// Extra carries backend-specific knobs; unknown keys are ignored.
type Options struct {
	Temperature     float64
	MaxOutputTokens int
	Extra           map[string]any
}

// Response is best-effort: Text may be empty or not follow any requested
// format, Meta may be nil or partial.
type Response struct {
	Text string
	Meta map[string]any
}

type Client interface {
	Generate(ctx context.Context, messages []Message, opts Options) (Response, error)
}
