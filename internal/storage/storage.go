package storage

import "time"

type EventKind string

const (
	KindChat     EventKind = "chat"
	KindEvaluate EventKind = "evaluate"
)

// Event is one completed coach interaction: a chat turn or an evaluation.
// The log is write-only telemetry, sessions are never restored from it.
type Event struct {
	Timestamp         time.Time `json:"timestamp"`
	Kind              EventKind `json:"kind"`
	SessionID         string    `json:"session_id,omitempty"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response"`
	Model             string    `json:"model,omitempty"`
	// Score is set for evaluations only.
	Score    *int `json:"score,omitempty"`
	Fallback bool `json:"fallback,omitempty"`
}

// Recorder abstracts persistence of interaction events.
// LoadInteractions returns events in the order they were appended.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendInteraction(event Event) error
	LoadInteractions() ([]Event, error)
}
