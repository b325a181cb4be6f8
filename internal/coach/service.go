package coach

import (
	"context"
	"log"
	"time"

	"interview-coach/internal/llm"
	"interview-coach/internal/session"
	"interview-coach/internal/storage"
)

// ChatResult is the outcome of one chat turn.
type ChatResult struct {
	SessionID string         `json:"session_id"`
	Reply     string         `json:"reply"`
	Meta      map[string]any `json:"meta"`
}

// Service composes the session store, the coach and an optional audit
// recorder into the operations served over HTTP.
type Service struct {
	store    *session.Store
	coach    *Coach
	recorder storage.Recorder
	timeout  time.Duration
	now      func() time.Time
}

// NewService wires the service. recorder may be nil; timeout <= 0 disables
// the per-call deadline.
func NewService(store *session.Store, coach *Coach, recorder storage.Recorder, timeout time.Duration) *Service {
	return &Service{
		store:    store,
		coach:    coach,
		recorder: recorder,
		timeout:  timeout,
		now:      time.Now,
	}
}

// StartOrContinueChat stores messages as the session transcript, asks the
// coach for a reply and appends it. An unknown or expired sessionID starts
// a new session; the returned SessionID is the one that was used.
//
// The provider gets the snapshot taken while storing the submission, so
// concurrent turns on one session each answer their own transcript.
func (s *Service) StartOrContinueChat(ctx context.Context, sessionID string, messages []llm.Message, meta map[string]any) (ChatResult, error) {
	sid := s.store.GetOrCreate(sessionID)
	transcript := s.store.ReplaceMessages(sid, messages)

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	reply, merged, err := s.coach.Chat(callCtx, transcript, meta)
	if err != nil {
		log.Printf("❌ chat failed in session %s: %v", sid, err)
		return ChatResult{}, err
	}
	s.store.Append(sid, llm.Message{Role: llm.RoleAssistant, Content: reply})

	s.record(storage.Event{
		Kind:              storage.KindChat,
		SessionID:         sid,
		UserMessage:       lastUserMessage(transcript),
		AssistantResponse: reply,
		Model:             metaString(merged, "model"),
	})

	return ChatResult{SessionID: sid, Reply: reply, Meta: merged}, nil
}

// Evaluate scores an answer without touching any session.
func (s *Service) Evaluate(ctx context.Context, question, answer string) (Evaluation, error) {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	ev, err := s.coach.Evaluate(callCtx, question, answer)
	if err != nil {
		return Evaluation{}, err
	}

	score := ev.Score
	s.record(storage.Event{
		Kind:              storage.KindEvaluate,
		UserMessage:       question,
		AssistantResponse: ev.Feedback,
		Score:             &score,
		Fallback:          ev.Fallback(),
	})
	return ev, nil
}

// ResetSession drops sessionID (if live) and returns a fresh session id.
func (s *Service) ResetSession(sessionID string) string {
	if sessionID != "" {
		s.store.Reset(sessionID)
	}
	return s.store.GetOrCreate("")
}

// Transcript returns a copy of a live session, for inspection.
func (s *Service) Transcript(sessionID string) (session.Session, bool) {
	return s.store.Snapshot(sessionID)
}

func (s *Service) SessionCount() int { return s.store.Len() }

func (s *Service) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) record(ev storage.Event) {
	if s.recorder == nil {
		return
	}
	ev.Timestamp = s.now().UTC()
	if err := s.recorder.AppendInteraction(ev); err != nil {
		log.Printf("⚠️ failed to record %s interaction: %v", ev.Kind, err)
	}
}

func lastUserMessage(msgs []llm.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == llm.RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}

func metaString(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}
