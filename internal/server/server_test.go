package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-coach/internal/analytics"
	"interview-coach/internal/coach"
	"interview-coach/internal/llm"
	"interview-coach/internal/session"
	"interview-coach/internal/storage"
)

// scriptedLLM answers every call with the same text or error.
type scriptedLLM struct {
	text string
	meta map[string]any
	err  error
}

func (s *scriptedLLM) Generate(_ context.Context, _ []llm.Message, _ llm.Options) (llm.Response, error) {
	if s.err != nil {
		return llm.Response{}, s.err
	}
	return llm.Response{Text: s.text, Meta: s.meta}, nil
}

type memRecorder struct {
	events []storage.Event
}

func (r *memRecorder) AppendInteraction(ev storage.Event) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *memRecorder) LoadInteractions() ([]storage.Event, error) {
	return r.events, nil
}

type testEnv struct {
	srv   *Server
	store *session.Store
	llm   *scriptedLLM
	rec   *memRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fake := &scriptedLLM{text: "Первый вопрос", meta: map[string]any{"model": "fake", "response_id": "r1"}}
	store := session.NewStore(session.Options{})
	rec := &memRecorder{}
	svc := coach.NewService(store, coach.New(fake, ""), rec, time.Second)
	return &testEnv{
		srv:   New(svc, rec, Options{Addr: ":0"}),
		store: store,
		llm:   fake,
		rec:   rec,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestIndex(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	body := rr.Body.String()
	assert.Contains(t, body, `lang="ru"`)
	assert.Contains(t, body, "<title>Interview Coach (LLM)</title>")
	for _, id := range []string{"toggleDemo", "clearChat", "startInterview", "askHint", "askSample", "askEval", "chat", "input", "sendBtn"} {
		assert.Contains(t, body, `id="`+id+`"`)
	}
	assert.Contains(t, body, `fetch("/api/chat"`)
	assert.Contains(t, body, `mode: "interview_coach"`)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	env.store.GetOrCreate("")

	rr := env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[healthResponse](t, rr)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, serviceName, resp.Service)
	assert.Equal(t, 1, resp.Sessions)
	assert.NotEmpty(t, resp.Uptime)
}

func TestChat_StartsSession(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/chat",
		`{"messages":[{"role":"user","content":"Привет"}],"meta":{"client":"web","model":"mine"}}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode[coach.ChatResult](t, rr)
	assert.True(t, strings.HasPrefix(resp.SessionID, "sess_"))
	assert.Equal(t, "Первый вопрос", resp.Reply)
	assert.Equal(t, "fake", resp.Meta["model"])
	assert.Equal(t, "web", resp.Meta["client"])

	msgs := env.store.Messages(resp.SessionID)
	require.Len(t, msgs, 2)
	assert.Equal(t, llm.RoleAssistant, msgs[1].Role)
}

func TestChat_ContinuesSession(t *testing.T) {
	env := newTestEnv(t)
	sid := env.store.GetOrCreate("")

	rr := env.do(t, http.MethodPost, "/api/chat",
		`{"session_id":"`+sid+`","mode":"interview_coach","messages":[{"role":"user","content":"a"}]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, sid, decode[coach.ChatResult](t, rr).SessionID)
}

func TestChat_Validation(t *testing.T) {
	cases := map[string]string{
		"no messages":    `{"mode":null}`,
		"empty messages": `{"messages":[]}`,
		"not a list":     `{"messages":"not a list"}`,
		"bad role":       `{"messages":[{"role":"tool","content":"x"}]}`,
		"unknown mode":   `{"mode":"small_talk","messages":[{"role":"user","content":"x"}]}`,
		"malformed json": `{"messages":[`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)
			rr := env.do(t, http.MethodPost, "/api/chat", body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			assert.NotEmpty(t, decode[errorResponse](t, rr).Error)
			assert.Equal(t, 0, env.store.Len())
		})
	}
}

func TestChat_ProviderErrorIsBadGateway(t *testing.T) {
	env := newTestEnv(t)
	env.llm.err = &llm.ProviderError{Provider: "openai", Err: errors.New("upstream 500")}

	rr := env.do(t, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"a"}]}`)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.NotContains(t, rr.Body.String(), "upstream 500")
}

func TestChat_ConfigurationErrorIsInternal(t *testing.T) {
	env := newTestEnv(t)
	env.llm.err = &llm.ConfigurationError{Provider: "openai", Reason: "api key is empty"}

	rr := env.do(t, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"a"}]}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestEvaluate(t *testing.T) {
	env := newTestEnv(t)
	env.llm.text = `{"score": 9, "feedback": "хорошо", "improved_answer": "ещё лучше"}`

	rr := env.do(t, http.MethodPost, "/api/evaluate", `{"question":"Что такое defer?","answer":"Отложенный вызов"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"score":9,"feedback":"хорошо","improved_answer":"ещё лучше"}`, rr.Body.String())
	assert.Equal(t, 0, env.store.Len())
}

func TestEvaluate_Fallback(t *testing.T) {
	env := newTestEnv(t)
	env.llm.text = "Это не JSON, просто текст"

	rr := env.do(t, http.MethodPost, "/api/evaluate", `{"question":"q","answer":"a"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var ev coach.Evaluation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ev))
	assert.Equal(t, coach.FallbackScore, ev.Score)
	assert.Equal(t, "Это не JSON, просто текст", ev.Feedback)
	assert.Equal(t, coach.FallbackImprovedAnswer, ev.ImprovedAnswer)
}

func TestEvaluate_ShapeErrorIsBadGateway(t *testing.T) {
	env := newTestEnv(t)
	env.llm.text = `{"score":3}`

	rr := env.do(t, http.MethodPost, "/api/evaluate", `{"question":"q","answer":"a"}`)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestEvaluate_RequiresFields(t *testing.T) {
	env := newTestEnv(t)
	for _, body := range []string{`{}`, `{"question":"q"}`, `{"answer":"a"}`, `{"question":"  ","answer":"a"}`} {
		rr := env.do(t, http.MethodPost, "/api/evaluate", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
}

func TestReset(t *testing.T) {
	env := newTestEnv(t)
	old := env.store.GetOrCreate("")

	rr := env.do(t, http.MethodPost, "/api/reset", `{"session_id":"`+old+`"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	fresh := decode[sessionIDResponse](t, rr).SessionID
	assert.NotEqual(t, old, fresh)

	rr = env.do(t, http.MethodGet, "/api/sessions/"+old+"/messages", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestReset_EmptyBody(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/api/reset", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.NotEmpty(t, decode[sessionIDResponse](t, rr).SessionID)
}

func TestSessionMessages(t *testing.T) {
	env := newTestEnv(t)
	sid := env.store.GetOrCreate("")
	env.store.Append(sid, llm.Message{Role: llm.RoleUser, Content: "a"})

	rr := env.do(t, http.MethodGet, "/api/sessions/"+sid+"/messages", "")
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[messagesResponse](t, rr)
	assert.Equal(t, sid, resp.SessionID)
	assert.Equal(t, []llm.Message{{Role: llm.RoleUser, Content: "a"}}, resp.Messages)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	env.llm.text = "не JSON"

	rr := env.do(t, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"a"}]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = env.do(t, http.MethodPost, "/api/evaluate", `{"question":"q","answer":"a"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rr.Code)
	stats := decode[analytics.DailyStats](t, rr)
	assert.Equal(t, 1, stats.ChatTurns)
	assert.Equal(t, 1, stats.Evaluations)
	assert.Equal(t, 1, stats.FallbackEvaluations)
	assert.Equal(t, 1, stats.UniqueSessions)
}

func TestStats_BadDate(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/api/stats?date=15.01.2024", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/stats?date=2024-01-15", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "2024-01-15", decode[analytics.DailyStats](t, rr).Date)
}
