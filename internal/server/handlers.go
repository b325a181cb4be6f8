package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"interview-coach/internal/analytics"
	"interview-coach/internal/llm"
)

const defaultMode = "interview_coach"

// maxBodyBytes caps request bodies; transcripts are resubmitted every turn.
const maxBodyBytes = 1 << 20

type chatRequest struct {
	SessionID string         `json:"session_id"`
	Mode      string         `json:"mode"`
	Messages  []llm.Message  `json:"messages"`
	Meta      map[string]any `json:"meta"`
}

type evaluateRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type resetRequest struct {
	SessionID string `json:"session_id"`
}

type sessionIDResponse struct {
	SessionID string `json:"session_id"`
}

type messagesResponse struct {
	SessionID string        `json:"session_id"`
	Messages  []llm.Message `json:"messages"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Sessions  int       `json:"sessions"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := indexPage()
	if err != nil {
		log.Printf("❌ Failed to read embedded page: %v", err)
		respondError(w, http.StatusInternalServerError, "page not available")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	respondJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Service:   serviceName,
		Sessions:  s.service.SessionCount(),
		Uptime:    now.Sub(s.startTime).Round(time.Second).String(),
		Timestamp: now.UTC(),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Mode == "" {
		req.Mode = defaultMode
	}
	if req.Mode != defaultMode {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported mode %q", req.Mode))
		return
	}
	if len(req.Messages) == 0 {
		respondError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}
	for i, m := range req.Messages {
		if err := m.Validate(); err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("messages[%d]: %v", i, err))
			return
		}
	}

	res, err := s.service.StartOrContinueChat(r.Context(), req.SessionID, req.Messages, req.Meta)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.Answer) == "" {
		respondError(w, http.StatusBadRequest, "question and answer are required")
		return
	}

	ev, err := s.service.Evaluate(r.Context(), req.Question, req.Answer)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ev)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	// пустое тело допустимо
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, sessionIDResponse{SessionID: s.service.ResetSession(req.SessionID)})
}

func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, ok := s.service.Transcript(id)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	respondJSON(w, http.StatusOK, messagesResponse{
		SessionID: sess.ID,
		Messages:  sess.Messages,
		UpdatedAt: sess.UpdatedAt,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	day := s.now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	var stats *analytics.DailyStats
	if s.recorder == nil {
		stats = analytics.AnalyzeDailyLogs(nil, day)
	} else {
		events, err := s.recorder.LoadInteractions()
		if err != nil {
			log.Printf("❌ Failed to load interactions: %v", err)
			respondError(w, http.StatusInternalServerError, "failed to load interactions")
			return
		}
		stats = analytics.AnalyzeDailyLogs(events, day)
	}
	respondJSON(w, http.StatusOK, stats)
}
