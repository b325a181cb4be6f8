package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"interview-coach/internal/coach"
	"interview-coach/internal/llm"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes payload with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// header is already written
		log.Printf("❌ Error encoding JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, errorResponse{Error: message})
}

// respondServiceError maps core error kinds to HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	var (
		cfgErr   *llm.ConfigurationError
		provErr  *llm.ProviderError
		shapeErr *coach.ShapeError
	)
	switch {
	case errors.As(err, &cfgErr):
		respondError(w, http.StatusInternalServerError, "LLM provider is not configured")
	case errors.As(err, &provErr):
		respondError(w, http.StatusBadGateway, "LLM provider request failed")
	case errors.As(err, &shapeErr):
		respondError(w, http.StatusBadGateway, "LLM returned an invalid evaluation")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
