// Package server exposes the coach service over HTTP.
package server

import (
	"context"
	"embed"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"interview-coach/internal/coach"
	"interview-coach/internal/storage"
)

const serviceName = "interview-coach"

//go:embed web/index.html
var webFS embed.FS

// Options configures the HTTP layer.
type Options struct {
	Addr           string
	AllowedOrigins []string
	// RequestTimeout bounds a whole request, including the provider call.
	RequestTimeout time.Duration
}

// Server представляет HTTP сервер тренажера
type Server struct {
	service   *coach.Service
	recorder  storage.Recorder
	opts      Options
	startTime time.Time
	now       func() time.Time
	router    *chi.Mux
	server    *http.Server
}

// New собирает роутер. recorder может быть nil, тогда статистика пустая.
func New(service *coach.Service, recorder storage.Recorder, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 90 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	s := &Server{
		service:   service,
		recorder:  recorder,
		opts:      opts,
		startTime: time.Now(),
		now:       time.Now,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Post("/evaluate", s.handleEvaluate)
		r.Post("/reset", s.handleReset)
		r.Get("/sessions/{sessionID}/messages", s.handleSessionMessages)
		r.Get("/stats", s.handleStats)
	})

	return r
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler { return s.router }

// Start запускает сервер и блокируется до его остановки
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("🌐 Starting Interview Coach on http://localhost%s", s.opts.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop останавливает сервер, дожидаясь активных запросов
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func indexPage() ([]byte, error) {
	return fs.ReadFile(webFS, "web/index.html")
}
