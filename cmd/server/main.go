package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"interview-coach/internal/analytics"
	"interview-coach/internal/coach"
	"interview-coach/internal/config"
	"interview-coach/internal/llm"
	"interview-coach/internal/scheduler"
	"interview-coach/internal/server"
	"interview-coach/internal/session"
	"interview-coach/internal/storage"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	llmClient, err := llm.NewFactory(cfg).CreateClient(string(cfg.LLMProvider), cfg.OpenAIModel)
	if err != nil {
		log.Fatalf("❌ failed to create llm client: %v", err)
	}
	log.Printf("🤖 LLM provider: %s", cfg.LLMProvider)

	store := session.NewStore(session.Options{
		TTL:         cfg.SessionTTL,
		MaxSessions: cfg.MaxSessions,
		IDPrefix:    cfg.SessionIDPrefix,
	})

	var rec storage.Recorder
	if cfg.LogFilePath != "" {
		fr, err := storage.NewFileRecorder(cfg.LogFilePath)
		if err != nil {
			log.Printf("failed to init file recorder: %v", err)
		} else {
			rec = fr
		}
	}

	svc := coach.NewService(store, coach.New(llmClient, readSystemPrompt(cfg.SystemPromptPath)), rec, cfg.LLMTimeout)

	sched := scheduler.New()
	if err := sched.Schedule(cfg.SessionSweepSchedule, "session-sweep", func(context.Context) error {
		st := store.Sweep()
		if st.Expired > 0 || st.Evicted > 0 {
			log.Printf("🧹 Session sweep: expired=%d evicted=%d remaining=%d", st.Expired, st.Evicted, st.Remaining)
		}
		return nil
	}); err != nil {
		log.Fatalf("❌ %v", err)
	}
	if rec != nil {
		if err := sched.Schedule(cfg.DailyReportSchedule, "daily-report", dailyReport(rec)); err != nil {
			log.Fatalf("❌ %v", err)
		}
	}
	sched.Start()

	srv := server.New(svc, rec, server.Options{
		Addr:           cfg.HTTPAddr,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RequestTimeout: cfg.LLMTimeout + 30*time.Second,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("❌ HTTP server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("🔌 Interview Coach shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Printf("❌ Server shutdown error: %v", err)
	}
	sched.Stop()
}

func dailyReport(rec storage.Recorder) scheduler.Job {
	return func(ctx context.Context) error {
		events, err := rec.LoadInteractions()
		if err != nil {
			return err
		}
		stats := analytics.AnalyzeDailyLogs(events, time.Now().UTC())
		details, err := stats.ToJSON()
		if err != nil {
			return err
		}
		log.Printf("📊 Daily report\n%s\n%s", stats.GenerateReportSummary(), details)
		return nil
	}
}

func readSystemPrompt(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("system prompt file not found or unreadable at %s: %v", path, err)
		return ""
	}
	return strings.TrimSpace(string(data))
}
