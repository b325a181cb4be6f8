package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of background work. It receives the scheduler context,
// which is cancelled on Stop.
type Job func(ctx context.Context) error

// Scheduler управляет запланированными задачами
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	jobs   []string
}

// New создает новый планировщик. Расписания считаются в UTC.
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule registers job under a cron spec ("0 21 * * *", "@every 1m").
// A run that is still in progress skips the next tick.
func (s *Scheduler) Schedule(spec, name string, job Job) error {
	wrapped := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		if err := job(s.ctx); err != nil {
			log.Printf("❌ Scheduled job %s failed: %v", name, err)
		}
	}))
	if _, err := s.cron.AddJob(spec, wrapped); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	s.jobs = append(s.jobs, name)
	log.Printf("📅 Job %s scheduled: %s", name, spec)
	return nil
}

// Start запускает планировщик
func (s *Scheduler) Start() {
	if len(s.jobs) == 0 {
		log.Println("⚠️ No jobs registered, scheduler stays idle")
		return
	}
	s.cron.Start()
	log.Printf("📅 Scheduler started with %d jobs", len(s.jobs))
}

// Stop останавливает планировщик и ждет завершения запущенных задач
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	log.Println("📅 Scheduler stopped")
}
