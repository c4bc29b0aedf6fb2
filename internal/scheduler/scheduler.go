package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// ScanFunc executes one full scouting run.
type ScanFunc func(ctx context.Context) error

// Scheduler re-runs the scout on a cron schedule (watch mode).
type Scheduler struct {
	Cron *cron.Cron
	Ctx  context.Context
	Scan ScanFunc
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, scan ScanFunc) *Scheduler {
	return &Scheduler{
		Cron: cron.New(cron.WithSeconds()),
		Ctx:  ctx,
		Scan: scan,
	}
}

// Register registers the scan task under the given cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.runScan); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

func (s *Scheduler) runScan() {
	log.Println("[INFO] running scheduled scan")
	if err := s.Scan(s.Ctx); err != nil {
		log.Printf("[ERROR] scheduled scan: %v", err)
		return
	}
	log.Println("[INFO] scheduled scan finished")
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}
