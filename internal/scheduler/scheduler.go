// Package scheduler runs the periodic maintenance jobs of the API process.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/robfig/cron/v3"
)

// Reconciler repairs derived applicant counters.
type Reconciler interface {
	ReconcileCounts(ctx context.Context) (int64, error)
}

// Scheduler wraps robfig/cron and runs the applicant counter reconcile job.
type Scheduler struct {
	cron       *cron.Cron
	reconciler Reconciler
	spec       string // cron spec, e.g. "@every 1h"
	running    atomic.Bool
}

// New creates a Scheduler that reconciles on spec.
func New(reconciler Reconciler, spec string) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		reconciler: reconciler,
		spec:       spec,
	}
}

// Start registers the job and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	slog.Info("scheduler started", "spec", s.spec)
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("scheduler stopped")
}

// RunOnce reconciles immediately. Overlapping runs are skipped.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		slog.Warn("reconcile already running, skipping")
		return
	}
	defer s.running.Store(false)

	repaired, err := s.reconciler.ReconcileCounts(ctx)
	if err != nil {
		slog.Error("reconcile applicant counts failed", "err", err)
		return
	}
	slog.Info("reconcile applicant counts done", "repaired", repaired)
}
