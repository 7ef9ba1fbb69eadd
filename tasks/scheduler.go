// Package tasks contains the two recurring jobs that drive the marketplace:
// the notification processor (verified payments become grants) and the expiry
// sweeper (elapsed grants are revoked), plus the cron scheduler that runs
// them.
package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Task is one recurring unit of work. Ticks must be idempotent: all state is
// re-derived from the pod on every run, so a crashed or failed tick is simply
// retried by the next interval.
type Task interface {
	Name() string
	Tick(ctx context.Context) error
	Stats() *Stats
}

// Scheduler runs tasks on cron cadences. Each task is guarded against
// overlapping runs: if a tick is still in flight when its next slot fires,
// the new slot is skipped and counted.
type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Entry
}

// NewScheduler builds an empty scheduler. Cron specs use the six-field
// seconds-resolution syntax ("0 */1 * * * *" = once a minute).
func NewScheduler(log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.WithField("component", "scheduler"),
	}
}

// Add registers a task on the given cron spec.
func (s *Scheduler) Add(spec string, task Task) error {
	var mu sync.Mutex
	log := s.log.WithField("task", task.Name())
	_, err := s.cron.AddFunc(spec, func() {
		if !mu.TryLock() {
			task.Stats().recordSkip()
			log.Warn("previous tick still running, skipping this interval")
			return
		}
		defer mu.Unlock()
		if err := task.Tick(context.Background()); err != nil {
			log.WithError(err).Error("tick failed")
		}
	})
	if err != nil {
		return fmt.Errorf("tasks: schedule %s on %q: %w", task.Name(), spec, err)
	}
	return nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling new ticks and returns a context that is done once
// in-flight ticks have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
