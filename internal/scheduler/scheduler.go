package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Task is one periodic background job. Run is invoked immediately on start
// and then every Period; when it fails the next attempt happens after Backoff
// instead.
type Task struct {
	Name    string
	Period  time.Duration
	Backoff time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler drives the periodic tasks and the cron-expression jobs. Periodic
// tasks get an explicit loop each, anchored to a recorded next-run instant so
// slow runs don't drift the cadence. Cron jobs ride on robfig/cron.
type Scheduler struct {
	cron   *cron.Cron
	tasks  []Task
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New creates an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{cron: cron.New(cron.WithSeconds())}
}

// Add registers a periodic task. Must be called before Start.
func (s *Scheduler) Add(t Task) {
	if t.Backoff <= 0 {
		t.Backoff = t.Period
	}
	s.tasks = append(s.tasks, t)
}

// AddCron registers fn under a six-field cron spec.
func (s *Scheduler) AddCron(spec string, fn func()) error {
	if _, err := s.cron.AddFunc(spec, fn); err != nil {
		return fmt.Errorf("register cron %q: %w", spec, err)
	}
	return nil
}

// Start launches every registered task loop and the cron runner. The loops
// stop when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, t)
	}
	s.cron.Start()
	log.Info().Int("tasks", len(s.tasks)).Msg("scheduler started")
}

// Stop cancels the task loops, halts cron, and waits for in-flight runs.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	s.wg.Wait()
	log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, t Task) {
	defer s.wg.Done()

	next := time.Now()
	for {
		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := runOnce(ctx, t); err != nil {
			log.Warn().Err(err).Str("task", t.Name).
				Dur("backoff", t.Backoff).Msg("task failed, backing off")
			next = time.Now().Add(t.Backoff)
			continue
		}
		next = next.Add(t.Period)
	}
}

// runOnce isolates one task invocation; a panic inside the task is converted
// to an error so the loop survives.
func runOnce(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", t.Name, r)
		}
	}()
	return t.Run(ctx)
}
