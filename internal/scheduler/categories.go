// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/bookcatalog/internal/logger"
)

// ScheduledBy is recorded as the requester of cron-triggered rebuilds.
const ScheduledBy = "scheduler"

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule checks a standard five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// RebuildEnqueuer queues a category index rebuild.
type RebuildEnqueuer interface {
	EnqueueRebuildCategories(requestedBy string) (string, error)
}

// CategoriesScheduler periodically enqueues a rebuild of the genre index.
type CategoriesScheduler struct {
	enqueuer RebuildEnqueuer
	schedule string
	log      *logger.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewCategoriesScheduler creates a scheduler. An empty schedule disables it.
func NewCategoriesScheduler(enqueuer RebuildEnqueuer, schedule string, log *logger.Logger) *CategoriesScheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &CategoriesScheduler{
		enqueuer: enqueuer,
		schedule: schedule,
		log:      log.With("component", "categories_scheduler"),
		cron:     cron.New(cron.WithParser(cronParser)),
	}
}

// Start begins the scheduler. It stops by itself when ctx is cancelled.
func (s *CategoriesScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.schedule == "" {
		s.log.Info().Msg("category rebuild schedule disabled")
		return nil
	}

	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.RunNow)
	if err != nil {
		return fmt.Errorf("failed to schedule category rebuild: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	s.log.Info().
		Str("schedule", s.schedule).
		Time("next_run", s.cron.Entry(entryID).Next).
		Msg("category rebuild scheduler started")

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running job and stops the scheduler.
func (s *CategoriesScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning = false
	s.cancelFunc = nil

	s.log.Info().Msg("category rebuild scheduler stopped")
}

// RunNow enqueues a rebuild immediately.
func (s *CategoriesScheduler) RunNow() {
	id, err := s.enqueuer.EnqueueRebuildCategories(ScheduledBy)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to enqueue category rebuild")
		return
	}
	s.log.Info().Str("task_id", id).Msg("category rebuild enqueued")
}

// IsRunning returns whether the scheduler is active.
func (s *CategoriesScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next rebuild will be enqueued, nil if stopped.
func (s *CategoriesScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	next := s.cron.Entry(s.entryID).Next
	return &next
}
