package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookcatalog/internal/logger"
)

type fakeEnqueuer struct {
	mu       sync.Mutex
	requests []string
	err      error
}

func (f *fakeEnqueuer) EnqueueRebuildCategories(requestedBy string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.requests = append(f.requests, requestedBy)
	return "task-1", nil
}

func (f *fakeEnqueuer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func TestValidateCronSchedule(t *testing.T) {
	assert.NoError(t, ValidateCronSchedule("0 3 * * *"))
	assert.NoError(t, ValidateCronSchedule("*/15 * * * *"))
	assert.Error(t, ValidateCronSchedule("every day"))
	assert.Error(t, ValidateCronSchedule("0 0 3 * * *"), "six fields are not accepted")
}

func TestCategoriesScheduler_StartStop(t *testing.T) {
	s := NewCategoriesScheduler(&fakeEnqueuer{}, "0 3 * * *", logger.Nop())

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	next := s.NextRunTime()
	require.NotNil(t, next)
	assert.Equal(t, 3, next.Hour())
	assert.True(t, next.After(time.Now()))

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextRunTime())

	// second stop is a no-op
	s.Stop()
}

func TestCategoriesScheduler_EmptyScheduleDisabled(t *testing.T) {
	s := NewCategoriesScheduler(&fakeEnqueuer{}, "", nil)

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestCategoriesScheduler_InvalidSchedule(t *testing.T) {
	s := NewCategoriesScheduler(&fakeEnqueuer{}, "not a schedule", logger.Nop())

	err := s.Start(context.Background())

	assert.ErrorContains(t, err, "invalid cron schedule")
	assert.False(t, s.IsRunning())
}

func TestCategoriesScheduler_StopsWithContext(t *testing.T) {
	s := NewCategoriesScheduler(&fakeEnqueuer{}, "0 3 * * *", logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
}

func TestCategoriesScheduler_RunNow(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	s := NewCategoriesScheduler(enqueuer, "0 3 * * *", logger.Nop())

	s.RunNow()

	require.Equal(t, 1, enqueuer.count())
	assert.Equal(t, ScheduledBy, enqueuer.requests[0])

	enqueuer.err = errors.New("queue closed")
	s.RunNow()
	assert.Equal(t, 1, enqueuer.count())
}
