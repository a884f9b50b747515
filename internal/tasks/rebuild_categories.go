package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookcatalog/internal/logger"
)

// CategoryRebuilder recomputes the genre index.
type CategoryRebuilder interface {
	RebuildCategories(ctx context.Context) (int, error)
}

// RebuildCategoriesTask recomputes the materialized genre index from all books.
type RebuildCategoriesTask struct {
	// RequestedBy is a user id, or "scheduler" for cron runs.
	RequestedBy string `json:"requested_by,omitempty"`
}

// Config returns the queue configuration for rebuild tasks.
func (t RebuildCategoriesTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "rebuild_categories",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RebuildCategoriesProcessor creates a processor function for RebuildCategoriesTask.
func RebuildCategoriesProcessor(rebuilder CategoryRebuilder, log *logger.Logger) backlite.QueueProcessor[RebuildCategoriesTask] {
	return func(ctx context.Context, task RebuildCategoriesTask) error {
		if rebuilder == nil {
			return fmt.Errorf("category rebuilder not configured")
		}

		written, err := rebuilder.RebuildCategories(ctx)
		if err != nil {
			return fmt.Errorf("rebuild categories: %w", err)
		}

		log.Info().
			Int("categories", written).
			Str("requested_by", task.RequestedBy).
			Msg("category index rebuilt")
		return nil
	}
}

// NewRebuildCategoriesQueue creates a backlite queue for rebuild tasks.
func NewRebuildCategoriesQueue(rebuilder CategoryRebuilder, log *logger.Logger) backlite.Queue {
	if log == nil {
		log = logger.Nop()
	}
	return backlite.NewQueue(RebuildCategoriesProcessor(rebuilder, log))
}
