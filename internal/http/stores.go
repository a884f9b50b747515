package http

import (
	"context"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookcatalog/internal/database/books"
	"github.com/mrlokans/bookcatalog/internal/database/filters"
	"github.com/mrlokans/bookcatalog/internal/database/history"
	"github.com/mrlokans/bookcatalog/internal/database/reviews"
	"github.com/mrlokans/bookcatalog/internal/entities"
	"github.com/mrlokans/bookcatalog/internal/tasks"
)

// This file consolidates all store interface definitions used by HTTP controllers.
// Each controller depends on its own narrow interface so tests can swap in fakes.

// BookStore provides catalog reads and inserts.
type BookStore interface {
	Insert(ctx context.Context, book *entities.Book) error
	Find(ctx context.Context, f filters.BookFilter) ([]entities.Book, error)
	Popular(ctx context.Context) ([]entities.Book, error)
	Recommend(ctx context.Context) ([]entities.Book, error)
	GetByID(ctx context.Context, id string) (*entities.Book, error)
	Categories(ctx context.Context) ([]entities.Category, error)
}

// ReviewStore provides review reads and inserts.
type ReviewStore interface {
	Insert(ctx context.Context, review *entities.Review) error
	Find(ctx context.Context, f filters.ReviewFilter) ([]entities.Review, error)
}

// HistoryStore provides activity log reads and appends.
type HistoryStore interface {
	Insert(ctx context.Context, entry *entities.History) error
	Find(ctx context.Context, f filters.HistoryFilter) ([]entities.History, error)
}

// TaskQueue enqueues background work and reports its progress.
type TaskQueue interface {
	EnqueueRebuildCategories(requestedBy string) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// Pinger checks storage connectivity.
type Pinger interface {
	Ping() error
}

var (
	_ BookStore    = (*books.Repository)(nil)
	_ ReviewStore  = (*reviews.Repository)(nil)
	_ HistoryStore = (*history.Repository)(nil)
	_ TaskQueue    = (*tasks.Queue)(nil)
)
