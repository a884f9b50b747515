package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookcatalog/internal/logger"
)

// ErrShutdownTimeout is returned by Shutdown when a rebuild was still running
// at the context deadline.
var ErrShutdownTimeout = errors.New("task queue: workers still busy at shutdown deadline")

// Queue runs catalog maintenance in the background. Tasks live in a sqlite
// file next to the catalog database so they survive restarts.
type Queue struct {
	workers *backlite.Client
	db      *sql.DB
	workerN int
	log     *logger.Logger

	mu      sync.Mutex
	running bool
}

// QueuePath places the task database next to the catalog,
// e.g. ./catalog.db becomes ./catalog-tasks.db.
func QueuePath(catalogPath string) string {
	ext := filepath.Ext(catalogPath)
	return strings.TrimSuffix(catalogPath, ext) + "-tasks" + ext
}

func openQueueDB(path string, workers int) (*sql.DB, error) {
	params := url.Values{}
	params.Set("_journal", "WAL")
	params.Set("_busy_timeout", "5000")

	db, err := sql.Open("sqlite3", path+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	// one connection per worker plus headroom for enqueue and status calls
	db.SetMaxOpenConns(workers + 4)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// Open prepares the queue and registers the category rebuild job.
// Workers start with Start.
func Open(catalogPath string, cfg Config, rebuilder CategoryRebuilder, log *logger.Logger) (*Queue, error) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("component", "tasks")

	db, err := openQueueDB(QueuePath(catalogPath), cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("open task database: %w", err)
	}

	workers, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          logger.NewTaskLogger(log),
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create task workers: %w", err)
	}
	if err := workers.Install(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("install task schema: %w", err)
	}

	workers.Register(NewRebuildCategoriesQueue(rebuilder, log))

	return &Queue{workers: workers, db: db, workerN: cfg.Workers, log: log}, nil
}

// Start launches the workers. They stop when ctx is cancelled or on Shutdown.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.running = true

	q.workers.Start(ctx)
	q.log.Info().Int("workers", q.workerN).Msg("task workers started")
}

// EnqueueRebuildCategories adds one rebuild task and returns its id.
func (q *Queue) EnqueueRebuildCategories(requestedBy string) (string, error) {
	ids, err := q.workers.Add(RebuildCategoriesTask{RequestedBy: requestedBy}).Save()
	if err != nil {
		return "", fmt.Errorf("enqueue category rebuild: %w", err)
	}
	return ids[0], nil
}

// Status reports a task's progress. Unknown and expired ids give TaskStatusNotFound.
func (q *Queue) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return q.workers.Status(ctx, taskID)
}

// Shutdown waits for running tasks until ctx expires, then closes the task
// database. Queued tasks stay on disk for the next start.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	wasRunning := q.running
	q.running = false
	q.mu.Unlock()

	var stopErr error
	if wasRunning && !q.workers.Stop(ctx) {
		stopErr = ErrShutdownTimeout
	}
	q.log.Info().Bool("drained", stopErr == nil).Msg("task workers stopped")

	if err := q.db.Close(); err != nil {
		return errors.Join(stopErr, fmt.Errorf("close task database: %w", err))
	}
	return stopErr
}
