package http

import (
	"github.com/mrlokans/bookcatalog/internal/auth"
	"github.com/mrlokans/bookcatalog/internal/logger"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Books    BookStore
	Reviews  ReviewStore
	History  HistoryStore
	Database Pinger

	// Authentication
	AuthService *auth.Service
	LoginGuard  *auth.LoginGuard // nil disables the login lockout

	// Background tasks, nil when the task queue is disabled
	TaskQueue TaskQueue

	Logger *logger.Logger

	// Application info
	Version string
}
