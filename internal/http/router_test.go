package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/mrlokans/bookcatalog/internal/auth"
	"github.com/mrlokans/bookcatalog/internal/config"
	"github.com/mrlokans/bookcatalog/internal/database"
	"github.com/mrlokans/bookcatalog/internal/database/books"
	"github.com/mrlokans/bookcatalog/internal/database/history"
	"github.com/mrlokans/bookcatalog/internal/database/reviews"
	"github.com/mrlokans/bookcatalog/internal/database/users"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeQueue struct {
	mu       sync.Mutex
	enqueued []string
	statuses map[string]backlite.TaskStatus
}

func (q *fakeQueue) EnqueueRebuildCategories(requestedBy string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enqueued = append(q.enqueued, requestedBy)
	return "task-1", nil
}

func (q *fakeQueue) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if status, ok := q.statuses[taskID]; ok {
		return status, nil
	}
	return backlite.TaskStatusNotFound, nil
}

type testServer struct {
	router  *gin.Engine
	db      *database.Database
	service *auth.Service
	guard   *auth.LoginGuard
	queue   *fakeQueue
}

type serverOption func(*RouterConfig)

func withoutTasks() serverOption {
	return func(cfg *RouterConfig) { cfg.TaskQueue = nil }
}

func setupTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	db, err := database.Open(sqlite.Open(filepath.Join(t.TempDir(), "http.db")), "silent")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	authCfg := config.Auth{BcryptCost: 4, MaxLoginAttempts: 3, RateLimitWindow: time.Minute, LockoutDuration: time.Minute}
	tokens := auth.NewTokenService("test-secret", 30*time.Minute, "bookcatalog")
	service, err := auth.NewService(users.NewRepository(db.DB), tokens, authCfg)
	require.NoError(t, err)

	guard := auth.NewLoginGuard(auth.LockoutPolicyFrom(authCfg))
	t.Cleanup(guard.Stop)

	queue := &fakeQueue{statuses: map[string]backlite.TaskStatus{}}
	cfg := RouterConfig{
		Books:       books.NewRepository(db.DB),
		Reviews:     reviews.NewRepository(db.DB),
		History:     history.NewRepository(db.DB),
		Database:    db,
		AuthService: service,
		LoginGuard:  guard,
		TaskQueue:   queue,
		Version:     "test",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &testServer{
		router:  NewRouter(cfg),
		db:      db,
		service: service,
		guard:   guard,
		queue:   queue,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signupAndLogin creates a user and returns its id and a bearer token.
func (s *testServer) signupAndLogin(t *testing.T, username, password string) (string, string) {
	t.Helper()

	w := s.do(t, http.MethodPost, "/auth/signup", gin.H{"username": username, "password": password, "display_name": username}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.postForm(t, "/auth/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var token TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))

	w = s.do(t, http.MethodGet, "/auth/me", nil, token.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	var me MeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))

	return me.UserID, token.AccessToken
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
