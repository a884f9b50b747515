package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mrlokans/bookcatalog/internal/auth"
	"github.com/mrlokans/bookcatalog/internal/config"
	"github.com/mrlokans/bookcatalog/internal/database"
	"github.com/mrlokans/bookcatalog/internal/database/books"
	"github.com/mrlokans/bookcatalog/internal/database/history"
	"github.com/mrlokans/bookcatalog/internal/database/reviews"
	"github.com/mrlokans/bookcatalog/internal/database/users"
	http_controllers "github.com/mrlokans/bookcatalog/internal/http"
	"github.com/mrlokans/bookcatalog/internal/logger"
	"github.com/mrlokans/bookcatalog/internal/scheduler"
	"github.com/mrlokans/bookcatalog/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App holds the wired service. Build creates it, Shutdown releases it.
type App struct {
	Router *gin.Engine
	DB     *database.Database

	log       *logger.Logger
	guard     *auth.LoginGuard
	tasks     *tasks.Queue
	scheduler *scheduler.CategoriesScheduler
	cancel    context.CancelFunc
}

// NewLogger builds the process logger from configuration.
func NewLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Role:   "bookcatalog",
	})
}

// Build opens the database and wires stores, auth, background tasks and the router.
func Build(cfg *config.Config, log *logger.Logger, version string) (*App, error) {
	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app := &App{DB: db, log: log}

	secret := cfg.Auth.TokenSecret
	if secret == "" {
		secret, err = auth.GenerateTokenSecret()
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to generate token secret: %w", err)
		}
		log.Warn().Msg("AUTH_TOKEN_SECRET is not set, generated a random one; tokens will not survive a restart")
	}

	booksRepo := books.NewRepository(db.DB)
	tokens := auth.NewTokenService(secret, cfg.Auth.TokenExpiry, cfg.Auth.TokenIssuer)
	authService, err := auth.NewService(users.NewRepository(db.DB), tokens, cfg.Auth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}
	app.guard = auth.NewLoginGuard(auth.LockoutPolicyFrom(cfg.Auth))

	routerCfg := http_controllers.RouterConfig{
		Books:       booksRepo,
		Reviews:     reviews.NewRepository(db.DB),
		History:     history.NewRepository(db.DB),
		Database:    db,
		AuthService: authService,
		LoginGuard:  app.guard,
		Logger:      log,
		Version:     version,
	}

	if cfg.Tasks.Enabled {
		if err := app.startTasks(cfg, booksRepo); err != nil {
			app.Shutdown(context.Background())
			return nil, err
		}
		routerCfg.TaskQueue = app.tasks
	} else {
		log.Info().Msg("task queue disabled, category rebuilds run only from the CLI")
	}

	app.Router = http_controllers.NewRouter(routerCfg)
	return app, nil
}

func (a *App) startTasks(cfg *config.Config, booksRepo *books.Repository) error {
	queue, err := tasks.Open(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks), booksRepo, a.log)
	if err != nil {
		return fmt.Errorf("failed to initialize task queue: %w", err)
	}
	a.tasks = queue

	var ctx context.Context
	ctx, a.cancel = context.WithCancel(context.Background())
	queue.Start(ctx)

	a.scheduler = scheduler.NewCategoriesScheduler(queue, cfg.Categories.RebuildSchedule, a.log)
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start categories scheduler: %w", err)
	}
	return nil
}

// Shutdown stops background work and closes the database.
func (a *App) Shutdown(ctx context.Context) {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.tasks != nil {
		if err := a.tasks.Shutdown(ctx); err != nil {
			a.log.Error().Err(err).Msg("error stopping task queue")
		}
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.guard != nil {
		a.guard.Stop()
	}
	if err := a.DB.Close(); err != nil {
		a.log.Error().Err(err).Msg("error closing database")
	}
}

func Serve(router *gin.Engine, cfg *config.Config, log *logger.Logger, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// kill -9 cannot be caught, so only SIGINT and SIGTERM are handled.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Dur("timeout", timeout).Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Info().Msg("server exiting")
}

func Run(cfg *config.Config, version string) {
	log := NewLogger(cfg)
	log.Info().Str("version", version).Str("driver", string(cfg.Database.Driver)).Msg("starting bookcatalog")

	app, err := Build(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}

	Serve(app.Router, cfg, log, app.Shutdown)
}

// RebuildCategories recomputes the genre index once against the configured database.
func RebuildCategories(ctx context.Context, cfg *config.Config) (int, error) {
	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return 0, fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	return books.NewRepository(db.DB).RebuildCategories(ctx)
}
