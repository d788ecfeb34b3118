package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "carparts/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"carparts/internal/cache"
	"carparts/internal/config"
	"carparts/internal/db"
	"carparts/internal/handler"
	"carparts/internal/logger"
	"carparts/internal/model"
	"carparts/internal/repository"
	"carparts/internal/router"
	"carparts/internal/sanitize"
	"carparts/internal/service"
	"carparts/internal/session"
	"carparts/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title Car Parts Marketplace API
// @version 1.0
// @description Used car parts catalog with session cart, orders and customer feedback.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name carparts_session
func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		zap.NewExample().Fatal("init logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	gormDB, err := db.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	if err := model.Migrate(gormDB); err != nil {
		return err
	}
	log.Info("database ready", zap.String("driver", cfg.Database.Driver))

	redisClient := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer redisClient.Close()
	redisUp := redisClient.Ping(ctx).Err() == nil
	if !redisUp {
		log.Warn("redis unavailable, part cache disabled", zap.String("addr", cfg.Redis.Addr))
	}

	sessionStore, err := newSessionStore(cfg.Session.Backend, redisClient, redisUp)
	if err != nil {
		return err
	}
	sessions := session.NewManager(sessionStore, session.NewTokenSigner(cfg.Session.Secret), cfg.Session.TTL, session.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
	})

	var partCache *cache.Client
	if redisUp {
		partCache = cache.New(redisClient)
	}

	images, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}

	store := repository.NewStore(gormDB)
	sanitizer := sanitize.New(log)

	// Initialize services
	accountService := service.NewAccountService(store, sessions, sanitizer, log)
	catalogService := service.NewCatalogService(store, images, partCache, sanitizer, log)
	panelService := service.NewPanelService(store, sessions, log)
	orderService := service.NewOrderService(store, sessions, sanitizer, log)
	feedbackService := service.NewFeedbackService(store, sanitizer, log)

	if _, err := accountService.EnsureAdmin(ctx, cfg.Admin); err != nil {
		return err
	}

	e := echo.New()
	router.Register(e, cfg, log, sessions, router.Handlers{
		Account:  handler.NewAccountHandler(accountService, sessions),
		Part:     handler.NewPartHandler(catalogService, images),
		Panel:    handler.NewPanelHandler(panelService),
		Order:    handler.NewOrderHandler(orderService),
		Feedback: handler.NewFeedbackHandler(feedbackService),
		Seed:     handler.NewSeedHandler(catalogService),
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.ServerPort
		log.Info("server starting", zap.String("addr", addr), zap.String("swagger", swaggerURL(cfg)))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// newSessionStore refuses a Redis backend that did not answer the startup ping.
func newSessionStore(backend string, client *redis.Client, redisUp bool) (session.Store, error) {
	switch backend {
	case "redis":
		if !redisUp {
			return nil, errors.New("session backend redis is unreachable")
		}
		return session.NewRedisStore(client), nil
	case "memory":
		return session.NewMemoryStore(), nil
	default:
		return nil, errors.New("unsupported session backend " + backend)
	}
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}
