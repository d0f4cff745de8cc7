package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"reviewhub/internal/config"
	"reviewhub/internal/microservices/http-api/repository"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// APIServer owns the http.Server lifecycle.
type APIServer struct {
	Addr       string
	httpServer *http.Server
	logger     *slog.Logger
}

func NewServer(addr string, h http.Handler, logger *slog.Logger) *APIServer {
	return &APIServer{
		Addr: addr,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// Start blocks serving requests until Stop is called.
func (s *APIServer) Start() error {
	s.logger.Info("http_server_started", "addr", s.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop waits for in-flight requests until ctx expires.
func (s *APIServer) Stop(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}
	s.logger.Info("http_server_stopped")
	return nil
}

// NewCodeStore returns the confirmation code store named by CODE_STORE and a
// function releasing it.
func NewCodeStore(ctx context.Context, cfg *config.Config, db *gorm.DB, logger *slog.Logger) (repository.ConfirmationCodeRepository, func() error, error) {
	if cfg.CodeStore != "redis" {
		return repository.NewConfirmationCodeRepository(db), func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("redis_connected", "addr", cfg.RedisAddr())
	return repository.NewRedisConfirmationCodeRepository(client), client.Close, nil
}
