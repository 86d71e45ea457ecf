package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/armin-soft/Fit-Master-sub001/domain"
	"github.com/armin-soft/Fit-Master-sub001/internal/config"
	httpx "github.com/armin-soft/Fit-Master-sub001/internal/http"
	"github.com/armin-soft/Fit-Master-sub001/internal/http/handlers"
	"github.com/armin-soft/Fit-Master-sub001/internal/http/middleware"
)

const shutdownTimeout = 15 * time.Second

// Router builds the HTTP router over the container's services
func (c *Container) Router() *gin.Engine {
	h := httpx.Handlers{
		TrainerSession: handlers.NewSessionHandlers(c.SessionStore, domain.RoleTrainer),
		StudentSession: handlers.NewSessionHandlers(c.SessionStore, domain.RoleStudent),
		TrainerLogin:   handlers.NewLoginHandlers(c.Manager, domain.RoleTrainer),
		StudentLogin:   handlers.NewLoginHandlers(c.Manager, domain.RoleStudent),
		Profile:        handlers.NewProfileHandlers(c.Identities),
		Health: handlers.NewHealthHandlers(map[string]handlers.Pinger{
			"redis": c.RedisClient,
			"database": handlers.PingFunc(func(ctx context.Context) error {
				sqlDB, err := c.DB.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			}),
		}),
	}

	clientMW := middleware.NewClientSessionMW(c.TokenSvc, c.Config.Cookie, c.Config.ClientTTL, c.Logger)
	guard := middleware.NewRequireLoginMW(c.SessionStore, c.Identities, c.PolicySvc, c.Logger)
	return httpx.BuildRouter(h, clientMW, guard, middleware.RateLimit(c.Config.RateLimitPerSec), c.Logger)
}

// Run serves the API until ctx is cancelled, then shuts down gracefully
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	c, err := NewContainer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("failed to close dependencies", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
