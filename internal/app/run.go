package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/Flarenzy/drinks-api/internal/auth"
	appdb "github.com/Flarenzy/drinks-api/internal/db"
	sqlcdb "github.com/Flarenzy/drinks-api/internal/db/sqlc"
	"github.com/Flarenzy/drinks-api/internal/domain"
	apihttp "github.com/Flarenzy/drinks-api/internal/http"
	"github.com/Flarenzy/drinks-api/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

func Run(ctx context.Context, cfg Config) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	return Serve(ctx, cfg, listener)
}

// Serve wires the application and serves on listener until ctx is done.
func Serve(ctx context.Context, cfg Config, listener net.Listener) error {
	logger := NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	m := metrics.New()
	gate, err := auth.New(cfg.Auth, &http.Client{Timeout: cfg.Auth.FetchTimeout}, logger, m)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	pool, err := appdb.NewPool(ctx, cfg.DSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	drinks := domain.NewLoggingDrinkService(logger, domain.NewDrinkService(appdb.NewDrinkRepository(sqlcdb.New(pool))))

	api := apihttp.NewAPI(logger, pool, drinks, gate, m)
	api.AllowedOrigins = cfg.AllowedOrigins

	server := &http.Server{
		Handler:           api.Router(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("serving", "addr", listener.Addr().String(), "issuer", cfg.Auth.Issuer, "jwks_url", cfg.Auth.KeySetURL())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
