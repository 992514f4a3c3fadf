package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos-be/internal/catalog"
	"pos-be/internal/config"
	"pos-be/internal/db"
	"pos-be/internal/graph"
	"pos-be/internal/logger"
	"pos-be/internal/metrics"
	"pos-be/internal/middleware"
	"pos-be/internal/order"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 10 * time.Second
	cleanupInterval = time.Minute
)

type pinger interface {
	PingContext(ctx context.Context) error
}

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "POS order backend",
	Long:          `Serves the order GraphQL API at /query with the playground at /.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		logger.Init(cfg.AppEnv, cfg.LogLevel)
		defer logger.Sync()

		database := db.InitDB(cfg)
		defer database.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, database)
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.L().Error("server failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, database *sql.DB) error {
	log := logger.L()

	limiter := middleware.NewRateLimiter(cfg.InternalKey)
	go limiter.Run(cleanupInterval, ctx.Done())

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           newHandler(cfg, database, metrics.NewRegistry(), limiter),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("GraphQL server running", zap.String("addr", "http://localhost:"+cfg.AppPort+"/"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	return srv.Shutdown(shutdownCtx)
}

// newHandler wires repositories, the order service and the GraphQL server.
func newHandler(cfg *config.Config, database *sql.DB, registry *metrics.Registry, limiter *middleware.RateLimiter) http.Handler {
	orderSvc := order.NewService(order.NewRepository(database), catalog.NewRepository(database), registry)
	resolver := &graph.Resolver{OrderSvc: orderSvc}

	srv := graph.NewServer(graph.NewSchema(resolver))

	query := middleware.AuthMiddleware([]byte(cfg.JWTSecret))(limiter.Middleware(srv))
	return setupRouter(query, registry, database)
}

func setupRouter(query http.Handler, registry *metrics.Registry, db pinger) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/", playground.Handler("GraphQL Playground", "/query"))
	mux.Handle("/query", query)
	mux.Handle("/metrics", registry.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			logger.FromCtx(r.Context()).Warn("health check failed", zap.Error(err))
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return logger.RequestIDMiddleware(logger.LoggingMiddleware(mux))
}
