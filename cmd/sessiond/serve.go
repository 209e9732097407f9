package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	sessiongate "github.com/sessiongate-io/sessiongate"
	"github.com/sessiongate-io/sessiongate/internal/logging"
	sgmiddleware "github.com/sessiongate-io/sessiongate/middleware"
)

const version = "0.3.0"

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the session gateway HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("listen", ":8080", "listen address")
	cmd.Flags().String("redis.addr", "localhost:6379", "redis address")
	cmd.Flags().String("log.format", "json", "log format (json or text)")
	cmd.Flags().String("log.level", "info", "log level (debug, info, warn, error)")

	return cmd
}

func serve(ctx context.Context, cfg serverConfig) error {
	log := logging.Setup(logging.Options{
		Service: "sessiond",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   parseLevel(cfg.Log.Level),
	})

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	validator, err := newStaticValidator(cfg.Users)
	if err != nil {
		return err
	}

	gwCfg := gatewayConfigFor(cfg.Gateway)
	builder := sessiongate.New().
		WithConfig(gwCfg).
		WithRedis(rdb).
		WithValidator(validator).
		WithLogger(log)
	if gwCfg.Audit.Enabled {
		builder = builder.WithAuditSink(sessiongate.NewJSONWriterSink(os.Stdout))
	}

	gw, err := builder.Build()
	if err != nil {
		return err
	}
	defer gw.Close()

	metrics := newHTTPMetrics(prometheus.DefaultRegisterer)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.middleware)

	r.Mount("/ajax/login", gw.Handler())
	r.Handle("/login/basic", gw.HTTPAuthHandler())
	r.Handle("/login/form", gw.FormLoginHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(sgmiddleware.Guard(gw))
		r.Get("/ajax/whoami", whoamiHandler)
	})

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// whoamiHandler echoes the authenticated session, demonstrating a guarded
// backend route.
func whoamiHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := sgmiddleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "no session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	fmt.Fprintf(w, `{"user":%q,"context_id":%d,"user_id":%d}`,
		sess.LoginName, sess.ContextID, sess.UserID)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
