package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/internal/config"
	"github.com/aretw0/formwork/internal/presentation/tui"
	httpAdapter "github.com/aretw0/formwork/pkg/adapters/http"
	"github.com/aretw0/formwork/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/formwork/pkg/adapters/redis"
	"github.com/aretw0/formwork/pkg/observability"
	"github.com/aretw0/formwork/pkg/persistence/middleware"
	"github.com/aretw0/formwork/pkg/ports"
	"github.com/aretw0/formwork/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve <definition>",
	Short: "Serve a form definition over HTTP",
	Long: `Starts an HTTP server where every session gets its own form built from the
definition. Metrics are exposed on /metrics.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		port, _ := cmd.Flags().GetString("port")
		redisAddr, _ := cmd.Flags().GetString("redis-addr")
		redisPassword, _ := cmd.Flags().GetString("redis-password")
		redisDB, _ := cmd.Flags().GetInt("redis-db")
		ttl, _ := cmd.Flags().GetDuration("recovery-ttl")
		recoveryKey, _ := cmd.Flags().GetString("recovery-key")
		redact, _ := cmd.Flags().GetStringSlice("redact")

		def, err := config.Load(args[0])
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return err
		}
		streams := httpAdapter.NewStreamManager(logger)

		mws, err := recoveryMiddlewares(recoveryKey, redact)
		if err != nil {
			return err
		}

		var client *goredis.Client
		if redisAddr != "" {
			client = goredis.NewClient(&goredis.Options{Addr: redisAddr, Password: redisPassword, DB: redisDB})
			defer client.Close()
			if err := client.Ping(cmd.Context()).Err(); err != nil {
				return fmt.Errorf("failed to connect to redis: %w", err)
			}
		}

		manager := session.NewManager(func(ctx context.Context, id string) (*formwork.Form, error) {
			opts := []formwork.Option{
				formwork.WithLogger(logger.With("session_id", id)),
				formwork.WithHooks(metrics.Hooks()),
				formwork.WithHooks(streams.Hooks(id)),
				formwork.WithHooks(observability.LogHooks(logger.With("session_id", id))),
			}
			var cache ports.RecoveryCache = memory.NewCache()
			if client != nil {
				cache = redisAdapter.NewFromClient(client,
					redisAdapter.WithPrefix("formwork:recovery:"+id+":"),
					redisAdapter.WithTTL(ttl),
				)
			}
			opts = append(opts, formwork.WithRecoveryCache(middleware.Chain(cache, mws...)))
			return def.NewForm(ctx, opts...)
		}, session.WithLogger(logger))

		handler := httpAdapter.NewHandler(manager,
			httpAdapter.WithStreams(streams),
			httpAdapter.WithMetrics(reg),
			httpAdapter.WithLogger(logger),
		)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			tui.PrintBanner(cmd.ErrOrStderr(), strings.TrimSpace(formwork.Version))
			logger.Info("starting formwork server", "addr", srv.Addr, "definition", args[0], "fields", len(def.Fields))
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// Asking listener to shut down and shed load.
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "timeout", 5*time.Second, "error", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("formwork server stopped gracefully")
		}
		return nil
	},
}

// recoveryMiddlewares builds the wrappers of the recovery cache: redaction of
// the fields matching redact, then encryption when key is set.
func recoveryMiddlewares(key string, redact []string) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(redact) > 0 {
		mw, err := middleware.NewPIIMiddleware(redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if key != "" {
		raw, err := base64.StdEncoding.DecodeString(key)
		if err != nil {
			return nil, fmt.Errorf("recovery key is not base64: %w", err)
		}
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: raw})
		if err != nil {
			return nil, fmt.Errorf("recovery key: %w", err)
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis-addr", "", "Redis address for parking detached fields (in-memory when empty)")
	serveCmd.Flags().String("redis-password", "", "Redis password")
	serveCmd.Flags().Int("redis-db", 0, "Redis database")
	serveCmd.Flags().Duration("recovery-ttl", 24*time.Hour, "How long detached fields stay recoverable in Redis")
	serveCmd.Flags().String("recovery-key", os.Getenv("FORMWORK_RECOVERY_KEY"), "Base64 AES-256 key sealing detached fields (env FORMWORK_RECOVERY_KEY)")
	serveCmd.Flags().StringSlice("redact", nil, "Patterns of field names parked without their value")
}
