// Package main is the board server and its maintenance commands.
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
	"time"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/humzaiqbal/trash-tracker/internal/auth"
	"github.com/humzaiqbal/trash-tracker/internal/config"
	"github.com/humzaiqbal/trash-tracker/internal/metrics"
	"github.com/humzaiqbal/trash-tracker/internal/middleware"
	"github.com/humzaiqbal/trash-tracker/internal/roster"
	"github.com/humzaiqbal/trash-tracker/internal/service"
	"github.com/humzaiqbal/trash-tracker/internal/storage"
	"github.com/humzaiqbal/trash-tracker/internal/storage/redisstore"
	"github.com/humzaiqbal/trash-tracker/internal/storage/sqlite"
	"github.com/humzaiqbal/trash-tracker/internal/syncer"
	"github.com/humzaiqbal/trash-tracker/pkg/api/boardconnect"
	"github.com/humzaiqbal/trash-tracker/pkg/logging"
)

const (
	Version = "0.1.0"
	appName = "trash-tracker"

	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the flags shared by every subcommand. Empty flags fall back
// to the environment.
type options struct {
	cfg config.Config

	backend  string
	dbPath   string
	redisURL string
	catalog  string
	logLevel string
}

func (o *options) resolve() config.Config {
	cfg := o.cfg
	if o.backend != "" {
		cfg.StoreBackend = o.backend
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	if o.redisURL != "" {
		cfg.RedisURL = o.redisURL
	}
	if o.catalog != "" {
		cfg.CatalogPath = o.catalog
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg
}

func rootCmd() *cobra.Command {
	opts := &options{cfg: config.Load()}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Volunteer route sign-up board",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := opts.resolve()
			logging.Setup(cfg.LogLevel, cfg.LogFormat)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.backend, "store", "", "Store backend: sqlite or redis (env STORE_BACKEND)")
	flags.StringVar(&opts.dbPath, "db", "", "SQLite database path (env DB_PATH)")
	flags.StringVar(&opts.redisURL, "redis-url", "", "Redis URL (env REDIS_URL)")
	flags.StringVar(&opts.catalog, "catalog", "", "Route catalog YAML (env ROUTE_CATALOG)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (env LOG_LEVEL)")

	cmd.AddCommand(
		serveCmd(opts),
		dumpCmd(opts),
		repairCmd(opts),
		syncRoutesCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

func serveCmd(opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the board server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.resolve()
			if addr != "" {
				cfg.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (env API_ADDR)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	m := metrics.New()
	sync := syncer.New(store, catalog, syncer.WithMetrics(m))
	if _, err := sync.InitializeIfAbsent(ctx); err != nil {
		return fmt.Errorf("seed routes: %w", err)
	}

	tokens := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL)
	svc := service.NewBoardService(sync, roster.NewMutator(cfg.AdminEmails), tokens, m)

	mux := http.NewServeMux()
	path, handler := boardconnect.NewBoardServiceHandler(svc,
		connect.WithInterceptors(middleware.NewIdentify(tokens), middleware.LoggingInterceptor()),
	)
	mux.Handle(path, handler)
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			slog.Warn("Health check failed", "error", err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Wrap with h2c for HTTP/2 without TLS (required for Connect streaming)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h2c.NewHandler(corsMiddleware(mux), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Connect server starting", "address", cfg.Addr, "store", cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return sync.RunRepairLoop(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(cfg config.Config) (storage.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		slog.Info("Storage initialized", "backend", cfg.StoreBackend, "database", cfg.DBPath)
		return store, nil
	case config.BackendRedis:
		store, err := redisstore.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		slog.Info("Storage initialized", "backend", cfg.StoreBackend)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
