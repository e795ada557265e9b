package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitbook/internal/config"
	"github.com/mmynk/splitbook/internal/metrics"
	"github.com/mmynk/splitbook/internal/middleware"
	"github.com/mmynk/splitbook/internal/service"
	"github.com/mmynk/splitbook/internal/storage"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Connect API server",
		Long: `Serve the LedgerService Connect API over HTTP/1.1 and h2c, Prometheus
metrics at /metrics, and optionally a static frontend directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			handler, err := newHandler(cfg, store, metrics.New())
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr: cfg.Addr,
				// Wrap with h2c for HTTP/2 without TLS (required for Connect)
				Handler:           h2c.NewHandler(handler, &http2.Server{}),
				ReadHeaderTimeout: 10 * time.Second,
				IdleTimeout:       60 * time.Second,
				MaxHeaderBytes:    1 << 16, // 64KB
			}
			return runServer(ctx, srv)
		},
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().String("static", "", "directory of static frontend files to serve")
	_ = viper.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("static_path", cmd.Flags().Lookup("static"))

	return cmd
}

// newHandler wires the Connect service, metrics endpoint and static files.
func newHandler(cfg *config.Config, store storage.Store, m *metrics.Metrics) (http.Handler, error) {
	mux := http.NewServeMux()

	svc := service.NewLedgerService(store, m)
	path, handler := service.NewLedgerServiceHandler(svc, connect.WithInterceptors(
		middleware.LoggingInterceptor(nil),
		middleware.MetricsInterceptor(m),
	))
	mux.Handle(path, handler)
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.StaticPath != "" {
		static, err := staticHandler(cfg.StaticPath)
		if err != nil {
			return nil, err
		}
		mux.Handle("/", static)
	}

	return middleware.RequestLogger(nil, middleware.CORS(mux)), nil
}

// staticHandler serves files from dir. Unknown paths fall back to
// index.html so client-side routes work.
func staticHandler(dir string) (http.Handler, error) {
	staticDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve static path: %w", err)
	}
	slog.Info("Serving static files", "path", staticDir)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Unknown procedures must not be answered with the frontend.
		if service.IsProcedurePath(r.URL.Path) {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+urlPath))
		if info, err := os.Stat(filePath); err != nil || info.IsDir() {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}

		http.ServeFile(w, r, filePath)
	}), nil
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Connect server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("Server stopped gracefully")
	return nil
}
