package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/api"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/calculation"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/rules"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the calculation API with hot-reloaded rules",
	Long: `Serve the calculation API over HTTP. The rules directory is watched and
reloaded on change (watch_rules), and SIGHUP forces a reload. A rejected
reload keeps the previous rules live.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); cmd.Flags().Changed("addr") {
			appConfig.ListenAddr = addr
		}
		logger := newLogger(cmd.ErrOrStderr(), appConfig.Debug)
		slog.SetDefault(logger)

		loader, store, err := loadStore(logger)
		if err != nil {
			return err
		}

		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := calculation.NewMetrics(registry)
		metrics.SetEditions(store.Snapshot())

		engine := calculation.NewEngine(store)
		engine.SetLogger(calculation.NewSlogLogger(logger))
		engine.Debug = appConfig.Debug
		engine.Metrics = metrics

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		watcher, err := rules.NewWatcher(rules.WatcherConfig{
			Dir:           appConfig.RulesDir,
			DebounceDelay: appConfig.ReloadDebounce,
			OnReload:      metrics.ObserveReload,
			Logger:        logger,
		}, loader, store)
		if err != nil {
			return err
		}
		defer watcher.Stop()
		if appConfig.WatchRules {
			if err := watcher.Start(ctx); err != nil {
				return err
			}
		}
		go reloadOnHangup(ctx, watcher, logger)

		handler := api.NewHandler(engine, store)
		handler.Workers = appConfig.Workers
		handler.MaxBatchSize = appConfig.MaxBatchSize
		handler.Logger = logger

		server := &http.Server{
			Addr: appConfig.ListenAddr,
			Handler: api.NewRouter(handler, api.RouterOptions{
				CORSOrigins: appConfig.CORSOrigins,
				RateLimit:   appConfig.RateLimit,
				RateBurst:   appConfig.RateBurst,
				Gatherer:    registry,
				RequestLog:  appConfig.Debug,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("Listening", "addr", appConfig.ListenAddr, "rules", appConfig.RulesDir,
				"editions", store.Snapshot().Len(), "watch", appConfig.WatchRules)
			errCh <- server.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

// reloadOnHangup reloads the rules directory on every SIGHUP until ctx is done
func reloadOnHangup(ctx context.Context, watcher *rules.Watcher, logger *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			logger.Info("SIGHUP received, reloading rules")
			watcher.Reload()
		}
	}
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides listen_addr)")
}
