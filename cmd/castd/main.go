package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfdlabs/castd/config"
	"github.com/wfdlabs/castd/core"
	"github.com/wfdlabs/castd/internal/ctlapi"
	"github.com/wfdlabs/castd/internal/logging"
	"github.com/wfdlabs/castd/internal/observability"
	"github.com/wfdlabs/castd/internal/session"
	"github.com/wfdlabs/castd/internal/wpa"
)

func main() {
	configPath := flag.String("config", "/etc/castd/castd.yaml", "Path to the daemon configuration file")
	flag.Parse()

	ctx := context.Background()
	bootLog := logging.NewFromEnv()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog.Error(ctx, "failed to load configuration",
			logging.String("path", *configPath),
			logging.String("error", err.Error()))
		os.Exit(1)
	}
	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	collector, err := observability.NewCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}
	metricsSrv := serveMetrics(cfg.MetricsAddr, collector, log)

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}

	mgr, err := core.NewManager(
		core.Config{FriendlyName: cfg.FriendlyName, CtrlDir: cfg.CtrlDir},
		&wpa.Dialer{Log: log},
		&session.Factory{Log: log},
		log,
		core.WithMetricsRecorder(collector),
	)
	if err != nil {
		log.Error(ctx, "failed to create link manager", logging.String("error", err.Error()))
		os.Exit(1)
	}

	for _, entry := range cfg.Links {
		kind, _ := core.KindFromString(entry.Kind)
		if _, err := mgr.CreateLink(ctx, kind, entry.Interface); err != nil {
			// A missing control socket at boot is common (interface
			// down, supplicant not started); keep going with the
			// links that do come up.
			log.Warn(ctx, "failed to create configured link",
				logging.String("kind", entry.Kind),
				logging.String("interface", entry.Interface),
				logging.String("error", err.Error()))
		}
	}

	api := ctlapi.NewServer(mgr, log, collector)
	apiSrv := &http.Server{Addr: cfg.APIAddr, Handler: api.Router()}
	go func() {
		log.Info(ctx, "control API listening", logging.String("addr", cfg.APIAddr))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "control API server exited", logging.String("error", err.Error()))
		}
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-stopCtx.Done()

	log.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	mgr.Close(ctx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	observability.ShutdownWithTimeout(ctx, shutdownTracing, log)
}

func serveMetrics(addr string, collector *observability.Collector, log logging.Logger) *http.Server {
	if collector == nil || addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Info(context.Background(), "metrics listening", logging.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()
	return srv
}
