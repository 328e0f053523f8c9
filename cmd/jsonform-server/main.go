package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/goliatone/go-jsonform"
	"github.com/goliatone/go-jsonform/internal/config"
	"github.com/goliatone/go-jsonform/internal/httpapi"
	"github.com/goliatone/go-jsonform/internal/logging"
	"github.com/goliatone/go-jsonform/internal/messaging"
	"github.com/goliatone/go-jsonform/internal/metrics"
	"github.com/goliatone/go-jsonform/pkg/codec"
	"github.com/goliatone/go-jsonform/pkg/definition"
	"github.com/goliatone/go-jsonform/pkg/formcache"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file (optional)")
	strict := flag.Bool("strict", false, "reject submissions missing rendered fields")
	consume := flag.Bool("consume", false, "delete a snapshot once its submission is accepted")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.Logger.Config())
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *strict, *consume); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, strict, consume bool) error {
	store, closeStore, err := openStore(ctx, cfg.Cache, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	registry, err := loadRegistry(cfg.Forms.Path, logger)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector("jsonform", reg)

	forms, err := jsonform.New(store,
		jsonform.WithRegistry(registry),
		jsonform.WithCacheOptions(
			formcache.WithTTL(cfg.Cache.TTL),
			formcache.WithPrefix(cfg.Cache.Prefix),
			formcache.WithObserver(collector),
		),
		jsonform.WithCodecOptions(
			codec.WithLogger(logger.Named("codec")),
			codec.WithSanitizer(codec.TextPolicy()),
			codec.WithObserver(collector),
			codec.WithStrictKeys(strict),
			codec.WithConsumeOnSuccess(consume),
		),
	)
	if err != nil {
		return err
	}

	gin.SetMode(cfg.HTTP.Mode)
	srv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: httpapi.NewRouter(forms,
			httpapi.WithLogger(logger.Named("http")),
			httpapi.WithMetrics(reg),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.HTTP.Addr),
			zap.String("cache", cfg.Cache.Backend),
			zap.Strings("forms", registry.List()),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// loadRegistry registers the built-in messaging forms plus every declaration
// file under path.
func loadRegistry(path string, logger *zap.Logger) (*definition.Registry, error) {
	registry := definition.NewRegistry()
	if err := registry.RegisterAll(messaging.ChannelForm, messaging.SubscriptionForm); err != nil {
		return nil, err
	}
	if path == "" {
		return registry, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Warn("forms directory not found", zap.String("path", path))
		return registry, nil
	}
	defs, err := definition.LoadFS(os.DirFS(path))
	if err != nil {
		return nil, err
	}
	if err := registry.RegisterAll(defs...); err != nil {
		return nil, err
	}
	return registry, nil
}
