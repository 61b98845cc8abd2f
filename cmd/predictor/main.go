package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/utakatalp/match-predictor/internal/api"
	"github.com/utakatalp/match-predictor/internal/artifacts"
	"github.com/utakatalp/match-predictor/internal/config"
	"github.com/utakatalp/match-predictor/internal/cronrunner"
	"github.com/utakatalp/match-predictor/internal/features"
	"github.com/utakatalp/match-predictor/internal/logger"
	"github.com/utakatalp/match-predictor/internal/predict"
)

func main() {
	cfg, err := config.Load(os.Getenv("MP_CONFIG"))
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.Log, "predictor")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	paths := artifacts.Paths{Dir: cfg.Artifacts.Dir}
	svc, err := predict.Open(paths, log)
	if err != nil {
		var cm *features.ContractMismatchError
		if errors.As(err, &cm) {
			log.Fatal("model does not match the feature schema, refusing to serve",
				zap.String("schema_version", features.SchemaVersion),
				zap.Error(err))
		}
		var stale *artifacts.StaleModelError
		if errors.As(err, &stale) {
			log.Fatal("model.json was trained on other team stats, run train first",
				zap.String("dir", paths.Dir),
				zap.Error(err))
		}
		log.Fatal("loading artifacts failed", zap.String("dir", paths.Dir), zap.Error(err))
	}
	meta := svc.ModelInfo()
	log.Info("snapshot loaded",
		zap.Int("teams", len(svc.Teams())),
		zap.String("model_type", meta.ModelType),
		zap.Float64("accuracy", meta.Accuracy))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reload := func() error { return svc.ReloadFrom(paths) }

	if cfg.Reload.Enabled {
		runner := cronrunner.New(log, ctx)
		if _, err := runner.AddReload(cfg.Reload.Schedule, reload); err != nil {
			log.Fatal("bad reload schedule", zap.String("schedule", cfg.Reload.Schedule), zap.Error(err))
		}
		runner.Start()
		defer runner.Stop()
	}

	if cfg.Reload.Watch {
		go func() {
			if err := svc.Watch(ctx, paths, cfg.Reload.Debounce); err != nil {
				log.Error("artifact watcher stopped", zap.Error(err))
			}
		}()
	}

	handler := api.NewHandler(svc, reload, log).WithRateLimit(cfg.Server.PredictRPS, cfg.Server.PredictBurst)
	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("http listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown failed", zap.Error(err))
	}
	log.Info("predictor stopped")
}
