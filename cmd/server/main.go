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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/AngelCh415/PPC_GO/internal/analysis"
	"github.com/AngelCh415/PPC_GO/internal/config"
	"github.com/AngelCh415/PPC_GO/internal/httpx"
	"github.com/AngelCh415/PPC_GO/internal/ingest"
	"github.com/AngelCh415/PPC_GO/internal/metrics"
	"github.com/AngelCh415/PPC_GO/internal/store"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("config error", slog.String("err", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := metrics.NewCollectors(reg)

	cl := ingest.NewHTTPClient(cfg.HTTPTimeout)
	st := store.NewMemoryStore()

	r := httpx.NewRouter(httpx.Deps{
		Log:         logger,
		Store:       st,
		Loader:      ingest.NewLoader(cl, st, logger, cfg),
		Analysis:    analysis.NewService(st, logger, prom, cfg.Settings),
		Metrics:     metrics.NewService(st),
		Gatherer:    reg,
		CORSOrigins: cfg.CORSOrigins,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go expireSets(ctx, st, cfg.SetTTL, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("starting server", slog.String("port", cfg.Port), slog.Any("settings", cfg.Settings))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

// expireSets drops analysis sets older than ttl.
func expireSets(ctx context.Context, st *store.MemoryStore, ttl time.Duration, log *slog.Logger) {
	if ttl <= 0 {
		return
	}
	t := time.NewTicker(min(ttl, time.Hour))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			for _, id := range st.Sets(now.Add(-ttl)) {
				if err := st.DeleteSet(id); err == nil {
					log.Info("set expired", slog.String("set", id))
				}
			}
		}
	}
}
