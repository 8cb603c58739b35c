// main.go
//
// Secret Hand Showdown table server.
//
// Startup order:
//   - .env (development), typed config, log level
//   - history database and migrations
//   - table store, HTTP server
//   - background loops: idle-table reaper, challenge sweeper
//
// SIGINT/SIGTERM drains HTTP and stops every table scheduler.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/cosmosStaker/secret-hand-showdown/assets"
	"github.com/cosmosStaker/secret-hand-showdown/internal/config"
	"github.com/cosmosStaker/secret-hand-showdown/internal/history"
	"github.com/cosmosStaker/secret-hand-showdown/internal/httpserver"
	"github.com/cosmosStaker/secret-hand-showdown/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Production() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	for _, w := range cfg.Warnings() {
		log.Warn().Msg(w)
	}

	db, err := history.OpenDB(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("open database")
	}
	defer db.Close()
	if err := history.Migrate(db, assets.Migrations); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tables := store.NewMemoryStore()
	srv := httpserver.New(ctx, cfg, tables, history.New(db))
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Int64("chain", cfg.Network.ChainID).Msg("starting table server")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return store.RunReaper(gctx, tables, cfg.IdleTimeout, cfg.ReapInterval) })
	g.Go(func() error { return srv.SweepChallenges(gctx, cfg.ChallengeTTL) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := httpSrv.Shutdown(shutdownCtx)
		store.StopAll(shutdownCtx, tables)
		log.Info().Msg("table server stopped")
		return err
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
