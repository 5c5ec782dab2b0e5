package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chesstutor/config"
	"chesstutor/server"
	"chesstutor/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("failed to load config")
	}
	log := config.NewLogger(cfg.Logs, os.Stderr)
	if cfg.Logs.Level > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := storage.Open(cfg.DataDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer store.Close()

	srv := server.New(store, server.Options{
		Difficulty:     cfg.Game.Difficulty,
		Tables:         cfg.Game.Tables,
		ThinkDelay:     cfg.Game.ThinkDelay,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         log,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().
			Str("addr", cfg.Addr).
			Str("difficulty", cfg.Game.Difficulty.String()).
			Str("tables", cfg.Game.Tables.Name).
			Bool("persistent", cfg.DataDir != "").
			Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
