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
	"gorm.io/gorm"

	"github.com/helmgart/chatsync/backend/internal/config"
	"github.com/helmgart/chatsync/backend/internal/handler"
	"github.com/helmgart/chatsync/backend/internal/hub"
	"github.com/helmgart/chatsync/backend/internal/service/room"
	"github.com/helmgart/chatsync/backend/internal/store"
	"github.com/helmgart/chatsync/backend/pkg/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.L().Debug().Msg("no .env file, using system environment only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.L().Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Init(log.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	// A room with no durable backing still serves connections; its log
	// simply does not survive a restart.
	var db *gorm.DB
	if db, err = store.Open(cfg.Database); err != nil {
		log.L().Warn().Err(err).Msg("durable storage unavailable, rooms will run in-memory only")
		db = nil
	}

	rooms := room.NewManager(db, hub.NewHub())
	router := handler.NewRouter(rooms)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.L().Info().Str("addr", serverCfg.Addr).Msg("chatsync backend listening")
	if err := runServer(ctx, srv); err != nil {
		log.L().Fatal().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
