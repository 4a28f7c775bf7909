package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/questworld/questbot/internal/config"
	"github.com/questworld/questbot/internal/handler"
	"github.com/questworld/questbot/internal/model/quest"
	"github.com/questworld/questbot/internal/service/forward"
	"github.com/questworld/questbot/internal/service/telegram"
	"github.com/questworld/questbot/internal/service/tracker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	sessionStore := quest.NewMemoryStore()

	socketIO, err := forward.NewSocketIO(cfg.Realtime.ServerURL, cfg.Bot.DisplayField, cfg.Realtime.ForwardTimeout)
	if err != nil {
		log.Fatalf("failed to initialize realtime forwarder: %v", err)
	}
	forwarder := forward.NewAsync(socketIO, cfg.Realtime.ForwardTimeout)

	chatClient := telegram.NewClient(cfg.Bot.APIBaseURL, cfg.Bot.Token, 30*time.Second)

	trackerSvc := tracker.NewService(sessionStore, forwarder, chatClient, cfg.Bot.MapURL)

	router := handler.NewRouter(trackerSvc, cfg.Bot.DisplayField)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Questworld bot listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
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
