package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/antibyte/basic64/pkg/auth"
	"github.com/antibyte/basic64/pkg/configuration"
	"github.com/antibyte/basic64/pkg/logger"
	"github.com/antibyte/basic64/pkg/patch"
	"github.com/antibyte/basic64/pkg/terminal"
	"github.com/antibyte/basic64/pkg/tls"
	"github.com/antibyte/basic64/pkg/virtualfs"

	"github.com/antibyte/basic64/pkg/storage"
)

func main() {
	configPath := "settings.cfg"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	if err := configuration.Initialize(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	db, err := storage.InitDB()
	if err != nil {
		logger.Fatal(logger.AreaDatabase, "database init: %v", err)
	}
	defer db.Close()

	tokens := auth.NewTokenService()
	sessions := auth.NewSessionManager()
	vfs := virtualfs.New(db, sessions.OwnerFor)
	fetcher := patch.NewFetcher()

	handler := terminal.NewHandler(tokens, sessions, vfs, fetcher)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	handler.StartCleanup(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.HandleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "ok %d\n", handler.ClientCount())
	})
	auth.NewHandlers(db, tokens).Register(mux)
	if staticDir := configuration.GetString("Server", "static_dir", ""); staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}

	errCh := make(chan error, 1)
	go func() {
		if tls.Enabled() {
			errCh <- tls.Serve(mux)
			return
		}
		addr := configuration.GetString("Server", "bind_address", ":8080")
		logger.Info(logger.AreaGeneral, "listening on %s", addr)
		server := &http.Server{Addr: addr, Handler: mux, ReadTimeout: 30 * time.Second}
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		logger.Fatal(logger.AreaGeneral, "server: %v", err)
	case <-ctx.Done():
		logger.Info(logger.AreaGeneral, "shutting down")
	}
}
