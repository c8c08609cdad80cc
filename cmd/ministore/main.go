// Command ministore runs the Mini Store backend: the grid resolver, the
// install orchestrator, and the HTTP surface consumed by the storefront UI.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/deliquified/ministore/internal/app"
	"github.com/deliquified/ministore/internal/app/httpapi"
	"github.com/deliquified/ministore/internal/config"
	"github.com/deliquified/ministore/pkg/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("MINISTORE_CONFIG"), "path to config file")
	flag.Parse()

	log := logger.NewDefault("ministore")

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.WithError(err).Error("load configuration")
		os.Exit(1)
	}

	application, err := app.New(cfg, nil, log)
	if err != nil {
		log.WithError(err).Error("build application")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go application.Run(ctx)

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           httpapi.NewHandler(application, log.WithField("component", "httpapi")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("listen", cfg.Listen).Info("http server listening")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server failed")
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http server shutdown")
	}
}
