/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leavedesk server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env and the YAML config file
  2. Build the structured logger
  3. Open the SQLite store (migrations applied on open)
  4. Start the notification dispatcher
  5. Wire handlers and the HTTP router
  6. Serve with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Path to the YAML config file (default: config.yaml)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Drain the notification queue
  4. Close the database connection

SEE ALSO:
  - config/config.go: Configuration keys and defaults
  - api/server.go: Router configuration
  - store/sqlite: Database implementation
*/
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subosito/gotenv"

	"github.com/leavedesk/leavedesk/api"
	"github.com/leavedesk/leavedesk/config"
	"github.com/leavedesk/leavedesk/leave"
	"github.com/leavedesk/leavedesk/logging"
	"github.com/leavedesk/leavedesk/notify"
	"github.com/leavedesk/leavedesk/store/sqlite"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	_ = gotenv.Load() // optional .env, environment wins

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(cfg.App.Env)

	store, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to initialize database", "err", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("database ready", "path", cfg.DB.Path)

	mailer := &notify.SMTPMailer{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}
	dispatcher := notify.New(store, mailer, logger, notify.Options{})
	defer dispatcher.Close()

	svc := leave.NewService(store, dispatcher, logger)
	auth := api.NewAuth(cfg.Auth.Secret, time.Duration(cfg.Auth.TTLHours)*time.Hour)

	handler := api.NewHandler(store, svc, auth, dispatcher, logger)
	handler.Pages = api.PageSizes{Requests: cfg.Pages.Requests, Admin: cfg.Pages.Admin}
	handler.Reports = cfg.Reports.Dir
	handler.Operator = cfg.Mail.Operator

	router := api.NewRouter(handler, api.RouterOptions{Metrics: cfg.Metrics.Enabled})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "err", err)
	}

	logger.Info("server stopped")
}
