/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the bank API server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse flags
  2. Configure logging
  3. Initialize SQLite store
  4. Create token service and API handler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: bankapp.db)
           Use ":memory:" for an in-memory database

ENVIRONMENT:
  JWT_SECRET   Token signing secret (dev fallback if unset)
  TOKEN_TTL    Token lifetime as a Go duration (default: 1h)
  LOG_LEVEL    logrus level (default: info)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/raghav352/bankapp/api"
	"github.com/raghav352/bankapp/auth"
	"github.com/raghav352/bankapp/store/sqlite"
)

const devSecret = "dev_secret_change_me"

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "bankapp.db", "SQLite database path")
	flag.Parse()

	log := setupLogging()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = devSecret
		log.Warn("JWT_SECRET not set, using development secret")
	}

	ttl := time.Hour
	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			log.WithError(err).Fatal("invalid TOKEN_TTL")
		}
		ttl = parsed
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	tokens := auth.NewService([]byte(secret), ttl)
	handler := api.NewHandler(store, tokens, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server stopped")
}

func setupLogging() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
