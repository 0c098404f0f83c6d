package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"chattin/logs"
	"chattin/moderation"
	"chattin/observability"
	"chattin/repositories"
	"chattin/runtime"
	"chattin/search"
	"chattin/server"
	"chattin/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting. Keeping the logic out of main ensures all
// defers (database and index close) execute before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB) and the search index (Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	index, err := search.Open(log, config.BlugeFilepath)
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = index.Close()
	}()

	// 3. Moderation (optional, driven by the censored word list)
	var moderator *moderation.Moderator
	words, err := moderation.LoadWordFile(config.CensoredFilepath)
	if err != nil {
		return fmt.Errorf("censored word list loading failed: %w", err)
	}
	if len(words) > 0 {
		censoredChar, err := CharacterRune(config.CharReplacement)
		if err != nil {
			return err
		}
		if moderator, err = moderation.NewModerator(words, censoredChar); err != nil {
			return fmt.Errorf("moderation setup failed: %w", err)
		}
		log.Info(fmt.Sprintf("%d censored words loaded", len(words)))
	}

	// 4. Core wiring: registry, relay, services
	registry := runtime.NewRegistry()
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)
	userRepository := repositories.NewUserRepository(db)
	relay := runtime.NewRelay(log, registry, messageRepository, index, moderator, config.DeliveryTimeout)

	authService := services.NewAuthService(userRepository, []byte(config.JWTSecret), config.AuthTokenDuration)
	chatService := services.NewChatService(relay, registry, messageRepository, userRepository, index)

	// 5. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Supervised background workers
	monitor, err := observability.NewMonitor(log, config.MetricInterval, func() int {
		return len(registry.Active())
	})
	if err != nil {
		return fmt.Errorf("monitoring setup failed: %w", err)
	}
	sup := runtime.NewSupervisor(log)
	go sup.Add(monitor).Run(ctx)

	// 7. HTTP server
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	srv := &http.Server{
		Addr: address,
		Handler: server.New(log, authService, chatService, relay, registry,
			monitor, []byte(config.JWTSecret), config.ConnectionBufferSize).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting server", "address", address, "at", time.Now().UTC())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// 8. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 9. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Forced shutdown", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
