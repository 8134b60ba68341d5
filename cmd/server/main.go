package main

import (
	"chat-hub/contract"
	"chat-hub/infrastructure/http/server"
	"chat-hub/internal"
	"chat-hub/moderation"
	"chat-hub/repositories"
	"chat-hub/runtime"
	"chat-hub/runtime/workers"
	"chat-hub/services"
	"chat-hub/sink"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const (
	debugPort     = 8081
	debugEndpoint = "/inspect"
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chat hub terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Every defer runs before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	// 2. Moderation dictionary
	var dictionaryFS fs.FS
	if config.CensoredDir != "" {
		dictionaryFS = os.DirFS(config.CensoredDir)
	}
	dictionary, err := moderation.LoadDictionary(dictionaryFS, ".", config.Words()...)
	if err != nil {
		return exitConfig, fmt.Errorf("censored words loading failed: %w", err)
	}
	moderator, err := moderation.NewModerator(dictionary.Words, charReplacement, logger)
	if err != nil {
		return exitConfig, fmt.Errorf("moderator init failed: %w", err)
	}
	logger.Info("Moderation dictionary loaded", "words", len(dictionary.Words), "languages", dictionary.Languages)

	// 3. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if logger.Enabled(ctx, slog.LevelDebug) {
		logger.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d%s", debugPort, debugEndpoint))
		database.StartDebugServer(db, debugPort, debugEndpoint, ChatMapper)
	}

	// 4. Relays
	permanentSinks := []contract.EventSink{sink.NewLogSink(logger)}
	if config.NatsURL != "" {
		conn, err := sink.Connect(config.NatsURL, logger)
		if err != nil {
			return exitRuntime, fmt.Errorf("nats connection failed: %w", err)
		}
		defer conn.Close()
		permanentSinks = append(permanentSinks, sink.NewNatsSink(conn, config.NatsSubjectPrefix, logger))
	}

	// 5. Routing core
	orchestrator, err := runtime.NewOrchestrator(logger, db, workers.NewSupervisor(logger, config.RestartInterval), runtime.OrchestratorConfig{
		BufferSize:        config.BufferSize,
		SinkTimeout:       config.SinkTimeout,
		HeartbeatInterval: config.HeartbeatInterval,
		LimitMessages:     config.LimitMessages,
		Censor:            moderator,
		PermanentSinks:    permanentSinks,
	})
	if err != nil {
		return exitRuntime, fmt.Errorf("orchestrator init failed: %w", err)
	}
	defer func() {
		if err := orchestrator.Close(); err != nil {
			logger.Warn("Releasing sequences failed", "error", err)
		}
	}()

	workersCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()
	go func() {
		logger.Info("Starting orchestrator...")
		orchestrator.Start(workersCtx)
	}()

	// 6. HTTP & WebSocket server
	app := server.NewApp(logger, services.NewChatService(orchestrator), server.Config{
		AllowedOrigins:       config.AllowedOrigins,
		MaxMessageSize:       config.MaxMessageSize,
		RateLimitPerSecond:   config.RateLimitPerSecond,
		RateLimitBurst:       config.RateLimitBurst,
		ConnectionBufferSize: config.ConnectionBufferSize,
	})

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", config.Address(), "at", time.Now().UTC())
		if err := app.Listen(config.Address()); err != nil {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for a signal or a server failure
	wait := gfshutdown.GracefulShutdown(ctx, config.ShutdownTimeout, map[string]gfshutdown.Operation{
		"http": func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server...")
			return app.ShutdownWithContext(ctx)
		},
		"orchestrator": func(_ context.Context) error {
			orchestrator.Stop()
			return nil
		},
	})

	select {
	case err := <-errChan:
		orchestrator.Stop()
		return exitRuntime, err
	case code := <-wait:
		if code != exitOK {
			return exitRuntime, fmt.Errorf("graceful shutdown exited with code %d", code)
		}
	}

	logger.Info("Program stopped cleanly")
	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}

	return options
}

// ChatMapper renders channel documents, channel entries and messages in the debug inspector.
func ChatMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	record := repositories.Inspect(key, val)
	row.Type = record.Kind
	row.Detail = fmt.Sprintf("[%s] %s", record.Channel, record.Detail)
	return row
}
