// main package for the voicepro-service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/logger"
	"golang.org/x/sync/errgroup"

	"github.com/book-expert/voicepro-service/internal/config"
	"github.com/book-expert/voicepro-service/internal/dispatch"
	"github.com/book-expert/voicepro-service/internal/engine"
	"github.com/book-expert/voicepro-service/internal/manager"
	"github.com/book-expert/voicepro-service/internal/server"
	"github.com/book-expert/voicepro-service/internal/stdio"
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "voicepro-service.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	return serve(cfg, finalLog)
}

// serve wires the stores, manager, engine client, and dispatcher together and
// runs both transports until shutdown.
func serve(cfg *config.Config, log *logger.Logger) error {
	appDir, err := cfg.Paths.ResolveAppDataDir()
	if err != nil {
		return err
	}

	projectManager, err := manager.New(appDir, log)
	if err != nil {
		return fmt.Errorf("failed to initialize project manager: %w", err)
	}

	engineClient := engine.NewClient(cfg.Engine.GetServiceURL(), cfg.Engine.GetTimeout())
	dispatcher := dispatch.New(projectManager, engineClient, log)

	httpServer := server.New(dispatcher, cfg.Server.AllowedOrigins, log)
	lineLoop := stdio.New(dispatcher, os.Stdin, os.Stdout, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.System("VoicePro service initialized. App dir: %s, HTTP: %s, engine: %s",
		appDir, cfg.Server.GetListenAddr(), cfg.Engine.GetServiceURL())

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return httpServer.Run(groupCtx, cfg.Server.GetListenAddr())
	})

	group.Go(func() error {
		runErr := lineLoop.Run(groupCtx)
		// Stdin EOF means the host application closed the pipe; shut the
		// HTTP transport down as well.
		stop()

		return runErr
	})

	waitErr := group.Wait()
	if waitErr != nil {
		return fmt.Errorf("service terminated with error: %w", waitErr)
	}

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
