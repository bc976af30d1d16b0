package main

import (
	"context"
	"fmt"
	"github.com/cirruslabs/asyncoss/internal/command"
	"github.com/cirruslabs/asyncoss/internal/logginglevel"
	"github.com/cirruslabs/asyncoss/internal/opentelemetry"
	"go.uber.org/zap"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if !mainImpl() {
		os.Exit(1)
	}
}

func mainImpl() bool {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize logger
	loggerConfig := zap.NewDevelopmentConfig()
	loggerConfig.Level = logginglevel.Level
	loggerConfig.DisableStacktrace = true

	logger, err := loggerConfig.Build()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)

		return false
	}
	defer func() {
		_ = logger.Sync()
	}()

	zap.ReplaceGlobals(logger)

	// Initialize OpenTelemetry
	_, opentelemetryDeinit, err := opentelemetry.Init(ctx)
	if err != nil {
		logger.Sugar().Errorf("failed to initialize OpenTelemetry: %v", err)

		return false
	}
	defer opentelemetryDeinit()

	if err := command.NewRootCommand().ExecuteContext(ctx); err != nil {
		logger.Sugar().Error(err)

		return false
	}

	return true
}
