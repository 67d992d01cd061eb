// Команда embedder запускает HTTP-сервис генерации embed-кода для публикаций.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/InQaaaaGit/tweet_embed/internal/app"
	"github.com/InQaaaaGit/tweet_embed/internal/buildinfo"
	"github.com/InQaaaaGit/tweet_embed/internal/config"
	"github.com/InQaaaaGit/tweet_embed/internal/server"
	"go.uber.org/zap"
)

func main() {
	logger, cleanup := server.InitLogger()
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// run собирает приложение и обслуживает запросы до отмены ctx
func run(ctx context.Context, args []string, logger *zap.Logger) error {
	cfg, err := config.Parse(args)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger.Info("Starting embedder", zap.Stringer("build", buildinfo.Current()))

	application, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("error creating application: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error("Error closing storage", zap.Error(err))
		}
	}()

	return server.NewHTTPServer(application.GetServer(), cfg, logger).Run(ctx)
}
