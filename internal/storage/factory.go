package storage

import (
	"fmt"

	"github.com/InQaaaaGit/tweet_embed/internal/config"
	"go.uber.org/zap"
)

// NewStorage создает хранилище, выбранное конфигурацией
func NewStorage(cfg *config.Config, logger *zap.Logger) (KVStorage, error) {
	kind := cfg.StorageKind()
	logger.Info("Initializing cache storage", zap.String("kind", kind))

	switch kind {
	case config.StoragePostgres:
		return NewPostgresStorage(cfg.DatabaseDSN, logger)
	case config.StorageSQLite:
		return NewSQLiteStorage(cfg.SQLitePath, logger)
	case config.StorageFile:
		return NewFileStorage(cfg.FileStoragePath, logger)
	case config.StorageMemory:
		return NewMemoryStorage(logger), nil
	default:
		return nil, fmt.Errorf("unknown storage kind %q", kind)
	}
}
