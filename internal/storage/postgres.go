package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq" // Регистрирует драйвер postgres
	"go.uber.org/zap"
)

// PostgresStorage реализует KVStorage с использованием PostgreSQL
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStorage подключается к базе и создаёт таблицу kv_store, если её нет
func NewPostgresStorage(dsn string, logger *zap.Logger) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("database connection error: %w", err)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("Failed to close DB connection after ping error", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("database connection check error: %w", err)
	}

	createTableSQL := `CREATE TABLE IF NOT EXISTS kv_store (` +
		`name VARCHAR(255) PRIMARY KEY,` +
		`value TEXT NOT NULL,` +
		`updated_at TIMESTAMPTZ NOT NULL DEFAULT now()` +
		`)`
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("Failed to close DB connection after table creation error", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("table creation error: %w", err)
	}

	return &PostgresStorage{
		db:     db,
		logger: logger,
	}, nil
}

// Load получает значение записи
func (ps *PostgresStorage) Load(ctx context.Context, name string) (string, error) {
	var value string
	err := ps.db.QueryRowContext(ctx, "SELECT value FROM kv_store WHERE name = $1", name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrEntryNotFound
		}
		return "", fmt.Errorf("load entry error: %w", err)
	}
	return value, nil
}

// Store вставляет или целиком заменяет значение записи
func (ps *PostgresStorage) Store(ctx context.Context, name, value string) error {
	_, err := ps.db.ExecContext(ctx,
		`INSERT INTO kv_store (name, value, updated_at) VALUES ($1, $2, now()) `+
			`ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		name, value)
	if err != nil {
		return fmt.Errorf("store entry error: %w", err)
	}
	return nil
}

// Close закрывает соединение с базой данных
func (ps *PostgresStorage) Close() error {
	return ps.db.Close()
}

// CheckConnection проверяет соединение с базой данных
func (ps *PostgresStorage) CheckConnection(ctx context.Context) error {
	return ps.db.PingContext(ctx)
}
