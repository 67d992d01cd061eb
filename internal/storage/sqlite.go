package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Регистрирует драйвер sqlite
)

// SQLiteStorage реализует KVStorage во встроенной базе SQLite.
// Подходит для одиночного процесса без отдельного сервера БД.
type SQLiteStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStorage открывает базу по пути path и создаёт таблицу kv_store
func NewSQLiteStorage(path string, logger *zap.Logger) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open error: %w", err)
	}
	// SQLite не допускает параллельных писателей
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	for _, stmt := range []string{
		`PRAGMA journal_mode=WAL`,
		`CREATE TABLE IF NOT EXISTS kv_store (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
		)`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			if closeErr := db.Close(); closeErr != nil {
				logger.Error("Failed to close sqlite after init error", zap.Error(closeErr))
			}
			return nil, fmt.Errorf("sqlite init error: %w", err)
		}
	}

	return &SQLiteStorage{
		db:     db,
		logger: logger,
	}, nil
}

// Load получает значение записи
func (ss *SQLiteStorage) Load(ctx context.Context, name string) (string, error) {
	var value string
	err := ss.db.QueryRowContext(ctx, "SELECT value FROM kv_store WHERE name = ?", name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrEntryNotFound
		}
		return "", fmt.Errorf("load entry error: %w", err)
	}
	return value, nil
}

// Store вставляет или целиком заменяет значение записи
func (ss *SQLiteStorage) Store(ctx context.Context, name, value string) error {
	_, err := ss.db.ExecContext(ctx,
		`INSERT INTO kv_store (name, value) VALUES (?, ?) `+
			`ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = strftime('%s','now')`,
		name, value)
	if err != nil {
		return fmt.Errorf("store entry error: %w", err)
	}
	return nil
}

// Close закрывает базу
func (ss *SQLiteStorage) Close() error {
	return ss.db.Close()
}

// CheckConnection проверяет доступность базы
func (ss *SQLiteStorage) CheckConnection(ctx context.Context) error {
	return ss.db.PingContext(ctx)
}
