// Package storage предоставляет хранилища "ключ-значение", в которых сохраняется кэш oEmbed.
// Каждая запись хранится целиком: чтение возвращает значение полностью,
// запись полностью его перезаписывает.
package storage

import (
	"context"
)

// KVStorage интерфейс хранилища именованных записей
type KVStorage interface {
	// Load возвращает значение записи или ErrEntryNotFound
	Load(ctx context.Context, name string) (string, error)

	// Store целиком перезаписывает значение записи
	Store(ctx context.Context, name, value string) error

	// Close освобождает ресурсы хранилища
	Close() error
}

// DatabaseChecker интерфейс для проверки соединения с хранилищем
type DatabaseChecker interface {
	// CheckConnection проверяет соединение с хранилищем
	CheckConnection(ctx context.Context) error
}
