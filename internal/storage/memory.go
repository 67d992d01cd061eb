package storage

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// MemoryStorage реализует KVStorage в памяти процесса. Используется в тестах
// и когда постоянное хранилище не настроено.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[string]string
	closed  bool
	logger  *zap.Logger
}

// NewMemoryStorage создает новый экземпляр MemoryStorage
func NewMemoryStorage(logger *zap.Logger) *MemoryStorage {
	return &MemoryStorage{
		entries: make(map[string]string),
		logger:  logger,
	}
}

// Load получает значение записи
func (ms *MemoryStorage) Load(ctx context.Context, name string) (string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if ms.closed {
		return "", ErrStorageClosed
	}

	value, exists := ms.entries[name]
	if !exists {
		return "", ErrEntryNotFound
	}
	return value, nil
}

// Store сохраняет значение записи
func (ms *MemoryStorage) Store(ctx context.Context, name, value string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.closed {
		return ErrStorageClosed
	}

	ms.entries[name] = value
	ms.logger.Debug("Entry stored in memory", zap.String("name", name), zap.Int("size", len(value)))
	return nil
}

// CheckConnection проверяет доступность хранилища
func (ms *MemoryStorage) CheckConnection(ctx context.Context) error {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if ms.closed {
		return ErrStorageClosed
	}
	return nil
}

// Close помечает хранилище закрытым
func (ms *MemoryStorage) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.closed = true
	return nil
}
