package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// FileStorage реализует KVStorage поверх JSON-файла вида {"имя": "значение"}.
// Каждое изменение перезаписывает файл целиком через временный файл и rename.
type FileStorage struct {
	filePath string
	entries  map[string]string
	mutex    sync.RWMutex
	closed   bool
	logger   *zap.Logger
}

// NewFileStorage создает FileStorage и загружает существующие записи из файла
func NewFileStorage(filePath string, logger *zap.Logger) (*FileStorage, error) {
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating storage dir: %w", err)
		}
	}

	fs := &FileStorage{
		filePath: filePath,
		entries:  make(map[string]string),
		logger:   logger,
	}

	if err := fs.loadFromFile(); err != nil {
		return nil, err
	}

	return fs, nil
}

// loadFromFile читает записи из файла. Отсутствующий или пустой файл - пустое хранилище.
func (fs *FileStorage) loadFromFile() error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error reading file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &fs.entries); err != nil {
		return fmt.Errorf("error decoding storage file %s: %w", fs.filePath, err)
	}

	fs.logger.Info("Storage file loaded", zap.String("path", fs.filePath), zap.Int("entries", len(fs.entries)))
	return nil
}

// Load получает значение записи
func (fs *FileStorage) Load(ctx context.Context, name string) (string, error) {
	fs.mutex.RLock()
	defer fs.mutex.RUnlock()

	if fs.closed {
		return "", ErrStorageClosed
	}

	value, exists := fs.entries[name]
	if !exists {
		return "", ErrEntryNotFound
	}
	return value, nil
}

// Store сохраняет значение записи и перезаписывает файл
func (fs *FileStorage) Store(ctx context.Context, name, value string) error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	if fs.closed {
		return ErrStorageClosed
	}

	previous, existed := fs.entries[name]
	fs.entries[name] = value

	if err := fs.rewriteFile(); err != nil {
		// Возвращаем память в состояние, совпадающее с файлом
		if existed {
			fs.entries[name] = previous
		} else {
			delete(fs.entries, name)
		}
		return fmt.Errorf("error rewriting storage file: %w", err)
	}
	return nil
}

// rewriteFile записывает все записи во временный файл и атомарно подменяет основной
func (fs *FileStorage) rewriteFile() error {
	data, err := json.Marshal(fs.entries)
	if err != nil {
		return fmt.Errorf("error marshaling entries: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fs.filePath), filepath.Base(fs.filePath)+".tmp*")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("error writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("error syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("error closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, fs.filePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("error replacing storage file: %w", err)
	}
	return nil
}

// CheckConnection проверяет, что каталог файла доступен
func (fs *FileStorage) CheckConnection(ctx context.Context) error {
	fs.mutex.RLock()
	defer fs.mutex.RUnlock()

	if fs.closed {
		return ErrStorageClosed
	}
	if _, err := os.Stat(filepath.Dir(fs.filePath)); err != nil {
		return fmt.Errorf("storage dir is not accessible: %w", err)
	}
	return nil
}

// Close закрывает хранилище. Данные уже на диске, дополнительная синхронизация не нужна.
func (fs *FileStorage) Close() error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	fs.closed = true
	return nil
}
