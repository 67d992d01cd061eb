// Package cache хранит ответы oEmbed по исходному запрошенному идентификатору.
// Весь кэш сериализуется в одну запись хранилища и перезаписывается целиком при каждом изменении.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/InQaaaaGit/tweet_embed/internal/models"
	"github.com/InQaaaaGit/tweet_embed/internal/storage"
	"go.uber.org/zap"
)

// OEmbedCache - кэш ответов oEmbed. Ключ - строка, которую запросил клиент,
// а не канонический URL из ответа, поэтому повторный запрос той же строки
// попадает в кэш, даже если провайдер вернул другой URL.
// Записи не устаревают и живут, пока хранилище не очищено.
type OEmbedCache struct {
	mu      sync.RWMutex
	entries map[string]models.OEmbedResult
	backend storage.KVStorage
	name    string
	logger  *zap.Logger
}

// New создает пустой кэш поверх хранилища backend под записью name
func New(backend storage.KVStorage, name string, logger *zap.Logger) *OEmbedCache {
	return &OEmbedCache{
		entries: make(map[string]models.OEmbedResult),
		backend: backend,
		name:    name,
		logger:  logger,
	}
}

// Load читает кэш из хранилища. Отсутствующая запись означает пустой кэш,
// повреждённая запись пропускается с предупреждением.
func (c *OEmbedCache) Load(ctx context.Context) error {
	raw, err := c.backend.Load(ctx, c.name)
	if err != nil {
		if errors.Is(err, storage.ErrEntryNotFound) {
			c.logger.Info("Cache entry not found, starting empty", zap.String("name", c.name))
			return nil
		}
		return fmt.Errorf("error loading cache: %w", err)
	}

	entries := make(map[string]models.OEmbedResult)
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		c.logger.Warn("Cache entry is corrupt, starting empty", zap.String("name", c.name), zap.Error(err))
		return nil
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()

	c.logger.Info("Cache loaded", zap.String("name", c.name), zap.Int("entries", len(entries)))
	return nil
}

// Get возвращает сохранённый ответ для идентификатора
func (c *OEmbedCache) Get(identifier string) (models.OEmbedResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res, ok := c.entries[identifier]
	return res, ok
}

// Put сохраняет ответ и перезаписывает запись хранилища целиком.
// При ошибке хранилища запись остаётся в памяти до конца жизни процесса.
func (c *OEmbedCache) Put(ctx context.Context, identifier string, res models.OEmbedResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[identifier] = res
	return c.persist(ctx)
}

// Clear удаляет все записи
func (c *OEmbedCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]models.OEmbedResult)
	return c.persist(ctx)
}

// Len возвращает количество записей
func (c *OEmbedCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// persist вызывается под c.mu
func (c *OEmbedCache) persist(ctx context.Context) error {
	data, err := json.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("error marshaling cache: %w", err)
	}
	if err := c.backend.Store(ctx, c.name, string(data)); err != nil {
		return fmt.Errorf("error storing cache: %w", err)
	}
	return nil
}
