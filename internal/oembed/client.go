// Package oembed получает метаданные oEmbed для URL публикации,
// используя кэш и ограничение времени ожидания ответа провайдера.
package oembed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/InQaaaaGit/tweet_embed/internal/cache"
	"github.com/InQaaaaGit/tweet_embed/internal/fetcher"
	"github.com/InQaaaaGit/tweet_embed/internal/models"
	"go.uber.org/zap"
)

var (
	// ErrFetchTimeoutOrError - провайдер не ответил вовремя или запрос завершился ошибкой транспорта
	ErrFetchTimeoutOrError = errors.New("fetch timeout or error")
	// ErrProviderError - ответ получен, но в нём нет разметки
	ErrProviderError = errors.New("provider response has no markup")
	// ErrInvalidInput - пустой или некорректный URL
	ErrInvalidInput = errors.New("invalid input")
)

// Resolver получает метаданные oEmbed для идентификатора публикации
type Resolver interface {
	Resolve(ctx context.Context, identifier string, params models.OEmbedParams, useCache bool) (models.OEmbedResult, error)
}

// Client реализует Resolver: кэш, затем ровно один запрос к провайдеру без повторов
type Client struct {
	fetcher  fetcher.Fetcher
	cache    *cache.OEmbedCache
	endpoint string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewClient создает клиент. cache может быть nil - тогда ответы не кэшируются.
func NewClient(f fetcher.Fetcher, c *cache.OEmbedCache, endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		fetcher:  f,
		cache:    c,
		endpoint: endpoint,
		timeout:  timeout,
		logger:   logger,
	}
}

// Resolve возвращает метаданные для identifier.
//
// При useCache найденная в кэше запись возвращается без обращения к сети.
// Иначе выполняется один запрос, который должен завершиться за c.timeout,
// в противном случае возвращается ErrFetchTimeoutOrError. Ответ с разметкой
// сохраняется в кэш под identifier; ответ без разметки возвращается как есть
// и в кэш не попадает.
func (c *Client) Resolve(ctx context.Context, identifier string, params models.OEmbedParams, useCache bool) (models.OEmbedResult, error) {
	if useCache && c.cache != nil {
		if res, ok := c.cache.Get(identifier); ok {
			c.logger.Debug("oEmbed cache hit", zap.String("identifier", identifier))
			return res, nil
		}
	}

	params.URL = identifier

	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := c.fetcher.Fetch(fetchCtx, c.endpoint, params.Values())
	if err != nil {
		c.logger.Warn("oEmbed fetch failed", zap.String("identifier", identifier), zap.Error(err))
		return models.OEmbedResult{}, fmt.Errorf("%w: %w", ErrFetchTimeoutOrError, err)
	}

	var res models.OEmbedResult
	if err := json.Unmarshal(body, &res); err != nil {
		c.logger.Warn("oEmbed response is not valid JSON", zap.String("identifier", identifier), zap.Error(err))
		return models.OEmbedResult{}, fmt.Errorf("%w: decoding response: %w", ErrFetchTimeoutOrError, err)
	}

	if res.HasMarkup() && c.cache != nil {
		if err := c.cache.Put(ctx, identifier, res); err != nil {
			c.logger.Error("Error persisting oEmbed cache", zap.String("identifier", identifier), zap.Error(err))
		}
	}

	return res, nil
}

// ValidateIdentifier проверяет, что строка - числовой ID публикации или
// абсолютный http(s) URL, и возвращает её без пробелов по краям.
func ValidateIdentifier(raw string) (string, error) {
	identifier := strings.TrimSpace(raw)
	if identifier == "" {
		return "", fmt.Errorf("%w: empty URL", ErrInvalidInput)
	}
	if isNumeric(identifier) {
		return identifier, nil
	}

	u, err := url.ParseRequestURI(identifier)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a URL", ErrInvalidInput, identifier)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q must be an absolute http(s) URL", ErrInvalidInput, identifier)
	}
	return identifier, nil
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// RequireMarkup возвращает ErrProviderError, если в ответе нет разметки
func RequireMarkup(res models.OEmbedResult) error {
	if !res.HasMarkup() {
		return ErrProviderError
	}
	return nil
}
