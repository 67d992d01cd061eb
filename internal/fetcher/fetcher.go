// Package fetcher выполняет одиночные запросы к внешнему oEmbed API.
// Запрос выполняется на стороне сервера, поэтому ограничения CORS браузера
// не действуют и обходить их через JSONP не нужно.
package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxBodySize ограничивает размер ответа провайдера
const maxBodySize = 1 << 20

// ErrBodyTooLarge возвращается, если ответ превышает maxBodySize
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError описывает ответ с неуспешным HTTP-статусом
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// Fetcher выполняет один GET-запрос и возвращает тело ответа.
// Запрос должен завершиться до отмены ctx.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, query url.Values) ([]byte, error)
}

// HTTPFetcher реализует Fetcher поверх net/http
type HTTPFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    *zap.Logger
}

// NewHTTPClient создает HTTP клиент для обращений к провайдеру.
// Общий таймаут не задаётся: срок запроса определяет контекст вызова.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     30 * time.Second,
		},
	}
}

// NewHTTPFetcher создает HTTPFetcher. При rps > 0 все исходящие запросы
// процесса ограничиваются этой частотой.
func NewHTTPFetcher(client *http.Client, rps float64, userAgent string, logger *zap.Logger) *HTTPFetcher {
	if client == nil {
		client = NewHTTPClient()
	}

	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	return &HTTPFetcher{
		client:    client,
		limiter:   limiter,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Fetch выполняет GET endpoint с параметрами query. Параметры query
// перекрывают одноимённые параметры, уже присутствующие в endpoint.
func (f *HTTPFetcher) Fetch(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	target, err := BuildURL(endpoint, query)
	if err != nil {
		return nil, err
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	f.logger.Debug("Provider responded",
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: target}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, ErrBodyTooLarge
	}
	return body, nil
}

// BuildURL добавляет параметры query к адресу endpoint
func BuildURL(endpoint string, query url.Values) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}

	merged := u.Query()
	for key, values := range query {
		merged[key] = values
	}
	u.RawQuery = merged.Encode()
	return u.String(), nil
}
