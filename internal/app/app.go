// Package app содержит основную структуру приложения и логику инициализации.
// Собирает хранилище, кэш, клиент oEmbed, генератор и сервис, настраивает маршруты и middleware.
package app

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/InQaaaaGit/tweet_embed/internal/batch"
	"github.com/InQaaaaGit/tweet_embed/internal/buildinfo"
	"github.com/InQaaaaGit/tweet_embed/internal/cache"
	"github.com/InQaaaaGit/tweet_embed/internal/config"
	"github.com/InQaaaaGit/tweet_embed/internal/embed"
	"github.com/InQaaaaGit/tweet_embed/internal/fetcher"
	"github.com/InQaaaaGit/tweet_embed/internal/handler"
	"github.com/InQaaaaGit/tweet_embed/internal/middleware"
	"github.com/InQaaaaGit/tweet_embed/internal/oembed"
	"github.com/InQaaaaGit/tweet_embed/internal/service"
	"github.com/InQaaaaGit/tweet_embed/internal/storage"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App представляет сервис генерации embed-кода.
// Инкапсулирует конфигурацию, HTTP роутер, логгер, обработчики и хранилище кэша.
type App struct {
	config  *config.Config   // Конфигурация приложения
	router  *chi.Mux         // HTTP роутер для обработки запросов
	logger  *zap.Logger      // Логгер для записи событий приложения
	handler *handler.Handler // Обработчики HTTP запросов
	deps    *Deps            // Сервис и хранилище
}

// Deps - собранные зависимости сервиса. Их использует и HTTP-сервер, и CLI.
type Deps struct {
	Storage storage.KVStorage
	Cache   *cache.OEmbedCache
	Service *service.EmbedService
}

// Close закрывает хранилище кэша
func (d *Deps) Close() error {
	return d.Storage.Close()
}

// BuildDeps создает хранилище, загружает из него кэш и собирает сервис.
// client может быть nil - тогда используется fetcher.NewHTTPClient.
func BuildDeps(ctx context.Context, cfg *config.Config, client *http.Client, logger *zap.Logger) (*Deps, error) {
	store, err := storage.NewStorage(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("error creating storage: %w", err)
	}

	var oembedCache *cache.OEmbedCache
	if cfg.CacheEnabled {
		oembedCache = cache.New(store, cfg.CacheKey, logger)
		if err := oembedCache.Load(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("error initializing cache: %w", err)
		}
	}

	f := fetcher.NewHTTPFetcher(client, cfg.ProviderRPS, buildinfo.Current().UserAgent(), logger)
	resolver := oembed.NewClient(f, oembedCache, cfg.OEmbedEndpoint, cfg.FetchTimeout, logger)
	generator := embed.NewGenerator()
	runner := batch.NewRunner(resolver, generator, cfg.BatchDelay, logger)

	return &Deps{
		Storage: store,
		Cache:   oembedCache,
		Service: service.NewEmbedService(cfg, resolver, generator, runner, store, logger),
	}, nil
}

// NewApp создает и инициализирует новый экземпляр приложения.
//
// Параметры:
//   - ctx: контекст загрузки кэша
//   - cfg: конфигурация приложения
//   - logger: логгер приложения
//
// Возвращает указатель на App или ошибку при неудачной инициализации зависимостей.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	deps, err := BuildDeps(ctx, cfg, nil, logger)
	if err != nil {
		return nil, err
	}

	a := &App{
		config:  cfg,
		router:  chi.NewRouter(),
		logger:  logger,
		handler: handler.NewHandler(deps.Service, logger),
		deps:    deps,
	}
	a.setupRoutes()
	return a, nil
}

// setupRoutes регистрирует эндпоинты и глобальные middleware
// (идентификатор запроса, логирование, восстановление после паники, сжатие).
func (a *App) setupRoutes() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.LoggerMiddleware(a.logger))
	a.router.Use(chimiddleware.Recoverer)
	a.router.Use(middleware.GzipMiddleware)

	a.router.Post("/", a.handler.HandleEmbedText)
	a.router.Post("/api/embed", a.handler.HandleEmbed)
	a.router.Post("/api/embed/batch", a.handler.HandleBatch)
	a.router.Post("/api/embed/batch/export", a.handler.HandleBatchExport)
	a.router.Get("/api/oembed", a.handler.HandleOEmbed)
	a.router.Get("/ping", a.handler.HandlePing)
	a.router.Get("/version", a.handler.HandleVersion)

	// Профилирование
	a.router.Mount("/debug/pprof", http.DefaultServeMux)
}

// Router возвращает настроенный роутер
func (a *App) Router() http.Handler {
	return a.router
}

// GetServer создает и возвращает настроенный HTTP сервер.
// Пакетная генерация выполняется внутри запроса, поэтому таймаут записи ответа большой.
func (a *App) GetServer() *http.Server {
	return &http.Server{
		Addr:              a.config.ServerAddress,
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
}

// Close освобождает ресурсы приложения
func (a *App) Close() error {
	return a.deps.Close()
}
