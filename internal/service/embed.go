// Package service объединяет получение oEmbed, генерацию embed-кода,
// пакетную обработку и выгрузку таблицы в единый сервис.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/InQaaaaGit/tweet_embed/internal/batch"
	"github.com/InQaaaaGit/tweet_embed/internal/config"
	"github.com/InQaaaaGit/tweet_embed/internal/export"
	"github.com/InQaaaaGit/tweet_embed/internal/models"
	"github.com/InQaaaaGit/tweet_embed/internal/oembed"
	"github.com/InQaaaaGit/tweet_embed/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrGenerationInProgress - предыдущая генерация ещё не завершилась
	ErrGenerationInProgress = errors.New("generation already in progress")
	// ErrNothingToExport - в таблице нет ни одной строки
	ErrNothingToExport = errors.New("nothing to export")
)

// BatchRunner выполняет пакетную генерацию
type BatchRunner interface {
	Run(ctx context.Context, urls []string, opts batch.Options) batch.Result
}

// Download - готовый к скачиванию файл
type Download struct {
	FileName string
	MIME     string
	Content  string
}

// EmbedService реализует сценарии генерации embed-кода.
// Одновременно выполняется не больше одной генерации: одиночной или пакетной.
type EmbedService struct {
	resolver      oembed.Resolver
	generator     batch.CodeGenerator
	runner        BatchRunner
	storage       storage.KVStorage
	cacheEnabled  bool
	defaultHeight int
	inFlight      *semaphore.Weighted
	now           func() time.Time
	logger        *zap.Logger
}

// NewEmbedService создает сервис. store используется только для проверки соединения.
func NewEmbedService(
	cfg *config.Config,
	resolver oembed.Resolver,
	generator batch.CodeGenerator,
	runner BatchRunner,
	store storage.KVStorage,
	logger *zap.Logger,
) *EmbedService {
	return &EmbedService{
		resolver:      resolver,
		generator:     generator,
		runner:        runner,
		storage:       store,
		cacheEnabled:  cfg.CacheEnabled,
		defaultHeight: cfg.DefaultHeight,
		inFlight:      semaphore.NewWeighted(1),
		now:           time.Now,
		logger:        logger,
	}
}

// Generate строит embed-код для одного URL.
// Любая ошибка прерывает операцию; причина пишется в лог.
func (s *EmbedService) Generate(ctx context.Context, rawURL string, opts models.Options) (models.EmbedResponse, error) {
	if !s.inFlight.TryAcquire(1) {
		return models.EmbedResponse{}, ErrGenerationInProgress
	}
	defer s.inFlight.Release(1)

	rc, err := opts.RenderConfig(s.defaultHeight)
	if err != nil {
		return models.EmbedResponse{}, fmt.Errorf("%w: %w", oembed.ErrInvalidInput, err)
	}

	code, err := s.generateOne(ctx, rawURL, opts, rc)
	if err != nil {
		s.logger.Error("Error generating embed code", zap.String("url", rawURL), zap.Error(err))
		return models.EmbedResponse{}, err
	}

	return models.EmbedResponse{Code: code, Mode: rc.Mode.String()}, nil
}

func (s *EmbedService) generateOne(ctx context.Context, rawURL string, opts models.Options, rc models.RenderConfig) (string, error) {
	identifier, err := oembed.ValidateIdentifier(rawURL)
	if err != nil {
		return "", err
	}

	res, err := s.resolver.Resolve(ctx, identifier, opts.Params, s.useCache(opts))
	if err != nil {
		return "", err
	}
	if err := oembed.RequireMarkup(res); err != nil {
		return "", err
	}

	return s.generator.Generate(res, rc)
}

// GenerateBatch обрабатывает список URL. Ошибки элементов остаются в Result;
// ошибка возвращается, только если запуск не начался.
func (s *EmbedService) GenerateBatch(ctx context.Context, urls []string, opts models.Options) (batch.Result, error) {
	if !s.inFlight.TryAcquire(1) {
		return batch.Result{}, ErrGenerationInProgress
	}
	defer s.inFlight.Release(1)

	rc, err := opts.RenderConfig(s.defaultHeight)
	if err != nil {
		return batch.Result{}, fmt.Errorf("%w: %w", oembed.ErrInvalidInput, err)
	}

	return s.runner.Run(ctx, urls, batch.Options{
		Params:   opts.Params,
		Render:   rc,
		UseCache: s.useCache(opts),
	}), nil
}

// Export сериализует таблицу результата в CSV или TSV
func (s *EmbedService) Export(result batch.Result, formatName, fileName string) (Download, error) {
	if result.Empty() {
		return Download{}, ErrNothingToExport
	}

	format, err := export.ParseFormat(formatName)
	if err != nil {
		return Download{}, err
	}

	content, err := export.Serialize(result.Table(), format.Delimiter)
	if err != nil {
		return Download{}, err
	}

	return Download{
		FileName: export.FileName(fileName, format, s.now()),
		MIME:     format.MIME,
		Content:  content,
	}, nil
}

// Lookup возвращает ответ провайдера без генерации кода
func (s *EmbedService) Lookup(ctx context.Context, rawURL string, params models.OEmbedParams) (models.OEmbedResult, error) {
	identifier, err := oembed.ValidateIdentifier(rawURL)
	if err != nil {
		return models.OEmbedResult{}, err
	}

	res, err := s.resolver.Resolve(ctx, identifier, params, s.cacheEnabled)
	if err != nil {
		s.logger.Error("Error looking up oEmbed", zap.String("url", identifier), zap.Error(err))
		return models.OEmbedResult{}, err
	}
	return res, nil
}

// CheckConnection проверяет хранилище кэша, если оно это поддерживает
func (s *EmbedService) CheckConnection(ctx context.Context) error {
	if checker, ok := s.storage.(storage.DatabaseChecker); ok {
		return checker.CheckConnection(ctx)
	}
	return nil
}

func (s *EmbedService) useCache(opts models.Options) bool {
	return s.cacheEnabled && !opts.NoCache
}
