// Package batch генерирует embed-код для списка URL. Элементы обрабатываются
// строго последовательно с паузой между запросами к провайдеру, ошибка одного
// элемента не прерывает обработку остальных.
package batch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/InQaaaaGit/tweet_embed/internal/models"
	"github.com/InQaaaaGit/tweet_embed/internal/oembed"
	"go.uber.org/zap"
)

// Заголовки таблицы результатов
const (
	HeaderURL  = "Tweet URL"
	HeaderCode = "Iframe Code"
)

// CodeGenerator строит embed-код по ответу oEmbed
type CodeGenerator interface {
	Generate(res models.OEmbedResult, cfg models.RenderConfig) (string, error)
}

// Options - настройки одного запуска
type Options struct {
	Params   models.OEmbedParams
	Render   models.RenderConfig
	UseCache bool
}

// ItemError описывает ошибку обработки одного элемента
type ItemError struct {
	Index int
	URL   string
	Err   error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %d (%s): %v", e.Index, e.URL, e.Err)
}

func (e ItemError) Unwrap() error {
	return e.Err
}

// Result - итог пакетной обработки. Rows идут в порядке входных URL.
type Result struct {
	Output string
	Rows   []models.BatchRow
	Errors []ItemError
}

// Empty сообщает, что обрабатывать было нечего
func (r Result) Empty() bool {
	return len(r.Rows) == 0
}

// Table возвращает таблицу с заголовком и строкой на каждый URL.
// У элементов с ошибкой ячейка кода пустая.
func (r Result) Table() [][]string {
	table := make([][]string, 0, len(r.Rows)+1)
	table = append(table, []string{HeaderURL, HeaderCode})
	for _, row := range r.Rows {
		table = append(table, []string{row.URL, row.Code})
	}
	return table
}

// Runner выполняет пакетную генерацию
type Runner struct {
	resolver  oembed.Resolver
	generator CodeGenerator
	delay     time.Duration
	logger    *zap.Logger
}

// NewRunner создает Runner. delay - пауза перед каждым элементом, кроме первого.
func NewRunner(resolver oembed.Resolver, generator CodeGenerator, delay time.Duration, logger *zap.Logger) *Runner {
	return &Runner{
		resolver:  resolver,
		generator: generator,
		delay:     delay,
		logger:    logger,
	}
}

// SplitLines разбивает текст на строки и отбрасывает пустые
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	return filterBlank(lines)
}

// Placeholder - комментарий, который заменяет код неудавшегося элемента в общем выводе
func Placeholder(url string) string {
	return "<!-- Failed to generate embed for " + strings.ReplaceAll(url, "-->", "--&gt;") + " -->"
}

// Run обрабатывает urls по порядку. Пустые строки отбрасываются до нумерации.
// Ошибки элементов попадают в Result и никогда не возвращаются вызывающему.
// После отмены ctx оставшиеся элементы помечаются ошибкой без обращения к провайдеру.
func (r *Runner) Run(ctx context.Context, urls []string, opts Options) Result {
	items := filterBlank(urls)
	if len(items) == 0 {
		return Result{}
	}

	start := time.Now()
	result := Result{Rows: make([]models.BatchRow, 0, len(items))}
	outputs := make([]string, 0, len(items))

	for i, url := range items {
		var (
			code string
			err  error
		)
		if i > 0 {
			err = sleep(ctx, r.delay)
		}
		if err == nil {
			code, err = r.processItem(ctx, url, opts)
		}

		if err != nil {
			r.logger.Warn("Batch item failed",
				zap.Int("index", i),
				zap.String("url", url),
				zap.Error(err))
			result.Rows = append(result.Rows, models.BatchRow{URL: url, Error: err.Error()})
			result.Errors = append(result.Errors, ItemError{Index: i, URL: url, Err: err})
			outputs = append(outputs, Placeholder(url))
			continue
		}

		result.Rows = append(result.Rows, models.BatchRow{URL: url, Code: code})
		outputs = append(outputs, code)
	}

	result.Output = strings.Join(outputs, "\n")

	r.logger.Info("Batch finished",
		zap.Int("items", len(items)),
		zap.Int("failed", len(result.Errors)),
		zap.Duration("duration", time.Since(start)))
	return result
}

func (r *Runner) processItem(ctx context.Context, raw string, opts Options) (string, error) {
	identifier, err := oembed.ValidateIdentifier(raw)
	if err != nil {
		return "", err
	}

	res, err := r.resolver.Resolve(ctx, identifier, opts.Params, opts.UseCache)
	if err != nil {
		return "", err
	}
	if err := oembed.RequireMarkup(res); err != nil {
		return "", err
	}

	return r.generator.Generate(res, opts.Render)
}

func filterBlank(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// sleep ждёт d или отмены ctx
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
