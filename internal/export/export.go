// Package export сериализует таблицу результатов в CSV или TSV для скачивания.
package export

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnsupportedDelimiter возвращается для разделителя, отличного от запятой и табуляции
var ErrUnsupportedDelimiter = errors.New("unsupported delimiter")

// FilePrefix - начало имени файла по умолчанию
const FilePrefix = "twitter_embeds_"

// Format описывает формат выгрузки
type Format struct {
	Name      string
	Delimiter string
	MIME      string
	Extension string
}

var (
	// CSV - значения через запятую, каждая ячейка в кавычках
	CSV = Format{Name: "csv", Delimiter: ",", MIME: "text/csv", Extension: "csv"}
	// TSV - значения через табуляцию без экранирования
	TSV = Format{Name: "tsv", Delimiter: "\t", MIME: "text/tab-separated-values", Extension: "tsv"}
)

// FormatFor возвращает формат по разделителю
func FormatFor(delimiter string) (Format, error) {
	switch delimiter {
	case CSV.Delimiter:
		return CSV, nil
	case TSV.Delimiter:
		return TSV, nil
	default:
		return Format{}, fmt.Errorf("%w: %q", ErrUnsupportedDelimiter, delimiter)
	}
}

// ParseFormat возвращает формат по имени "csv" или "tsv"
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CSV.Name:
		return CSV, nil
	case TSV.Name:
		return TSV, nil
	default:
		return Format{}, fmt.Errorf("%w: unknown format %q", ErrUnsupportedDelimiter, name)
	}
}

// Serialize соединяет ячейки строки разделителем, а строки - переводом строки.
// Для CSV каждая ячейка берётся в кавычки, внутренние кавычки удваиваются.
// TSV не экранирует ничего: табуляция или перевод строки внутри ячейки ломают структуру.
func Serialize(table [][]string, delimiter string) (string, error) {
	format, err := FormatFor(delimiter)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(table))
	cells := make([]string, 0, 2)
	for _, row := range table {
		cells = cells[:0]
		for _, cell := range row {
			if format == CSV {
				cell = quoteCSV(cell)
			}
			cells = append(cells, cell)
		}
		lines = append(lines, strings.Join(cells, format.Delimiter))
	}
	return strings.Join(lines, "\n"), nil
}

func quoteCSV(cell string) string {
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}

// FileName возвращает имя файла для скачивания. Без имени используется
// twitter_embeds_<время в мс>; расширение добавляется, если его нет.
func FileName(name string, format Format, now time.Time) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = FilePrefix + strconv.FormatInt(now.UnixMilli(), 10)
	}
	ext := "." + format.Extension
	if !strings.HasSuffix(strings.ToLower(name), ext) {
		name += ext
	}
	return name
}
