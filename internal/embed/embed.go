// Package embed превращает ответ oEmbed в готовый embed-код.
//
// Поддерживаются три режима:
//   - blockquote: исходная разметка провайдера без тегов <script>;
//   - dataUri: iframe, документ которого закодирован в data: URI атрибута src;
//   - srcDoc: iframe с документом в атрибуте srcdoc.
//
// Результат зависит только от входных данных: одинаковые аргументы дают
// побайтно одинаковую строку.
package embed

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/InQaaaaGit/tweet_embed/internal/models"
)

// ErrUnknownMode возвращается для режима, отсутствующего в таблице стратегий
var ErrUnknownMode = errors.New("unknown render mode")

const (
	// DataURIPrefix предшествует закодированному документу в режиме dataUri
	DataURIPrefix = "data:text/html;charset=utf-8,"
	// HideOverflowStyle добавляется в конец документа, а не на iframe:
	// прокрутку нужно отключить внутри встроенного документа
	HideOverflowStyle = "<style>html{overflow:hidden !important;}</style>"
	// ProvenanceAttr хранит адрес исходной публикации
	ProvenanceAttr = "data-tweet-url"
)

// scriptPattern находит <script>...</script> в пределах одной строки
var scriptPattern = regexp.MustCompile(`(?i)<script.*?</script>`)

// strategy описывает один режим генерации. Для режимов без iframe
// sourceAttr пуст, а encode сразу возвращает готовый код.
type strategy struct {
	sourceAttr string
	encode     func(markup string) string
}

var strategies = map[models.Mode]strategy{
	models.ModeBlockquote: {encode: StripScripts},
	models.ModeDataURI:    {sourceAttr: "src", encode: DataURI},
	models.ModeSrcDoc:     {sourceAttr: "srcdoc", encode: EscapeSrcDoc},
}

// Generator реализует генерацию кода по таблице стратегий
type Generator struct{}

// NewGenerator создает генератор
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate строит embed-код для res с настройками cfg
func (g *Generator) Generate(res models.OEmbedResult, cfg models.RenderConfig) (string, error) {
	return Generate(res, cfg)
}

// Generate строит embed-код для res с настройками cfg.
// В режиме blockquote настройки рамки, прокрутки и sandbox не применяются:
// iframe, к которому они относятся, не создаётся.
func Generate(res models.OEmbedResult, cfg models.RenderConfig) (string, error) {
	s, ok := strategies[cfg.Mode]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownMode, cfg.Mode)
	}

	if s.sourceAttr == "" {
		return s.encode(res.HTML), nil
	}

	markup := res.HTML
	if cfg.HideOverflow {
		markup += HideOverflowStyle
	}

	attrs := make([]attribute, 0, 6)
	if cfg.RemoveBorder {
		attrs = append(attrs, attribute{name: "style", value: "border:none;"})
	}
	if res.Width != nil {
		attrs = append(attrs, attribute{name: "width", value: strconv.Itoa(*res.Width)})
	}
	if h := EffectiveHeight(res, cfg); h > 0 {
		attrs = append(attrs, attribute{name: "height", value: strconv.Itoa(h)})
	}
	if res.URL != "" {
		attrs = append(attrs, attribute{name: ProvenanceAttr, value: html.EscapeString(res.URL)})
	}
	if cfg.Sandbox {
		attrs = append(attrs, attribute{name: "sandbox", boolean: true})
	}
	attrs = append(attrs, attribute{name: s.sourceAttr, value: s.encode(markup)})

	return renderIframe(attrs), nil
}

// EffectiveHeight возвращает высоту из ответа провайдера, а если её нет - высоту по умолчанию
func EffectiveHeight(res models.OEmbedResult, cfg models.RenderConfig) int {
	if res.Height != nil {
		return *res.Height
	}
	return cfg.DefaultHeight
}

// StripScripts удаляет теги <script> вместе с содержимым. Поиск нечувствителен
// к регистру и не переходит через перевод строки.
func StripScripts(markup string) string {
	return scriptPattern.ReplaceAllString(markup, "")
}

// DataURI кодирует документ в data: URI с процентным кодированием всей строки
func DataURI(markup string) string {
	return DataURIPrefix + escapeURIComponent(markup)
}

// EscapeSrcDoc экранирует документ для атрибута srcdoc: & заменяется на &amp;,
// двойная кавычка - на одинарную. Документ, в котором встречаются оба вида
// кавычек, может отображаться с искажениями.
func EscapeSrcDoc(markup string) string {
	markup = strings.ReplaceAll(markup, "&", "&amp;")
	return strings.ReplaceAll(markup, `"`, `'`)
}

type attribute struct {
	name    string
	value   string
	boolean bool
}

func renderIframe(attrs []attribute) string {
	var b strings.Builder
	b.WriteString("<iframe")
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.name)
		if a.boolean {
			continue
		}
		b.WriteString(`="`)
		b.WriteString(a.value)
		b.WriteByte('"')
	}
	b.WriteString("></iframe>")
	return b.String()
}
