// Package models содержит типы данных, которыми обмениваются слои сервиса:
// параметры и ответ oEmbed, настройки отрисовки и строки пакетной обработки.
package models

import (
	"net/url"
	"strconv"
)

// OEmbedParams задаёт необязательные параметры запроса к oEmbed API.
// Пустые и нулевые значения в запрос не попадают.
type OEmbedParams struct {
	MaxWidth   int    `json:"maxwidth,omitempty"`
	HideMedia  bool   `json:"hide_media,omitempty"`
	HideThread bool   `json:"hide_thread,omitempty"`
	OmitScript bool   `json:"omit_script,omitempty"`
	Align      string `json:"align,omitempty"`
	Related    string `json:"related,omitempty"`
	Theme      string `json:"theme,omitempty"`
	LinkColor  string `json:"link_color,omitempty"`
	WidgetType string `json:"widget_type,omitempty"`
	Lang       string `json:"lang,omitempty"`
	DNT        bool   `json:"dnt,omitempty"`
	// URL из параметров всегда перекрывается идентификатором запроса
	URL string `json:"url,omitempty"`
}

// Values превращает параметры в query-строку запроса.
func (p OEmbedParams) Values() url.Values {
	v := url.Values{}
	if p.URL != "" {
		v.Set("url", p.URL)
	}
	if p.MaxWidth > 0 {
		v.Set("maxwidth", strconv.Itoa(p.MaxWidth))
	}
	setBool(v, "hide_media", p.HideMedia)
	setBool(v, "hide_thread", p.HideThread)
	setBool(v, "omit_script", p.OmitScript)
	setString(v, "align", p.Align)
	setString(v, "related", p.Related)
	setString(v, "theme", p.Theme)
	setString(v, "link_color", p.LinkColor)
	setString(v, "widget_type", p.WidgetType)
	setString(v, "lang", p.Lang)
	setBool(v, "dnt", p.DNT)
	return v
}

func setBool(v url.Values, key string, val bool) {
	if val {
		v.Set(key, "true")
	}
}

func setString(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

// OEmbedResult - ответ oEmbed API. После получения не изменяется.
type OEmbedResult struct {
	URL          string `json:"url"`
	Title        string `json:"title,omitempty"`
	AuthorName   string `json:"author_name,omitempty"`
	AuthorURL    string `json:"author_url,omitempty"`
	HTML         string `json:"html"`
	Width        *int   `json:"width"`
	Height       *int   `json:"height"`
	Type         string `json:"type"`
	CacheAge     string `json:"cache_age"`
	ProviderName string `json:"provider_name"`
	ProviderURL  string `json:"provider_url"`
	Version      string `json:"version"`
}

// HasMarkup сообщает, содержит ли ответ разметку. Ответы об ошибках провайдера её не содержат.
func (r *OEmbedResult) HasMarkup() bool {
	return r != nil && r.HTML != ""
}
