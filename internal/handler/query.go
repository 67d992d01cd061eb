package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/InQaaaaGit/tweet_embed/internal/models"
)

// optionsFromQuery собирает настройки генерации из строки запроса:
// mode (blockquote, dataUri, srcDoc), height, removeBorder, sandbox,
// hideOverflow, noCache и параметры oEmbed
func optionsFromQuery(r *http.Request) (models.Options, error) {
	q := r.URL.Query()
	var opts models.Options

	if mode := q.Get("mode"); mode != "" {
		m, err := models.ParseMode(mode)
		if err != nil {
			return models.Options{}, err
		}
		if m == models.ModeBlockquote {
			opts.BlockQuoteMode = true
		} else {
			opts.IframeType = m.String()
		}
	}

	var err error
	if opts.DefaultHeight, err = queryInt(q, "height"); err != nil {
		return models.Options{}, err
	}
	if opts.RemoveBorder, err = queryBool(q, "removeBorder"); err != nil {
		return models.Options{}, err
	}
	if opts.Sandbox, err = queryBool(q, "sandbox"); err != nil {
		return models.Options{}, err
	}
	if opts.HideOverflow, err = queryBool(q, "hideOverflow"); err != nil {
		return models.Options{}, err
	}
	if opts.NoCache, err = queryBool(q, "noCache"); err != nil {
		return models.Options{}, err
	}

	opts.Params, err = paramsFromQuery(q)
	if err != nil {
		return models.Options{}, err
	}
	return opts, nil
}

// paramsFromQuery читает необязательные параметры oEmbed под их собственными именами
func paramsFromQuery(q url.Values) (models.OEmbedParams, error) {
	p := models.OEmbedParams{
		Align:      q.Get("align"),
		Related:    q.Get("related"),
		Theme:      q.Get("theme"),
		LinkColor:  q.Get("link_color"),
		WidgetType: q.Get("widget_type"),
		Lang:       q.Get("lang"),
	}

	var err error
	if p.MaxWidth, err = queryInt(q, "maxwidth"); err != nil {
		return models.OEmbedParams{}, err
	}
	if p.HideMedia, err = queryBool(q, "hide_media"); err != nil {
		return models.OEmbedParams{}, err
	}
	if p.HideThread, err = queryBool(q, "hide_thread"); err != nil {
		return models.OEmbedParams{}, err
	}
	if p.OmitScript, err = queryBool(q, "omit_script"); err != nil {
		return models.OEmbedParams{}, err
	}
	if p.DNT, err = queryBool(q, "dnt"); err != nil {
		return models.OEmbedParams{}, err
	}
	return p, nil
}

func queryBool(q url.Values, key string) (bool, error) {
	raw := q.Get(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, nil
}

func queryInt(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, nil
}
