package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/InQaaaaGit/tweet_embed/internal/batch"
	"github.com/InQaaaaGit/tweet_embed/internal/buildinfo"
	"github.com/InQaaaaGit/tweet_embed/internal/models"
	"github.com/InQaaaaGit/tweet_embed/internal/oembed"
	"github.com/InQaaaaGit/tweet_embed/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockEmbedService реализует EmbedService для тестов
type mockEmbedService struct {
	generateFunc        func(ctx context.Context, rawURL string, opts models.Options) (models.EmbedResponse, error)
	generateBatchFunc   func(ctx context.Context, urls []string, opts models.Options) (batch.Result, error)
	exportFunc          func(result batch.Result, formatName, fileName string) (service.Download, error)
	lookupFunc          func(ctx context.Context, rawURL string, params models.OEmbedParams) (models.OEmbedResult, error)
	checkConnectionFunc func(ctx context.Context) error
}

func (m *mockEmbedService) Generate(ctx context.Context, rawURL string, opts models.Options) (models.EmbedResponse, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, rawURL, opts)
	}
	return models.EmbedResponse{}, errors.New("not implemented")
}

func (m *mockEmbedService) GenerateBatch(ctx context.Context, urls []string, opts models.Options) (batch.Result, error) {
	if m.generateBatchFunc != nil {
		return m.generateBatchFunc(ctx, urls, opts)
	}
	return batch.Result{}, errors.New("not implemented")
}

func (m *mockEmbedService) Export(result batch.Result, formatName, fileName string) (service.Download, error) {
	if m.exportFunc != nil {
		return m.exportFunc(result, formatName, fileName)
	}
	return service.Download{}, errors.New("not implemented")
}

func (m *mockEmbedService) Lookup(ctx context.Context, rawURL string, params models.OEmbedParams) (models.OEmbedResult, error) {
	if m.lookupFunc != nil {
		return m.lookupFunc(ctx, rawURL, params)
	}
	return models.OEmbedResult{}, errors.New("not implemented")
}

func (m *mockEmbedService) CheckConnection(ctx context.Context) error {
	if m.checkConnectionFunc != nil {
		return m.checkConnectionFunc(ctx)
	}
	return errors.New("not implemented")
}

func TestHandleEmbedText(t *testing.T) {
	var gotURL string
	var gotOpts models.Options
	svc := &mockEmbedService{
		generateFunc: func(ctx context.Context, rawURL string, opts models.Options) (models.EmbedResponse, error) {
			gotURL, gotOpts = rawURL, opts
			return models.EmbedResponse{Code: "<iframe></iframe>", Mode: "srcDoc"}, nil
		},
	}
	h := NewHandler(svc, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/?mode=srcDoc&height=400&sandbox=true&theme=dark&maxwidth=300", strings.NewReader("https://twitter.com/a/status/1\n"))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()

	h.HandleEmbedText(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<iframe></iframe>", w.Body.String())
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
	assert.Equal(t, "https://twitter.com/a/status/1\n", gotURL)
	assert.Equal(t, "srcDoc", gotOpts.IframeType)
	assert.False(t, gotOpts.BlockQuoteMode)
	assert.Equal(t, 400, gotOpts.DefaultHeight)
	assert.True(t, gotOpts.Sandbox)
	assert.Equal(t, "dark", gotOpts.Params.Theme)
	assert.Equal(t, 300, gotOpts.Params.MaxWidth)
}

func TestHandleEmbedText_BadRequests(t *testing.T) {
	h := NewHandler(&mockEmbedService{}, zap.NewNop())

	tests := []struct {
		name        string
		target      string
		contentType string
	}{
		{name: "JSON content type", target: "/", contentType: "application/json"},
		{name: "Unknown mode", target: "/?mode=inline", contentType: "text/plain"},
		{name: "Bad height", target: "/?height=tall", contentType: "text/plain"},
		{name: "Bad bool", target: "/?sandbox=maybe", contentType: "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader("1"))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			h.HandleEmbedText(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandleEmbed_ErrorMapping(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Invalid input hides the submitted text",
			err:          fmt.Errorf("%w: %q is not a URL", oembed.ErrInvalidInput, "<b>hello</b>"),
			expectedCode: http.StatusBadRequest,
			expectedBody: invalidURLMessage + "\n",
		},
		{
			name:         "In progress",
			err:          service.ErrGenerationInProgress,
			expectedCode: http.StatusConflict,
			expectedBody: inProgressMessage + "\n",
		},
		{
			name:         "Fetch failure hides the cause",
			err:          fmt.Errorf("%w: dial tcp: connection refused", oembed.ErrFetchTimeoutOrError),
			expectedCode: http.StatusBadGateway,
			expectedBody: generationFailedMessage + "\n",
		},
		{
			name:         "Provider error",
			err:          oembed.ErrProviderError,
			expectedCode: http.StatusBadGateway,
			expectedBody: generationFailedMessage + "\n",
		},
		{
			name:         "Unexpected error",
			err:          errors.New("boom"),
			expectedCode: http.StatusInternalServerError,
			expectedBody: internalErrorMessage + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockEmbedService{
				generateFunc: func(ctx context.Context, rawURL string, opts models.Options) (models.EmbedResponse, error) {
					return models.EmbedResponse{}, tt.err
				},
			}
			h := NewHandler(svc, zap.NewNop())

			req := httptest.NewRequest(http.MethodPost, "/api/embed", strings.NewReader(`{"url":"https://twitter.com/a/status/1"}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			h.HandleEmbed(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestHandleEmbed(t *testing.T) {
	svc := &mockEmbedService{
		generateFunc: func(ctx context.Context, rawURL string, opts models.Options) (models.EmbedResponse, error) {
			assert.Equal(t, "https://twitter.com/a/status/1", rawURL)
			assert.True(t, opts.BlockQuoteMode)
			assert.Equal(t, "en", opts.Params.Lang)
			return models.EmbedResponse{Code: "<blockquote></blockquote>", Mode: "blockquote"}, nil
		},
	}
	h := NewHandler(svc, zap.NewNop())

	body := `{"url":"https://twitter.com/a/status/1","options":{"blockQuoteMode":true,"params":{"lang":"en"}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/embed", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.HandleEmbed(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.EmbedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.EmbedResponse{Code: "<blockquote></blockquote>", Mode: "blockquote"}, resp)
}

func TestHandleEmbed_URLInputType(t *testing.T) {
	single := func(ctx context.Context, rawURL string, opts models.Options) (models.EmbedResponse, error) {
		return models.EmbedResponse{Code: "<iframe></iframe>", Mode: "srcDoc"}, nil
	}

	t.Run("Single", func(t *testing.T) {
		h := NewHandler(&mockEmbedService{generateFunc: single}, zap.NewNop())

		body := `{"url":"https://x.com/a/status/1","options":{"urlInputType":"single"}}`
		req := httptest.NewRequest(http.MethodPost, "/api/embed", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.HandleEmbed(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp models.EmbedResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "<iframe></iframe>", resp.Code)
	})

	t.Run("Multiple", func(t *testing.T) {
		var gotURLs []string
		svc := &mockEmbedService{
			generateBatchFunc: func(ctx context.Context, urls []string, opts models.Options) (batch.Result, error) {
				gotURLs = urls
				return batch.Result{
					Output: "<iframe></iframe>\n" + batch.Placeholder("https://x.com/b/status/2"),
					Rows: []models.BatchRow{
						{URL: urls[0], Code: "<iframe></iframe>"},
						{URL: urls[1], Error: "provider error"},
					},
				}, nil
			},
		}
		h := NewHandler(svc, zap.NewNop())

		body := `{"url":"https://x.com/a/status/1\n\nhttps://x.com/b/status/2\n","options":{"urlInputType":"multiple"}}`
		req := httptest.NewRequest(http.MethodPost, "/api/embed", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.HandleEmbed(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"https://x.com/a/status/1", "https://x.com/b/status/2"}, gotURLs)

		var resp models.BatchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Rows, 2)
		assert.Equal(t, 1, resp.Failed)
	})

	t.Run("Unknown", func(t *testing.T) {
		h := NewHandler(&mockEmbedService{generateFunc: single}, zap.NewNop())

		body := `{"url":"https://x.com/a/status/1","options":{"urlInputType":"many"}}`
		req := httptest.NewRequest(http.MethodPost, "/api/embed", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.HandleEmbed(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleEmbed_InvalidBody(t *testing.T) {
	h := NewHandler(&mockEmbedService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/embed", strings.NewReader(`{"url":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.HandleEmbed(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/embed", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	w = httptest.NewRecorder()
	h.HandleEmbed(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleBatch(t *testing.T) {
	var gotURLs []string
	svc := &mockEmbedService{
		generateBatchFunc: func(ctx context.Context, urls []string, opts models.Options) (batch.Result, error) {
			gotURLs = urls
			return batch.Result{
				Output: "<a/>\n" + batch.Placeholder("b"),
				Rows:   []models.BatchRow{{URL: "a", Code: "<a/>"}, {URL: "b", Error: "fetch timeout or error"}},
				Errors: []batch.ItemError{{Index: 1, URL: "b", Err: oembed.ErrFetchTimeoutOrError}},
			}, nil
		},
	}
	h := NewHandler(svc, zap.NewNop())

	t.Run("Text input is split into lines", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/embed/batch", strings.NewReader(`{"text":"a\n\n b \n"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.HandleBatch(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"a", "b"}, gotURLs)

		var resp models.BatchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Failed)
		require.Len(t, resp.Rows, 2)
		assert.Equal(t, "", resp.Rows[1].Code)
		assert.Contains(t, resp.Output, "<!-- Failed to generate embed for b -->")
	})

	t.Run("URL list takes precedence", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/embed/batch", strings.NewReader(`{"urls":["x","y"],"text":"a"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.HandleBatch(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"x", "y"}, gotURLs)
	})
}

func TestHandleBatch_EmptyRowsEncodeAsArray(t *testing.T) {
	svc := &mockEmbedService{
		generateBatchFunc: func(ctx context.Context, urls []string, opts models.Options) (batch.Result, error) {
			return batch.Result{}, nil
		},
	}
	h := NewHandler(svc, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/embed/batch", strings.NewReader(`{"text":"\n\n"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.HandleBatch(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"output":"","rows":[],"failed":0}`, w.Body.String())
}

func TestHandleBatchExport(t *testing.T) {
	result := batch.Result{Rows: []models.BatchRow{{URL: "a", Code: "<a/>"}}}
	svc := &mockEmbedService{
		generateBatchFunc: func(ctx context.Context, urls []string, opts models.Options) (batch.Result, error) {
			if len(urls) == 0 {
				return batch.Result{}, nil
			}
			return result, nil
		},
		exportFunc: func(res batch.Result, formatName, fileName string) (service.Download, error) {
			if res.Empty() {
				return service.Download{}, service.ErrNothingToExport
			}
			if formatName != "tsv" {
				return service.Download{}, errors.New("unsupported delimiter")
			}
			return service.Download{FileName: fileName + ".tsv", MIME: "text/tab-separated-values", Content: "Tweet URL\tIframe Code\na\t<a/>"}, nil
		},
	}
	h := NewHandler(svc, zap.NewNop())

	t.Run("Download", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/embed/batch/export?format=tsv&name=my%20embeds", strings.NewReader(`{"urls":["a"]}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.HandleBatchExport(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/tab-separated-values; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="my embeds.tsv"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "Tweet URL\tIframe Code\na\t<a/>", w.Body.String())
	})

	t.Run("Nothing to export", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/embed/batch/export?format=tsv", strings.NewReader(`{"text":""}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.HandleBatchExport(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Content-Disposition"))
	})

	t.Run("Unknown format", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/embed/batch/export?format=xlsx", strings.NewReader(`{"urls":["a"]}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.HandleBatchExport(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleOEmbed(t *testing.T) {
	svc := &mockEmbedService{
		lookupFunc: func(ctx context.Context, rawURL string, params models.OEmbedParams) (models.OEmbedResult, error) {
			switch rawURL {
			case "20":
				assert.True(t, params.HideThread)
				return models.OEmbedResult{URL: "https://twitter.com/jack/status/20", HTML: "<blockquote/>"}, nil
			case "":
				return models.OEmbedResult{}, oembed.ErrInvalidInput
			default:
				return models.OEmbedResult{}, oembed.ErrFetchTimeoutOrError
			}
		},
	}
	h := NewHandler(svc, zap.NewNop())

	tests := []struct {
		name         string
		target       string
		expectedCode int
	}{
		{name: "Found", target: "/api/oembed?url=20&hide_thread=1", expectedCode: http.StatusOK},
		{name: "Missing url", target: "/api/oembed", expectedCode: http.StatusBadRequest},
		{name: "Provider failure", target: "/api/oembed?url=21", expectedCode: http.StatusBadGateway},
		{name: "Bad maxwidth", target: "/api/oembed?url=20&maxwidth=-1", expectedCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.HandleOEmbed(w, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestHandlePing(t *testing.T) {
	tests := []struct {
		name         string
		checkErr     error
		expectedCode int
	}{
		{name: "Storage available", expectedCode: http.StatusOK},
		{name: "Storage unavailable", checkErr: errors.New("connection refused"), expectedCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockEmbedService{checkConnectionFunc: func(ctx context.Context) error { return tt.checkErr }}
			h := NewHandler(svc, zap.NewNop())

			w := httptest.NewRecorder()
			h.HandlePing(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestHandleVersion(t *testing.T) {
	h := NewHandler(&mockEmbedService{}, zap.NewNop())

	w := httptest.NewRecorder()
	h.HandleVersion(w, httptest.NewRequest(http.MethodGet, "/version", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var info buildinfo.Info
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, buildinfo.Current(), info)
}
