// Package handler содержит HTTP-обработчики сервиса генерации embed-кода.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/InQaaaaGit/tweet_embed/internal/batch"
	"github.com/InQaaaaGit/tweet_embed/internal/models"
	"github.com/InQaaaaGit/tweet_embed/internal/oembed"
	"github.com/InQaaaaGit/tweet_embed/internal/service"
	"go.uber.org/zap"
)

const (
	contentTypePlain = "text/plain"
	contentTypeJSON  = "application/json"
	maxBodySize      = 1 << 20

	generationFailedMessage = "Failed to generate embed code"
	lookupFailedMessage     = "Failed to fetch oEmbed data"
	invalidURLMessage       = "Please enter a valid URL"
	inProgressMessage       = "Generation already in progress"
	internalErrorMessage    = "Internal server error"
)

// EmbedService определяет операции сервиса, которые нужны обработчикам
type EmbedService interface {
	Generate(ctx context.Context, rawURL string, opts models.Options) (models.EmbedResponse, error)
	GenerateBatch(ctx context.Context, urls []string, opts models.Options) (batch.Result, error)
	Export(result batch.Result, formatName, fileName string) (service.Download, error)
	Lookup(ctx context.Context, rawURL string, params models.OEmbedParams) (models.OEmbedResult, error)
	CheckConnection(ctx context.Context) error
}

type Handler struct {
	service EmbedService
	logger  *zap.Logger
}

func NewHandler(service EmbedService, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// HandleEmbedText обрабатывает POST / : в теле URL публикации, в ответе embed-код.
// Настройки передаются параметрами строки запроса.
func (h *Handler) HandleEmbedText(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, contentTypePlain) {
		http.Error(w, "Invalid Content-Type", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "Error reading request body", http.StatusBadRequest)
		return
	}

	opts, err := optionsFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.service.Generate(r.Context(), string(body), opts)
	if err != nil {
		h.writeGenerateError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypePlain+"; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(resp.Code)); err != nil {
		h.logger.Error("Error writing response", zap.Error(err))
	}
}

// HandleEmbed обрабатывает POST /api/embed. При urlInputType=multiple поле url
// содержит список URL построчно, и ответ имеет вид BatchResponse.
func (h *Handler) HandleEmbed(w http.ResponseWriter, r *http.Request) {
	var req models.EmbedRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	switch req.Options.URLInputType {
	case "", models.InputSingle:
		resp, err := h.service.Generate(r.Context(), req.URL, req.Options)
		if err != nil {
			h.writeGenerateError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, resp)
	case models.InputMultiple:
		result, err := h.service.GenerateBatch(r.Context(), batch.SplitLines(req.URL), req.Options)
		if err != nil {
			h.writeGenerateError(w, err)
			return
		}
		h.writeBatch(w, result)
	default:
		http.Error(w, "Invalid urlInputType", http.StatusBadRequest)
	}
}

// HandleBatch обрабатывает POST /api/embed/batch
func (h *Handler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	result, ok := h.runBatch(w, r)
	if !ok {
		return
	}
	h.writeBatch(w, result)
}

func (h *Handler) writeBatch(w http.ResponseWriter, result batch.Result) {
	rows := result.Rows
	if rows == nil {
		rows = []models.BatchRow{}
	}

	failed := 0
	for _, row := range rows {
		if row.Failed() {
			failed++
		}
	}

	h.writeJSON(w, http.StatusOK, models.BatchResponse{
		Output: result.Output,
		Rows:   rows,
		Failed: failed,
	})
}

// HandleBatchExport обрабатывает POST /api/embed/batch/export?format=csv|tsv&name=...
// и отдаёт таблицу результатов файлом. Если обрабатывать нечего, ответ 204 без тела.
func (h *Handler) HandleBatchExport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	result, ok := h.runBatch(w, r)
	if !ok {
		return
	}

	dl, err := h.service.Export(result, query.Get("format"), query.Get("name"))
	if err != nil {
		if errors.Is(err, service.ErrNothingToExport) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", dl.MIME+"; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.FileName}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, dl.Content); err != nil {
		h.logger.Error("Error writing export", zap.Error(err))
	}
}

func (h *Handler) runBatch(w http.ResponseWriter, r *http.Request) (batch.Result, bool) {
	var req models.BatchRequest
	if !h.decodeJSON(w, r, &req) {
		return batch.Result{}, false
	}

	urls := req.URLs
	if len(urls) == 0 {
		urls = batch.SplitLines(req.Text)
	}

	result, err := h.service.GenerateBatch(r.Context(), urls, req.Options)
	if err != nil {
		h.writeGenerateError(w, err)
		return batch.Result{}, false
	}
	return result, true
}

// HandleOEmbed обрабатывает GET /api/oembed?url=... и возвращает ответ провайдера
func (h *Handler) HandleOEmbed(w http.ResponseWriter, r *http.Request) {
	params, err := paramsFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.service.Lookup(r.Context(), r.URL.Query().Get("url"), params)
	if err != nil {
		if errors.Is(err, oembed.ErrInvalidInput) {
			h.logger.Info("Rejected oEmbed lookup", zap.Error(err))
			http.Error(w, invalidURLMessage, http.StatusBadRequest)
			return
		}
		http.Error(w, lookupFailedMessage, http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), contentTypeJSON) {
		http.Error(w, "Invalid Content-Type", http.StatusBadRequest)
		return false
	}

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(dst); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Error writing JSON response", zap.Error(err))
	}
}

// writeGenerateError отвечает клиенту общим сообщением: причина уже записана сервисом в лог
func (h *Handler) writeGenerateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, oembed.ErrInvalidInput):
		h.logger.Info("Rejected embed request", zap.Error(err))
		http.Error(w, invalidURLMessage, http.StatusBadRequest)
	case errors.Is(err, service.ErrGenerationInProgress):
		http.Error(w, inProgressMessage, http.StatusConflict)
	case errors.Is(err, oembed.ErrFetchTimeoutOrError), errors.Is(err, oembed.ErrProviderError):
		http.Error(w, generationFailedMessage, http.StatusBadGateway)
	default:
		h.logger.Error("Unexpected generation error", zap.Error(err))
		http.Error(w, internalErrorMessage, http.StatusInternalServerError)
	}
}
