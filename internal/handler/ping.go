package handler

import (
	"net/http"

	"github.com/InQaaaaGit/tweet_embed/internal/buildinfo"
	"go.uber.org/zap"
)

// HandlePing обрабатывает запрос на проверку соединения с хранилищем кэша
func (h *Handler) HandlePing(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CheckConnection(r.Context()); err != nil {
		h.logger.Error("Ошибка подключения к хранилищу", zap.Error(err))
		http.Error(w, "Storage connection error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// HandleVersion возвращает сведения о сборке
func (h *Handler) HandleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, buildinfo.Current())
}
