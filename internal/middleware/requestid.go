package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// HeaderRequestID - заголовок с идентификатором запроса
const HeaderRequestID = "X-Request-ID"

type contextKey string

// ContextKeyRequestID - ключ контекста для идентификатора запроса
const ContextKeyRequestID contextKey = "request_id"

// RequestID берёт идентификатор из заголовка X-Request-ID или генерирует новый,
// кладёт его в контекст и возвращает клиенту в том же заголовке
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		w.Header().Set(HeaderRequestID, id)
		ctx := context.WithValue(r.Context(), ContextKeyRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext возвращает идентификатор запроса или пустую строку
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}
