package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// RequestIDHeader возвращается клиенту в каждом ответе.
const RequestIDHeader = "X-Request-Id"

type ctxKeyRequestID struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID{}, id)))
	})
}

func loggingMiddleware(logger *log.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			requestLogger(logger, r).WithFields(log.Fields{
				"http.resp.status":  rec.status,
				"http.resp.bytes":   rec.size,
				"http.resp.took_ms": time.Since(start).Milliseconds(),
			}).Debug("request complete")
		})
	}
}

// requestLogger добавляет к записи поля запроса.
func requestLogger(logger *log.Entry, r *http.Request) *log.Entry {
	fields := log.Fields{
		"http.req.method": r.Method,
		"http.req.path":   r.URL.Path,
	}
	if id, ok := r.Context().Value(ctxKeyRequestID{}).(string); ok {
		fields["http.req.id"] = id
	}
	return logger.WithFields(fields)
}
