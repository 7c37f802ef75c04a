package server

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/remedy/internal/core/observability/log"
)

const requestIDHeader = "X-Request-Id"

// statusRecorder captures the response code. It keeps http.Hijacker so the
// WebSocket upgrade still works behind the middleware.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	r.code = http.StatusSwitchingProtocols
	return h.Hijack()
}

// withLogging tags every request with an id and logs its outcome. Client
// errors log at debug, server errors at error.
func withLogging(logger log.Log, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		fields := []log.Field{
			log.String("request_id", id),
			log.String("method", r.Method),
			log.String("path", r.URL.Path),
			log.Int("status", rec.code),
			log.Duration("took", time.Since(start)),
			log.String("remote_addr", r.RemoteAddr),
		}
		if rec.code >= http.StatusInternalServerError {
			logger.Error("request failed", fields...)
		} else {
			logger.Debug("request handled", fields...)
		}
	})
}
