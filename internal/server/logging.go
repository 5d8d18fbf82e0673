package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-logr/logr"
)

// requestLogFormatter adapts chi's RequestLogger to logr. Only the path is
// logged: the query string may carry a credential.
type requestLogFormatter struct {
	logger logr.Logger
}

func (f requestLogFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &requestLogEntry{logger: f.logger.WithValues(
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"remote", r.RemoteAddr,
	)}
}

type requestLogEntry struct {
	logger logr.Logger
}

func (e *requestLogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	e.logger.Info("request", "status", status, "bytes", bytes, "elapsed", elapsed.String())
}

func (e *requestLogEntry) Panic(v interface{}, stack []byte) {
	e.logger.Error(fmt.Errorf("%v", v), "panic serving request", "stack", string(stack))
}

// requestLogger logs one line per request through logger.
func requestLogger(logger logr.Logger) func(http.Handler) http.Handler {
	return middleware.RequestLogger(requestLogFormatter{logger: logger})
}

// withLogger makes logger available to handlers via logr.FromContextOrDiscard.
func withLogger(logger logr.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(logr.NewContext(r.Context(), logger)))
		})
	}
}
