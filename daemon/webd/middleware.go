package webd

import (
	ghandlers "github.com/gorilla/handlers"
	"io"
	"log/slog"
	"net/http"
)

func permissiveCorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Add("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")
		next.ServeHTTP(w, r)
	})
}

func contentTypeMiddlewareFunc(contentType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", contentType)
			next.ServeHTTP(w, r)
		})
	}
}

// https://github.com/gorilla/mux#middleware

// writeLog logs one access line per request.
// The writer is unused; requests go to the default slog logger.
func writeLog(_ io.Writer, params ghandlers.LogFormatterParams) {
	slog.Debug("HTTP",
		"remote", params.Request.RemoteAddr,
		"method", params.Request.Method,
		"uri", params.URL.RequestURI(),
		"status", params.StatusCode,
		"size", params.Size)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return ghandlers.CustomLoggingHandler(io.Discard, next, writeLog)
}
