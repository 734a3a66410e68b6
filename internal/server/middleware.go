package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"nutriplan/internal/logging"
)

// requestLogger logs one line per request through the server category.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log := logging.Get(logging.CategoryServer).With("request_id", middleware.GetReqID(r.Context()))
			if status >= 500 {
				log.Warn("%s %s -> %d (%v)", r.Method, r.URL.Path, status, time.Since(start))
				return
			}
			log.Debug("%s %s -> %d %dB (%v)", r.Method, r.URL.Path, status, ww.BytesWritten(), time.Since(start))
		}()
		next.ServeHTTP(ww, r)
	})
}
