package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// observe logs each request and counts it by route pattern and status. It
// sits outside Recoverer so recovered panics are counted as 500s.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			status := ww.Status()
			if status == 0 {
				// Nothing written means an implicit 200.
				status = http.StatusOK
			}

			route := routePattern(r)
			s.metrics.ObserveRequest(route, status)
			s.log.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("route", route).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("Request served")
		}()

		next.ServeHTTP(ww, r)
	})
}

// unmatchedRoute labels requests no route matched, keeping raw paths out
// of metric labels.
const unmatchedRoute = "unmatched"

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return unmatchedRoute
}
