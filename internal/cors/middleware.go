package cors

import (
	"net/http"
	"slices"
	"strings"

	"go.uber.org/zap"
)

var (
	allowMethods = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}, ", ")
	allowHeaders = "Authorization, Content-Type, Traceparent, Tracestate"
	exposeHeader = "Content-Disposition"
)

type Middleware struct {
	logger       *zap.Logger
	allowOrigins []string
}

func NewMiddleware(logger *zap.Logger, allowOrigins []string) *Middleware {
	return &Middleware{
		logger:       logger,
		allowOrigins: allowOrigins,
	}
}

func (m *Middleware) allowed(origin string) bool {
	return slices.Contains(m.allowOrigins, "*") || slices.Contains(m.allowOrigins, origin)
}

// HandlerFunc answers preflight requests and sets CORS headers for allowed
// origins. Requests from other origins pass through without CORS headers.
func (m *Middleware) HandlerFunc(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && m.allowed(origin) {
			header := w.Header()
			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Access-Control-Allow-Credentials", "true")
			header.Set("Access-Control-Expose-Headers", exposeHeader)
			header.Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				header.Set("Access-Control-Allow-Methods", allowMethods)
				header.Set("Access-Control-Allow-Headers", allowHeaders)
				header.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
		} else if origin != "" {
			m.logger.Debug("Rejected CORS origin", zap.String("origin", origin), zap.String("path", r.URL.Path))
		}

		next(w, r)
	}
}
