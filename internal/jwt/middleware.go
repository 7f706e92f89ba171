package jwt

import (
	"NYCU-SDC/form-collector-backend/internal"
	"context"
	"fmt"
	"net/http"
	"strings"

	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const AccessTokenCookieName = "access_token"

type Parser interface {
	Parse(ctx context.Context, tokenString string) (Operator, error)
}

type Middleware struct {
	logger        *zap.Logger
	tracer        trace.Tracer
	problemWriter *problem.HttpWriter
	parser        Parser
}

func NewMiddleware(logger *zap.Logger, problemWriter *problem.HttpWriter, parser Parser) *Middleware {
	return &Middleware{
		logger:        logger,
		tracer:        otel.Tracer("jwt/middleware"),
		problemWriter: problemWriter,
		parser:        parser,
	}
}

// AuthenticateMiddleware accepts a bearer token or the access token cookie and
// stores the operator in the request context.
func (m *Middleware) AuthenticateMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traceCtx, span := m.tracer.Start(r.Context(), "AuthenticateMiddleware")
		defer span.End()
		logger := logutil.WithContext(traceCtx, m.logger)

		token, err := tokenFromRequest(r)
		if err != nil {
			m.problemWriter.WriteError(traceCtx, w, err, logger)
			return
		}

		operator, err := m.parser.Parse(traceCtx, token)
		if err != nil {
			m.problemWriter.WriteError(traceCtx, w, fmt.Errorf("%w: %w", internal.ErrInvalidJWTToken, err), logger)
			return
		}

		next(w, r.WithContext(internal.WithOperator(r.Context(), operator)))
	}
}

func tokenFromRequest(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return "", internal.ErrInvalidAuthHeaderFormat
		}
		return strings.TrimSpace(token), nil
	}

	cookie, err := r.Cookie(AccessTokenCookieName)
	if err != nil || cookie.Value == "" {
		return "", internal.ErrMissingAuthHeader
	}
	return cookie.Value, nil
}
