package auth

import (
	"NYCU-SDC/form-collector-backend/internal"
	"NYCU-SDC/form-collector-backend/internal/jwt"
	"context"
	"net/http"
	"net/url"
	"time"

	handlerutil "github.com/NYCU-SDC/summer/pkg/handler"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type JWTIssuer interface {
	Issue(ctx context.Context, operatorID uuid.UUID) (string, error)
}

type LoginRequest struct {
	OperatorID string `json:"uid" validate:"required,uuid"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
}

// Handler issues operator tokens. Identities come from an external provider;
// the internal login exists for development and operations.
type Handler struct {
	logger *zap.Logger
	tracer trace.Tracer

	baseURL string
	devMode bool

	validator     *validator.Validate
	problemWriter *problem.HttpWriter

	jwtIssuer JWTIssuer

	accessTokenExpiration time.Duration
}

func NewHandler(
	logger *zap.Logger,
	validator *validator.Validate,
	problemWriter *problem.HttpWriter,
	jwtIssuer JWTIssuer,

	baseURL string,
	devMode bool,

	accessTokenExpiration time.Duration,
) *Handler {
	return &Handler{
		logger: logger,
		tracer: otel.Tracer("auth/handler"),

		baseURL: baseURL,
		devMode: devMode,

		validator:     validator,
		problemWriter: problemWriter,

		jwtIssuer: jwtIssuer,

		accessTokenExpiration: accessTokenExpiration,
	}
}

func (h *Handler) InternalAPITokenLogin(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "APITokenLogin")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	var req LoginRequest
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	operatorID, err := uuid.Parse(req.OperatorID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrInvalidAuthHeaderFormat, logger)
		return
	}

	token, err := h.jwtIssuer.Issue(traceCtx, operatorID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrInvalidJWTToken, logger)
		return
	}

	baseURL, err := url.Parse(h.baseURL)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	h.setAccessCookie(w, baseURL.Hostname(), token)

	logger.Info("Issued internal operator token", zap.String("operator_id", operatorID.String()))
	handlerutil.WriteJSONResponse(w, http.StatusOK, LoginResponse{
		AccessToken: token,
		ExpiresIn:   int(h.accessTokenExpiration.Seconds()),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "Logout")
	defer span.End()

	h.clearAccessCookie(w)
	handlerutil.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// setAccessCookie sets the access cookie with HTTP-only and secure flags
func (h *Handler) setAccessCookie(w http.ResponseWriter, domain, token string) {
	var sameSite http.SameSite
	if h.devMode {
		sameSite = http.SameSiteNoneMode
	} else {
		sameSite = http.SameSiteStrictMode
	}

	http.SetCookie(w, &http.Cookie{
		Name:     jwt.AccessTokenCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   true,
		SameSite: sameSite,
		Path:     "/",
		MaxAge:   int(h.accessTokenExpiration.Seconds()),
		Domain:   domain,
	})
}

// clearAccessCookie expires the access cookie immediately
func (h *Handler) clearAccessCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     jwt.AccessTokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
