package jwt

import (
	"context"
	"errors"
	"strings"
	"time"

	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const Issuer = "form-collector"

// Operator is the authenticated form owner carried by an access token.
type Operator struct {
	ID uuid.UUID
}

func (o Operator) GetID() uuid.UUID {
	return o.ID
}

type Service struct {
	logger                *zap.Logger
	secret                string
	accessTokenExpiration time.Duration
	tracer                trace.Tracer
}

func NewService(logger *zap.Logger, secret string, accessTokenExpiration time.Duration) *Service {
	return &Service{
		logger:                logger,
		secret:                secret,
		accessTokenExpiration: accessTokenExpiration,
		tracer:                otel.Tracer("jwt/service"),
	}
}

type claims struct {
	jwt.RegisteredClaims
}

// Issue signs an access token whose subject is the operator id.
func (s Service) Issue(ctx context.Context, operatorID uuid.UUID) (string, error) {
	traceCtx, span := s.tracer.Start(ctx, "Issue")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	jwtID := uuid.New()
	now := time.Now()

	tokenClaims := &claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   operatorID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        jwtID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims)
	tokenString, err := token.SignedString([]byte(s.secret))
	if err != nil {
		logger.Error("failed to sign token", zap.Error(err), zap.String("operator_id", operatorID.String()))
		span.RecordError(err)
		return "", err
	}

	logger.Debug("Generated JWT token", zap.String("operator_id", operatorID.String()), zap.String("jwt_id", jwtID.String()))
	return tokenString, nil
}

func (s Service) Parse(ctx context.Context, tokenString string) (Operator, error) {
	traceCtx, span := s.tracer.Start(ctx, "Parse")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	secret := func(token *jwt.Token) (interface{}, error) {
		return []byte(s.secret), nil
	}

	tokenClaims := &claims{}
	_, err := jwt.ParseWithClaims(tokenString, tokenClaims, secret,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			logger.Warn("Failed to parse JWT token due to malformed structure, this is not a JWT token", zap.String("error", err.Error()))
		case errors.Is(err, jwt.ErrSignatureInvalid):
			logger.Warn("Failed to parse JWT token due to invalid signature", zap.String("error", err.Error()))
		case errors.Is(err, jwt.ErrTokenExpired):
			logger.Warn("Failed to parse JWT token due to expired timestamp", zap.String("error", err.Error()), zap.Time("expired_at", tokenClaims.ExpiresAt.Time))
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			logger.Warn("Failed to parse JWT token due to not valid yet timestamp", zap.String("error", err.Error()))
		default:
			logger.Error("Failed to parse JWT token", zap.Error(err))
		}
		span.RecordError(err)
		return Operator{}, err
	}

	operatorID, err := uuid.Parse(tokenClaims.Subject)
	if err != nil {
		logger.Error("Failed to parse operator ID from JWT subject", zap.Error(err))
		span.RecordError(err)
		return Operator{}, err
	}

	return Operator{ID: operatorID}, nil
}
