package internal

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

// OperatorContextKey holds the authenticated operator placed by the auth middleware.
const OperatorContextKey contextKey = "operator"

type Identity interface {
	GetID() uuid.UUID
}

func WithOperator(ctx context.Context, operator Identity) context.Context {
	return context.WithValue(ctx, OperatorContextKey, operator)
}

// GetOperatorIDFromContext extracts the authenticated operator id from request context
func GetOperatorIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	operator := ctx.Value(OperatorContextKey)
	if operator == nil {
		return uuid.Nil, false
	}

	identity, ok := operator.(Identity)
	if !ok {
		return uuid.Nil, false
	}

	return identity.GetID(), true
}
