package http

import (
	"context"

	"github.com/example/training-tracker/internal/application"
)

type contextKey string

const (
	principalContextKey  contextKey = "principal"
	trainingIDContextKey contextKey = "training_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated operator.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated operator from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithTrainingID injects the session identifier resolved from the request path.
func ContextWithTrainingID(ctx context.Context, trainingID string) context.Context {
	return context.WithValue(ctx, trainingIDContextKey, trainingID)
}

// TrainingIDFromContext extracts a session identifier previously associated with the context.
func TrainingIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(trainingIDContextKey).(string)
	return id, ok
}
