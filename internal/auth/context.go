package auth

import "context"

type contextKey string

const (
	contextKeyActor contextKey = "auth.actor_id"
	contextKeyRole  contextKey = "auth.role"
	contextKeyName  contextKey = "auth.actor_name"
)

// WithActor stores the acting admin identity in context.
func WithActor(ctx context.Context, actorID string, role Role, name string) context.Context {
	ctx = context.WithValue(ctx, contextKeyActor, actorID)
	ctx = context.WithValue(ctx, contextKeyRole, role)
	ctx = context.WithValue(ctx, contextKeyName, name)
	return ctx
}

// ActorIDFromContext extracts the acting admin id from context.
func ActorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyActor)
	if actorID, ok := value.(string); ok {
		return actorID
	}
	return ""
}

// RoleFromContext extracts the acting admin role from context.
func RoleFromContext(ctx context.Context) Role {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyRole)
	if role, ok := value.(Role); ok {
		return role
	}
	if role, ok := value.(string); ok {
		if normalized, valid := NormalizeRole(role); valid {
			return normalized
		}
	}
	return ""
}

// ActorNameFromContext extracts the acting admin display name from context.
func ActorNameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyName)
	if name, ok := value.(string); ok {
		return name
	}
	return ""
}
