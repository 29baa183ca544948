package shared

import "context"

type actorContextKey struct{}

// SystemActor is recorded when no caller identity is present.
const SystemActor = "system"

// ContextWithActor stores the calling actor identifier in context.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor identifier from context.
func ActorFromContext(ctx context.Context) string {
	if actor, _ := ctx.Value(actorContextKey{}).(string); actor != "" {
		return actor
	}
	return SystemActor
}
