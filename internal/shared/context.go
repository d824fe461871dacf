package shared

import "context"

type contextKey string

const actorKey contextKey = "actor_id"

// ContextWithActor stores the acting user's id for audit trails.
func ContextWithActor(ctx context.Context, actorID int64) context.Context {
	return context.WithValue(ctx, actorKey, actorID)
}

// ActorFromContext returns the acting user's id, zero when anonymous.
func ActorFromContext(ctx context.Context) int64 {
	if id, ok := ctx.Value(actorKey).(int64); ok {
		return id
	}
	return 0
}
