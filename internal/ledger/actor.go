package ledger

import (
	"context"
	"strings"
)

// SystemActor attributes changes made without an authenticated user.
const SystemActor = "SYSTEM"

type actorKey struct{}

// WithActor returns a context carrying the acting user's name.
func WithActor(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, actorKey{}, name)
}

// ActorFrom returns the acting user carried by ctx, or SystemActor.
func ActorFrom(ctx context.Context) string {
	if name, ok := ctx.Value(actorKey{}).(string); ok && strings.TrimSpace(name) != "" {
		return name
	}
	return SystemActor
}
