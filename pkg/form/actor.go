package form

import "context"

// Actor is the acting user or session a form is rendered for. The form only
// keeps a reference; it never owns or outlives the actor.
type Actor interface {
	ActorID() string
}

// ActorID is a minimal Actor backed by a plain identifier.
type ActorID string

// ActorID returns the identifier.
func (a ActorID) ActorID() string { return string(a) }

type actorContextKey struct{}

// ContextWithActor stores the acting user in ctx.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the acting user stored in ctx, if any.
func ActorFromContext(ctx context.Context) Actor {
	if ctx == nil {
		return nil
	}
	actor, _ := ctx.Value(actorContextKey{}).(Actor)
	return actor
}
