package tierguard

import (
	"context"

	"github.com/xraph/tierguard/permission"
)

type contextKey int

const (
	ctxKeyActor contextKey = iota
	ctxKeySkipValidation
)

// Actor is the user performing a change. Changes made without an actor in
// the context are recorded as system changes.
type Actor struct {
	ID        string          `json:"id"`
	Name      string          `json:"name,omitempty"`
	Tier      permission.Tier `json:"tier"`
	IPAddress string          `json:"ip_address,omitempty"`
	UserAgent string          `json:"user_agent,omitempty"`
}

// WithActor returns a context carrying the acting user.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKeyActor, a)
}

// ActorFromContext returns the acting user, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKeyActor).(Actor)
	return a, ok
}

// WithSkipValidation returns a context under which mutations bypass the
// security checks and session commits bypass validation. Reserved for
// trusted administrative callers.
func WithSkipValidation(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKeySkipValidation, true)
}

func skipValidation(ctx context.Context) bool {
	v, ok := ctx.Value(ctxKeySkipValidation).(bool)
	return ok && v
}
