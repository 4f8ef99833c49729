package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/tierguard"
	"github.com/xraph/tierguard/permission"
)

// RequireAccess lets a request through only when the caller's tier holds
// capability on ref after the tier guard.
func RequireAccess(eng *tierguard.Engine, ref permission.Ref, capability permission.Capability) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			actor, ok := ResolveActor(ctx)
			if !ok {
				return denyResponse(ctx, http.StatusUnauthorized, "user tier required")
			}
			allowed, err := eng.Can(ctx.Context(), actor.Tier, ref, capability)
			if err != nil || !allowed {
				return denyResponse(ctx, http.StatusForbidden, "access denied")
			}
			return next(ctx)
		}
	}
}

// Authorize lets a request through only when the Authorizer allows the
// caller's tier to perform action on object.
func Authorize(a *Authorizer, object, action string) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			actor, ok := ResolveActor(ctx)
			if !ok {
				return denyResponse(ctx, http.StatusUnauthorized, "user tier required")
			}
			allowed, err := a.Allow(actor.Tier, object, action)
			if err != nil || !allowed {
				return denyResponse(ctx, http.StatusForbidden, "access denied")
			}
			return next(ctx)
		}
	}
}

func denyResponse(ctx forge.Context, status int, msg string) error {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(status)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": msg})
}
