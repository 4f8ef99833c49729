// Package middleware provides Forge middleware guarding routes by user tier.
package middleware

import (
	"net"
	"strings"

	"github.com/xraph/forge"

	"github.com/xraph/tierguard"
	"github.com/xraph/tierguard/permission"
)

// Request headers carrying the caller when no actor is in the context.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserName = "X-User-Name"
	HeaderUserTier = "X-User-Tier"
)

// ResolveActor returns the caller of a request. An actor already in the
// request context wins; otherwise the Forge user id and the X-User-* headers
// are used. It reports false when the request names no tier.
func ResolveActor(ctx forge.Context) (tierguard.Actor, bool) {
	if a, ok := tierguard.ActorFromContext(ctx.Context()); ok {
		return a, a.Tier.IsValid()
	}

	r := ctx.Request()
	tier, err := permission.ParseTier(strings.TrimSpace(r.Header.Get(HeaderUserTier)))
	if err != nil {
		return tierguard.Actor{}, false
	}
	a := tierguard.Actor{
		ID:        forge.UserIDFromContext(ctx.Context()),
		Name:      r.Header.Get(HeaderUserName),
		Tier:      tier,
		IPAddress: clientIP(r.Header.Get("X-Forwarded-For"), r.RemoteAddr),
		UserAgent: r.UserAgent(),
	}
	if a.ID == "" {
		a.ID = r.Header.Get(HeaderUserID)
	}
	return a, true
}

func clientIP(forwarded, remoteAddr string) string {
	if forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
