// Package auditcontext carries who-did-what request metadata used by the
// change log and error log writers.
package auditcontext

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

type actorKey struct{}
type requestIDKey struct{}
type ipAddressKey struct{}
type userAgentKey struct{}

const (
	ActorTypeAccount = "account"
	ActorTypeSystem  = "system"
)

type actor struct {
	actorType string
	id        string
}

func WithActor(ctx context.Context, actorType, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor{
		actorType: strings.TrimSpace(actorType),
		id:        strings.TrimSpace(actorID),
	})
}

// ActorFromContext returns the actor type and id, or empty strings.
func ActorFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	value, ok := ctx.Value(actorKey{}).(actor)
	if !ok {
		return "", ""
	}
	return value.actorType, value.id
}

// AccountIDFromContext returns the acting account id when the actor is an account.
func AccountIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	actorType, actorID := ActorFromContext(ctx)
	if actorType != ActorTypeAccount || actorID == "" {
		return 0, false
	}
	id, err := snowflake.ParseString(actorID)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey{})
}

func WithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipAddressKey{}, strings.TrimSpace(ip))
}

func IPAddressFromContext(ctx context.Context) string {
	return stringValue(ctx, ipAddressKey{})
}

func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, userAgentKey{}, strings.TrimSpace(ua))
}

func UserAgentFromContext(ctx context.Context) string {
	return stringValue(ctx, userAgentKey{})
}

func stringValue(ctx context.Context, key any) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}
