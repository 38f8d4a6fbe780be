// Package orgcontext carries the organization a request is scoped to.
package orgcontext

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type orgKey struct{}

func WithOrgID(ctx context.Context, orgID snowflake.ID) context.Context {
	return context.WithValue(ctx, orgKey{}, orgID)
}

// OrgIDFromContext returns the organization id. A zero id is reported as missing.
func OrgIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(orgKey{}).(snowflake.ID)
	return id, ok && id != 0
}

// String returns the organization id as text, or "" when unset.
func String(ctx context.Context) string {
	if id, ok := OrgIDFromContext(ctx); ok {
		return id.String()
	}
	return ""
}
