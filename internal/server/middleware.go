package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/collections/internal/auditcontext"
	"github.com/smallbiznis/collections/internal/orgcontext"
)

const (
	HeaderOrg   = "X-Org-ID"
	HeaderActor = "X-Actor-ID"
)

// OrgContext scopes the request to the organization named by X-Org-ID,
// falling back to the configured default organization.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := snowflake.ID(s.cfg.DefaultOrgID)
		if raw := strings.TrimSpace(c.GetHeader(HeaderOrg)); raw != "" {
			parsed, err := snowflake.ParseString(raw)
			if err != nil || parsed <= 0 {
				AbortWithError(c, newValidationError("organization", "invalid_organization", "invalid organization"))
				return
			}
			orgID = parsed
		}
		if orgID <= 0 {
			AbortWithError(c, newValidationError("organization", "invalid_organization", "invalid organization"))
			return
		}

		ctx := orgcontext.WithOrgID(c.Request.Context(), orgID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ActorContext resolves the account named by X-Actor-ID. Authentication
// happens upstream; the header is trusted.
func (s *Server) ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderActor))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		accountID, err := snowflake.ParseString(raw)
		if err != nil || accountID <= 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := c.Request.Context()
		orgID, _ := orgcontext.OrgIDFromContext(ctx)
		actor, err := s.authzSvc.ResolveActor(ctx, orgID, accountID)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx = auditcontext.WithActor(ctx, auditcontext.ActorTypeAccount, actor.AccountID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextActorKey, actor)
		c.Next()
	}
}
